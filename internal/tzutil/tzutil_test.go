package tzutil

import "testing"

func TestLoadUTCSingleton(t *testing.T) {
	for _, tzid := range []string{"UTC", "Etc/UTC", "utc"} {
		loc, err := Load(tzid)
		if err != nil {
			t.Fatalf("Load(%q) error: %v", tzid, err)
		}
		if loc != nil && loc.String() != "UTC" {
			t.Errorf("Load(%q) = %v, want UTC", tzid, loc)
		}
	}
}

func TestLoadOlson(t *testing.T) {
	loc, err := Load("Europe/Berlin")
	if err != nil {
		t.Fatalf("Load(Europe/Berlin) error: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("got %v, want Europe/Berlin", loc)
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load("Not/AZone"); err == nil {
		t.Error("expected error for unknown TZID")
	}
}

func TestLoadEmpty(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty TZID")
	}
}
