package jscal

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	uid := "test-event-123"
	title := "Test Event"

	event := NewEvent(uid, title)

	if event.Type != "jsevent" {
		t.Errorf("Expected Type to be 'jsevent', got '%s'", event.Type)
	}
	if event.UID != uid {
		t.Errorf("Expected UID to be '%s', got '%s'", uid, event.UID)
	}
	if event.Title == nil || *event.Title != title {
		t.Errorf("Expected Title to be '%s', got '%v'", title, event.Title)
	}
	if event.Created == nil {
		t.Error("Expected Created to be set")
	}
	if event.Updated == nil {
		t.Error("Expected Updated to be set")
	}
	if event.Sequence == nil || *event.Sequence != 0 {
		t.Errorf("Expected Sequence to be 0, got %v", event.Sequence)
	}
}

func TestEventJSON(t *testing.T) {
	event := NewEvent("test-123", "Test Event")

	jsonData, err := event.JSON()
	if err != nil {
		t.Fatalf("Failed to marshal to JSON: %v", err)
	}

	parsed, err := ParseEvent(jsonData)
	if err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if parsed.UID != event.UID {
		t.Errorf("Expected UID to be '%s', got '%s'", event.UID, parsed.UID)
	}
	if parsed.Title == nil || *parsed.Title != *event.Title {
		t.Errorf("Expected Title to be '%s', got '%v'", *event.Title, parsed.Title)
	}
}

func TestEventIsAllDay(t *testing.T) {
	event := NewEvent("test-123", "All Day Event")

	if event.IsAllDayEvent() {
		t.Error("Expected event to not be all-day by default")
	}

	event.IsAllDay = Bool(true)
	if !event.IsAllDayEvent() {
		t.Error("Expected event to be all-day")
	}
}

func TestEventDuration(t *testing.T) {
	event := NewEvent("test-123", "Test Event")
	event.Duration = String("PT1H")

	duration, err := event.GetDuration()
	if err != nil {
		t.Fatalf("Failed to get duration: %v", err)
	}

	if expected := time.Hour; duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestEventEndTime(t *testing.T) {
	event := NewEvent("test-123", "Test Event")

	startTime := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	event.Start = NewLocalDateTime(startTime)
	event.Duration = String("PT1H")

	endTime, err := event.GetEndTime()
	if err != nil {
		t.Fatalf("Failed to get end time: %v", err)
	}

	expectedEnd := startTime.Add(time.Hour)
	if !endTime.Equal(expectedEnd) {
		t.Errorf("Expected end time to be %v, got %v", expectedEnd, *endTime)
	}
}

func TestEventParticipants(t *testing.T) {
	event := NewEvent("test-123", "Test Event")

	participant := NewParticipant("John Doe", "john.doe@example.com")
	event.AddParticipant("p1", participant)

	if len(event.Participants) != 1 {
		t.Errorf("Expected 1 participant, got %d", len(event.Participants))
	}

	retrieved := event.Participants["p1"]
	if retrieved == nil {
		t.Fatal("Participant not found")
	}
	if retrieved.Name == nil || *retrieved.Name != "John Doe" {
		t.Errorf("Expected participant name to be 'John Doe', got %v", retrieved.Name)
	}
	if retrieved.Email == nil || *retrieved.Email != "john.doe@example.com" {
		t.Errorf("Expected participant email to be 'john.doe@example.com', got %v", retrieved.Email)
	}
}

func TestEventKeywords(t *testing.T) {
	event := NewEvent("test-123", "Test Event")

	event.AddKeyword("work")
	event.AddKeyword("meeting")

	if len(event.Keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %d", len(event.Keywords))
	}
	if !event.Keywords["work"] {
		t.Error("Expected 'work' keyword to be true")
	}
	if !event.Keywords["meeting"] {
		t.Error("Expected 'meeting' keyword to be true")
	}
}

func TestEventTouch(t *testing.T) {
	event := NewEvent("test-123", "Test Event")

	originalUpdated := event.Updated
	originalSequence := *event.Sequence

	time.Sleep(time.Millisecond)
	event.Touch()

	if event.Updated.Equal(*originalUpdated) {
		t.Error("Expected Updated timestamp to change")
	}
	if *event.Sequence != originalSequence+1 {
		t.Errorf("Expected sequence to increment from %d to %d, got %d",
			originalSequence, originalSequence+1, *event.Sequence)
	}
}

func TestHelperFunctions(t *testing.T) {
	if s := String("test"); s == nil || *s != "test" {
		t.Error("String helper failed")
	}
	if i := Int(42); i == nil || *i != 42 {
		t.Error("Int helper failed")
	}
	if b := Bool(true); b == nil || *b != true {
		t.Error("Bool helper failed")
	}
}

func TestFormatDayOfWeek(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"MONDAY", "mo"},
		{"MO", "mo"},
		{"Tuesday", "tu"},
		{"WE", "we"},
		{"thursday", "th"},
		{"FR", "fr"},
		{"saturday", "sa"},
		{"SU", "su"},
	}

	for _, test := range tests {
		if result := FormatDayOfWeek(test.input); result != test.expected {
			t.Errorf("FormatDayOfWeek(%s) = %s, expected %s",
				test.input, result, test.expected)
		}
	}
}

func TestParseEventRejectsWrongType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"@type":"jstask","uid":"x"}`))
	if err == nil {
		t.Error("expected error for non-jsevent @type")
	}
}

func TestParseAllEvents(t *testing.T) {
	data := []byte(`[{"@type":"jsevent","uid":"a","start":"2024-01-01T10:00:00"},{"@type":"jsevent","uid":"b","start":"2024-01-02T10:00:00"}]`)
	events, err := ParseAllEvents(data)
	if err != nil {
		t.Fatalf("ParseAllEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].UID != "a" || events[1].UID != "b" {
		t.Errorf("unexpected UIDs: %s, %s", events[0].UID, events[1].UID)
	}
}
