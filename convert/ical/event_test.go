package ical

import (
	"testing"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
)

func TestPropSetWantsNilMeansAll(t *testing.T) {
	var ps PropSet
	if !ps.wants("title") {
		t.Error("a nil PropSet should want every field")
	}
}

func TestPropSetWantsRestrictsToMembers(t *testing.T) {
	ps := PropSet{"title": struct{}{}}
	if !ps.wants("title") {
		t.Error("expected title to be wanted")
	}
	if ps.wants("description") {
		t.Error("expected description to be excluded")
	}
}

func TestICalToJSRequiresUID(t *testing.T) {
	vevent := &ics.VEvent{ComponentBase: ics.ComponentBase{}}
	cal := ics.NewCalendar()
	ctx := errctx.New()
	_, err := ICalToJS(cal, vevent, nil, nil, ctx)
	if err == nil {
		t.Fatal("expected an error for a VEVENT with no UID")
	}
	te, ok := err.(*errctx.TranslateError)
	if !ok || te.Code != errctx.CodeUID {
		t.Errorf("err = %v, want CodeUID", err)
	}
}

func TestICalToJSFiltersByPropSet(t *testing.T) {
	cal := ics.NewCalendar()
	vevent := ics.NewEvent("uid-1")
	vevent.Properties = append(vevent.Properties,
		newProperty(string(ics.ComponentPropertySummary), "Standup", nil),
		newProperty(string(ics.ComponentPropertyDescription), "Daily sync", nil),
	)

	want := PropSet{"title": struct{}{}}
	event, err := ICalToJS(cal, vevent, nil, want, errctx.New())
	if err != nil {
		t.Fatalf("ICalToJS: %v", err)
	}
	if event.Title == nil || *event.Title != "Standup" {
		t.Errorf("Title = %v, want Standup", event.Title)
	}
	if event.Description != nil {
		t.Errorf("Description = %v, want nil (filtered out)", event.Description)
	}
	if event.UID != "uid-1" {
		t.Errorf("uid should always survive filtering, got %q", event.UID)
	}
}

func TestICalToJSSuppressesForbiddenFieldsOnException(t *testing.T) {
	master := &jscal.Event{UID: "uid-1", Title: jscal.String("Master")}
	cal := ics.NewCalendar()
	exVEvent := ics.NewEvent("uid-1")
	exVEvent.Properties = append(exVEvent.Properties,
		newProperty(string(ics.ComponentPropertySummary), "Exception", nil),
		newProperty("RECURRENCE-ID", "20240102T090000", nil),
	)

	event, err := ICalToJS(cal, exVEvent, master, nil, errctx.New())
	if err != nil {
		t.Fatalf("ICalToJS: %v", err)
	}
	if event.UID != "" {
		t.Errorf("uid should be suppressed on an exception, got %q", event.UID)
	}
	if event.Title == nil || *event.Title != "Exception" {
		t.Errorf("Title should still be present, got %v", event.Title)
	}
}

func TestJSToICalWritesUID(t *testing.T) {
	cal := ics.NewCalendar()
	vevent := ics.NewEvent("placeholder")
	event := &jscal.Event{UID: "uid-42", Title: jscal.String("Planning")}

	if err := JSToICal(cal, vevent, event, nil, errctx.New()); err != nil {
		t.Fatalf("JSToICal: %v", err)
	}
	if vevent.Id() != "uid-42" {
		t.Errorf("Id() = %q, want uid-42", vevent.Id())
	}
	if p := vevent.GetProperty(ics.ComponentPropertySummary); p == nil || p.Value != "Planning" {
		t.Errorf("expected SUMMARY to be written, got %v", p)
	}
}

func TestEventRoundTripThroughCalendar(t *testing.T) {
	event := &jscal.Event{
		UID:   "uid-round",
		Title: jscal.String("Retro"),
	}
	cal := ics.NewCalendar()
	vevent := ics.NewEvent(event.UID)
	cal.AddVEvent(vevent)
	if err := JSToICal(cal, vevent, event, nil, errctx.New()); err != nil {
		t.Fatalf("JSToICal: %v", err)
	}

	readBack, err := ICalToJS(cal, vevent, nil, nil, errctx.New())
	if err != nil {
		t.Fatalf("ICalToJS: %v", err)
	}
	if readBack.UID != "uid-round" {
		t.Errorf("UID = %q", readBack.UID)
	}
	if readBack.Title == nil || *readBack.Title != "Retro" {
		t.Errorf("Title = %v, want Retro", readBack.Title)
	}
}
