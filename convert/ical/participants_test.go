package ical

import (
	"testing"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
)

func TestReadParticipantsOrganizerAndAttendee(t *testing.T) {
	vevent := ics.NewEvent("uid-1")
	vevent.Properties = append(vevent.Properties,
		newProperty(string(ics.ComponentPropertyOrganizer), "mailto:boss@example.com", map[string][]string{"CN": {"Boss"}}),
		newProperty(string(ics.ComponentPropertyAttendee), "mailto:alice@example.com", map[string][]string{
			"CN": {"Alice"}, "PARTSTAT": {"ACCEPTED"}, "ROLE": {"REQ-PARTICIPANT"},
		}),
	)
	event := &jscal.Event{}
	ctx := errctx.New()
	readParticipants(vevent, event, ctx)

	if len(event.ReplyTo) == 0 {
		t.Fatal("expected replyTo to be populated")
	}
	if len(event.Participants) != 2 {
		t.Fatalf("Participants = %d, want 2 (organizer + attendee)", len(event.Participants))
	}
	var found *jscal.Participant
	for _, p := range event.Participants {
		if p.Email != nil && *p.Email == "alice@example.com" {
			found = p
		}
	}
	if found == nil {
		t.Fatal("alice participant not found")
	}
	if found.ParticipationStatus == nil || *found.ParticipationStatus != jscal.ParticipationAccepted {
		t.Errorf("ParticipationStatus = %v, want accepted", found.ParticipationStatus)
	}
}

func TestWriteParticipantsCollapsesOrganizerOnlyAttendee(t *testing.T) {
	event := &jscal.Event{
		ReplyTo: map[string]string{"imip": "mailto:boss@example.com"},
		Participants: map[string]*jscal.Participant{
			"p1": {
				SendTo:     map[string]string{"imip": "mailto:boss@example.com"},
				Roles:      map[string]bool{"owner": true},
				Attendance: jscal.String(jscal.AttendanceRequired),
			},
		},
	}
	vevent := ics.NewEvent("uid-2")
	ctx := errctx.New()
	writeParticipants(event, vevent, nil, ctx)

	if vevent.GetProperty(ics.ComponentPropertyOrganizer) == nil {
		t.Fatal("expected ORGANIZER to be written")
	}
	for _, p := range vevent.Properties {
		if p.IANAToken == string(ics.ComponentPropertyAttendee) {
			t.Errorf("expected ATTENDEE to be collapsed away, found one: %+v", p)
		}
	}
}

func TestParticipantLocationIdAndLinkIdsRoundTrip(t *testing.T) {
	event := &jscal.Event{
		ReplyTo: map[string]string{"imip": "mailto:boss@example.com"},
		Participants: map[string]*jscal.Participant{
			"p1": {
				SendTo:     map[string]string{"imip": "mailto:alice@example.com"},
				Roles:      map[string]bool{"attendee": true},
				Attendance: jscal.String(jscal.AttendanceRequired),
				LocationId: jscal.String("loc-1"),
				LinkIds:    map[string]bool{"link-1": true},
			},
		},
	}
	vevent := ics.NewEvent("uid-3")
	writeParticipants(event, vevent, nil, errctx.New())

	readBack := &jscal.Event{}
	readParticipants(vevent, readBack, errctx.New())

	var found *jscal.Participant
	for _, p := range readBack.Participants {
		if p.Email != nil && *p.Email == "alice@example.com" {
			found = p
		}
	}
	if found == nil {
		t.Fatal("alice participant not found after round trip")
	}
	if found.LocationId == nil || *found.LocationId != "loc-1" {
		t.Errorf("LocationId = %v, want loc-1", found.LocationId)
	}
	if !found.LinkIds["link-1"] {
		t.Errorf("LinkIds = %v, want link-1 present", found.LinkIds)
	}
}

func TestDelegationChainCutoff(t *testing.T) {
	a := mustProperty(string(ics.ComponentPropertyAttendee), "mailto:a@example.com", map[string][]string{
		"PARTSTAT": {"DELEGATED"}, "DELEGATED-TO": {"mailto:a@example.com"},
	})
	status := followDelegationChain(a, []*ics.IANAProperty{a})
	if status != "none" {
		t.Errorf("followDelegationChain() = %q, want none (self-cycle)", status)
	}
}
