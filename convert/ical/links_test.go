package ical

import (
	"testing"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
)

func TestWriteLinksCollapsesBareDescribedByToURL(t *testing.T) {
	event := &jscal.Event{
		Links: map[string]*jscal.Link{
			"l1": {Href: "https://example.com/event", Rel: jscal.String(jscal.LinkRelDescribedBy)},
		},
	}
	vevent := ics.NewEvent("uid-1")
	writeLinks(event, vevent, errctx.New())

	if p := vevent.GetProperty(ics.ComponentPropertyUrl); p == nil || p.Value != "https://example.com/event" {
		t.Fatalf("expected URL property, got %v", p)
	}
	if findProperty(vevent, "ATTACH") != nil {
		t.Error("expected no ATTACH property when link collapses to bare URL")
	}
}

func TestWriteLinksMultipleUsesAttach(t *testing.T) {
	event := &jscal.Event{
		Links: map[string]*jscal.Link{
			"l1": {Href: "https://example.com/a", Rel: jscal.String(jscal.LinkRelDescribedBy)},
			"l2": {Href: "https://example.com/b.pdf", Type: jscal.String("application/pdf")},
		},
	}
	vevent := ics.NewEvent("uid-2")
	writeLinks(event, vevent, errctx.New())

	if vevent.GetProperty(ics.ComponentPropertyUrl) != nil {
		t.Error("expected no bare URL collapse when more than one link is present")
	}
	var attachCount int
	for i := range vevent.Properties {
		if vevent.Properties[i].IANAToken == "ATTACH" {
			attachCount++
		}
	}
	if attachCount != 2 {
		t.Errorf("ATTACH count = %d, want 2", attachCount)
	}
}

func TestWriteLinksSkipsEmptyHref(t *testing.T) {
	event := &jscal.Event{
		Links: map[string]*jscal.Link{
			"l1": {Href: ""},
		},
	}
	vevent := ics.NewEvent("uid-3")
	ctx := errctx.New()
	writeLinks(event, vevent, ctx)

	if !ctx.HasInvalid() {
		t.Error("expected an invalid path for empty href")
	}
	if findProperty(vevent, "ATTACH") != nil || vevent.GetProperty(ics.ComponentPropertyUrl) != nil {
		t.Error("expected no property written for an empty href link")
	}
}

func TestReadLinksFromAttachAndURL(t *testing.T) {
	vevent := ics.NewEvent("uid-4")
	vevent.Properties = append(vevent.Properties,
		newProperty("ATTACH", "https://example.com/a.pdf", map[string][]string{
			"FMTTYPE": {"application/pdf"},
			XParamID:  {"att1"},
		}),
		newProperty(string(ics.ComponentPropertyUrl), "https://example.com/event", nil),
	)

	event := &jscal.Event{}
	readLinks(vevent, event, errctx.New())

	if len(event.Links) != 2 {
		t.Fatalf("Links = %d, want 2", len(event.Links))
	}
	attach, ok := event.Links["att1"]
	if !ok {
		t.Fatalf("expected link keyed by X-JMAP-ID att1, got %v", event.Links)
	}
	if attach.Type == nil || *attach.Type != "application/pdf" {
		t.Errorf("Type = %v, want application/pdf", attach.Type)
	}

	var urlLink *jscal.Link
	for id, l := range event.Links {
		if id != "att1" {
			urlLink = l
		}
	}
	if urlLink == nil || urlLink.Rel == nil || *urlLink.Rel != jscal.LinkRelDescribedBy {
		t.Errorf("expected URL property to default to describedby rel, got %+v", urlLink)
	}
}

func TestReadLinksSkipsBinaryAttach(t *testing.T) {
	vevent := ics.NewEvent("uid-5")
	vevent.Properties = append(vevent.Properties,
		newProperty("ATTACH", "YmluYXJ5ZGF0YQ==", map[string][]string{"VALUE": {"BINARY"}}))

	event := &jscal.Event{}
	readLinks(vevent, event, errctx.New())
	if len(event.Links) != 0 {
		t.Errorf("expected inline BINARY attachments to be skipped, got %d links", len(event.Links))
	}
}

func TestLinksRoundTrip(t *testing.T) {
	event := &jscal.Event{
		Links: map[string]*jscal.Link{
			"l1": {Href: "https://example.com/a.pdf", Type: jscal.String("application/pdf"), Title: jscal.String("Agenda")},
		},
	}
	vevent := ics.NewEvent("uid-6")
	writeLinks(event, vevent, errctx.New())

	readBack := &jscal.Event{}
	readLinks(vevent, readBack, errctx.New())

	link, ok := readBack.Links["l1"]
	if !ok {
		t.Fatalf("expected link to round-trip under its original id, got %v", readBack.Links)
	}
	if link.Href != "https://example.com/a.pdf" {
		t.Errorf("Href = %q", link.Href)
	}
	if link.Title == nil || *link.Title != "Agenda" {
		t.Errorf("Title = %v, want Agenda", link.Title)
	}
}
