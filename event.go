package jscal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event represents a JSCalendar event object (spec §3): the in-memory
// JS-form counterpart of one VEVENT (plus its RECURRENCE-ID exceptions,
// folded into recurrenceOverrides).
type Event struct {
	Type     string     `json:"@type"` // always "jsevent"
	UID      string     `json:"uid"`
	ProdId   *string    `json:"prodId,omitempty"`
	Method   *string    `json:"method,omitempty"`
	Sequence *int       `json:"sequence,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Updated  *time.Time `json:"updated,omitempty"`

	Title                  *string `json:"title,omitempty"`
	Description            *string `json:"description,omitempty"`
	DescriptionContentType *string `json:"descriptionContentType,omitempty"`
	Color                  *string `json:"color,omitempty"`
	Priority               *int    `json:"priority,omitempty"`
	Status                 *string `json:"status,omitempty"`
	FreeBusyStatus         *string `json:"freeBusyStatus,omitempty"`
	Privacy                *string `json:"privacy,omitempty"`
	Locale                 *string `json:"locale,omitempty"`

	Keywords map[string]bool `json:"keywords,omitempty"`

	Start    *LocalDateTime `json:"start,omitempty"`
	Duration *string        `json:"duration,omitempty"`
	TimeZone *string        `json:"timeZone,omitempty"`
	IsAllDay *bool          `json:"isAllDay,omitempty"`

	RecurrenceRule      *RecurrenceRule                   `json:"recurrenceRule,omitempty"`
	RecurrenceOverrides map[string]map[string]interface{} `json:"recurrenceOverrides,omitempty"`

	RelatedTo map[string]*Relation `json:"relatedTo,omitempty"`

	ReplyTo      map[string]string       `json:"replyTo,omitempty"`
	Participants map[string]*Participant `json:"participants,omitempty"`

	Links            map[string]*Link            `json:"links,omitempty"`
	Locations        map[string]*Location        `json:"locations,omitempty"`
	VirtualLocations map[string]*VirtualLocation  `json:"virtualLocations,omitempty"`

	Alerts           map[string]*Alert `json:"alerts,omitempty"`
	UseDefaultAlerts *bool             `json:"useDefaultAlerts,omitempty"`
}

// NewEvent creates a new JSCalendar event with the required fields set.
func NewEvent(uid, title string) *Event {
	now := time.Now().UTC()
	return &Event{
		Type:     "jsevent",
		UID:      uid,
		Title:    &title,
		Start:    NewLocalDateTime(now),
		Created:  &now,
		Updated:  &now,
		Sequence: Int(0),
	}
}

// JSON returns the Event as JSON bytes.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// PrettyJSON returns the Event as indented JSON bytes.
func (e *Event) PrettyJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// Clone creates a deep copy of the Event via a JSON round-trip.
func (e *Event) Clone() *Event {
	data, _ := json.Marshal(e)
	var clone Event
	_ = json.Unmarshal(data, &clone)
	return &clone
}

// IsAllDayEvent reports whether this event is an all-day event.
func (e *Event) IsAllDayEvent() bool {
	return e.IsAllDay != nil && *e.IsAllDay
}

// IsRecurring reports whether this event carries a recurrence rule.
func (e *Event) IsRecurring() bool {
	return e.RecurrenceRule != nil
}

// GetDuration parses the event's duration string.
func (e *Event) GetDuration() (time.Duration, error) {
	if e.Duration == nil || *e.Duration == "" {
		return 0, fmt.Errorf("no duration specified")
	}
	return ParseISO8601Duration(*e.Duration)
}

// GetEndTime computes the event's end instant from start + duration,
// interpreted as a LocalDateTime (caller applies timezone).
func (e *Event) GetEndTime() (*time.Time, error) {
	if e.Start == nil {
		return nil, fmt.Errorf("no start time specified")
	}
	duration, err := e.GetDuration()
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}
	end := e.Start.Time().Add(duration)
	return &end, nil
}

// AddParticipant adds a participant to the event.
func (e *Event) AddParticipant(id string, participant *Participant) {
	if e.Participants == nil {
		e.Participants = make(map[string]*Participant)
	}
	e.Participants[id] = participant
}

// AddLocation adds a location to the event.
func (e *Event) AddLocation(id string, location *Location) {
	if e.Locations == nil {
		e.Locations = make(map[string]*Location)
	}
	e.Locations[id] = location
}

// AddVirtualLocation adds a virtual location to the event.
func (e *Event) AddVirtualLocation(id string, vloc *VirtualLocation) {
	if e.VirtualLocations == nil {
		e.VirtualLocations = make(map[string]*VirtualLocation)
	}
	e.VirtualLocations[id] = vloc
}

// AddAlert adds an alert to the event.
func (e *Event) AddAlert(id string, alert *Alert) {
	if e.Alerts == nil {
		e.Alerts = make(map[string]*Alert)
	}
	e.Alerts[id] = alert
}

// AddKeyword adds a keyword to the event.
func (e *Event) AddKeyword(keyword string) {
	if e.Keywords == nil {
		e.Keywords = make(map[string]bool)
	}
	e.Keywords[keyword] = true
}

// AddLink adds a link to the event.
func (e *Event) AddLink(id string, link *Link) {
	if e.Links == nil {
		e.Links = make(map[string]*Link)
	}
	e.Links[id] = link
}

// Touch bumps Updated to now and increments Sequence, mirroring what
// a calendar client does on every local edit.
func (e *Event) Touch() {
	now := time.Now().UTC()
	e.Updated = &now
	if e.Sequence != nil {
		*e.Sequence++
	} else {
		e.Sequence = Int(1)
	}
}

// GetUID returns the event's UID.
func (e *Event) GetUID() string { return e.UID }
