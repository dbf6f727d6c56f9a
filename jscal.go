// Package jscal implements the JSCalendar-style event object model
// used as the JS-form side of a bidirectional iCalendar translator.
//
// JSCalendar is a modern JSON-based calendar data format that provides
// a cleaner alternative to iCalendar (RFC 5545). This package provides
// the Event type, its nested value types, JSON marshaling, and
// property-level validation; the semantic translation to and from
// iCalendar lives in the sibling convert/ical package.
//
// Basic usage:
//
//	event, err := jscal.ParseEvent(jsonData)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := event.Validate(); err != nil {
//		log.Printf("invalid event: %v", err)
//	}
package jscal

import (
	"encoding/json"
	"fmt"
)

// ParseEvent parses JSCalendar event JSON into an Event and validates it.
func ParseEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse JSCalendar event JSON: %w", err)
	}
	if event.Type != "" && event.Type != "jsevent" {
		return nil, fmt.Errorf("unsupported @type: %s", event.Type)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("parsed JSCalendar event is invalid: %w", err)
	}
	return &event, nil
}

// ParseAllEvents parses a JSON array of JSCalendar events.
func ParseAllEvents(data []byte) ([]*Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSCalendar event array: %w", err)
	}
	events := make([]*Event, 0, len(raw))
	for i, r := range raw {
		event, err := ParseEvent(r)
		if err != nil {
			return nil, fmt.Errorf("event at index %d is invalid: %w", i, err)
		}
		events = append(events, event)
	}
	return events, nil
}
