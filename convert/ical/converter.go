// Package ical provides conversion between iCalendar (RFC 5545) and JSCalendar formats.
package ical

import (
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/convert"
	"github.com/jmapio/jscal/internal/errctx"
)

// Converter handles iCalendar <-> JSCalendar conversions using golang-ical,
// configured with the functional options in config.go.
type Converter struct {
	cfg *Config
}

// Ensure Converter implements the convert.Converter interface.
var _ convert.Converter = (*Converter)(nil)

// New creates a new iCalendar converter.
func New(opts ...Option) *Converter {
	return &Converter{cfg: newConfig(opts)}
}

// Parse converts iCalendar data to a single JSCalendar event.
func (c *Converter) Parse(data []byte) (*jscal.Event, error) {
	events, err := c.ParseAll(data)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events found in iCalendar data")
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("multiple events found, use ParseAll instead")
	}
	return events[0], nil
}

// Format converts a single JSCalendar event to iCalendar format.
func (c *Converter) Format(event *jscal.Event) ([]byte, error) {
	return c.FormatAll([]*jscal.Event{event})
}

// ParseAll converts iCalendar data to JSCalendar events (spec §6 ToJSAll).
// A property error on one event does not abort the others; the first
// such error encountered is returned alongside the full event slice,
// so a caller that only cares about fatal errors can check the code.
func (c *Converter) ParseAll(data []byte) ([]*jscal.Event, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		return nil, &errctx.TranslateError{Code: errctx.CodeICal, Err: err}
	}

	masters, promoted := masterVEvents(cal)
	var events []*jscal.Event
	var firstPropsErr error
	for _, vevent := range masters {
		ctx := errctx.New()
		event, err := iCalToJS(cal, vevent, nil, nil, ctx, !promoted)
		if err != nil {
			if te, ok := err.(*errctx.TranslateError); ok && te.Code == errctx.CodeProps {
				if firstPropsErr == nil {
					firstPropsErr = err
				}
			} else {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, firstPropsErr
}

// FormatAll converts JSCalendar events to iCalendar format (spec §6 ToICal).
func (c *Converter) FormatAll(events []*jscal.Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("no events to convert")
	}

	cal := ics.NewCalendar()
	cal.SetProductId(c.cfg.ProdID)
	cal.SetVersion("2.0")

	var firstPropsErr error
	for _, event := range events {
		if event.UID == "" {
			return nil, &errctx.TranslateError{Code: errctx.CodeUID}
		}
		vevent := ics.NewEvent(event.UID)
		cal.AddVEvent(vevent)
		ctx := errctx.New()
		if err := JSToICal(cal, vevent, event, c.cfg, ctx); err != nil {
			te, ok := err.(*errctx.TranslateError)
			if !ok || te.Code != errctx.CodeProps {
				return nil, err
			}
			if firstPropsErr == nil {
				firstPropsErr = err
			}
		}
	}

	return []byte(cal.Serialize()), firstPropsErr
}

// Detect returns true if the data appears to be iCalendar format.
func (c *Converter) Detect(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "BEGIN:VCALENDAR")
}

// ToJS parses doc and returns the first master event it contains,
// filtered to the top-level property names in want (nil means all)
// (spec §6). A document with no master event yields a CodeUnknown error.
func ToJS(doc []byte, want ...string) (*jscal.Event, error) {
	events, err := ToJSAll(doc, want...)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, &errctx.TranslateError{Code: errctx.CodeUnknown, Err: fmt.Errorf("no events found")}
	}
	return events[0], nil
}

// ToJSAll parses doc and returns every master event it contains,
// filtered to the top-level property names in want (nil means all)
// (spec §6).
func ToJSAll(doc []byte, want ...string) ([]*jscal.Event, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(doc)))
	if err != nil {
		return nil, &errctx.TranslateError{Code: errctx.CodeICal, Err: err}
	}

	var propSet PropSet
	if len(want) > 0 {
		propSet = make(PropSet, len(want))
		for _, w := range want {
			propSet[w] = struct{}{}
		}
	}

	masters, promoted := masterVEvents(cal)
	var events []*jscal.Event
	var firstPropsErr error
	for _, vevent := range masters {
		ctx := errctx.New()
		event, err := iCalToJS(cal, vevent, nil, propSet, ctx, !promoted)
		if err != nil {
			if te, ok := err.(*errctx.TranslateError); ok && te.Code == errctx.CodeProps {
				if firstPropsErr == nil {
					firstPropsErr = err
				}
			} else {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, firstPropsErr
}

// ToICal serializes a single JSCalendar event to an iCalendar document
// (spec §6).
func ToICal(event *jscal.Event, opts ...Option) ([]byte, error) {
	return New(opts...).Format(event)
}

// StrError returns the human-readable diagnostic for code (spec §6).
func StrError(code errctx.ErrorCode) string {
	return code.String()
}
