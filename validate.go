package jscal

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxTitleLength       = 1024
	MaxDescriptionLength = 32768
	MaxUIDLength         = 255
)

var (
	durationPattern = regexp.MustCompile(`^-?P(?:\d+(?:\.\d+)?Y)?(?:\d+(?:\.\d+)?M)?(?:\d+(?:\.\d+)?W)?(?:\d+(?:\.\d+)?D)?(?:T(?:\d+(?:\.\d+)?H)?(?:\d+(?:\.\d+)?M)?(?:\d+(?:\.\d+)?S)?)?$`)
	colorPattern    = regexp.MustCompile(`^(?:#[0-9a-fA-F]{3,8}|rgb\(|rgba\(|hsl\(|hsla\(|[a-zA-Z]+)`)
	timezonePattern = regexp.MustCompile(`^[A-Za-z0-9/_+-]+$`)
)

// ValidationError represents one invalid property on an Event or a
// nested value type.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	fieldName := e.Field
	switch e.Field {
	case "uid":
		fieldName = "UID"
	case "@type":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	if e.Message == "is required" {
		return fmt.Sprintf("%s %s", fieldName, e.Message)
	}

	if strings.HasPrefix(e.Message, "invalid") {
		return e.Message
	}
	if strings.HasPrefix(e.Message, "must be") ||
		strings.HasPrefix(e.Message, "cannot be") ||
		strings.HasPrefix(e.Message, "should be") {
		return fmt.Sprintf("%s %s", fieldName, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every ValidationError found by Event.Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

// Validate checks the Event's required properties and enumerated
// property values against spec §3.
func (e *Event) Validate() error {
	if e == nil {
		return ValidationError{Field: "event", Message: "event is nil"}
	}

	var errors ValidationErrors

	if e.Type != "" && e.Type != "jsevent" {
		errors = append(errors, ValidationError{Field: "@type", Value: e.Type, Message: "must be 'jsevent'"})
	}

	if e.UID == "" {
		errors = append(errors, ValidationError{Field: "uid", Value: e.UID, Message: "is required"})
	} else if len(e.UID) > MaxUIDLength {
		errors = append(errors, ValidationError{Field: "uid", Value: e.UID, Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxUIDLength)})
	}

	if e.Start == nil {
		errors = append(errors, ValidationError{Field: "start", Value: nil, Message: "is required"})
	}

	if e.Title != nil && len(*e.Title) > MaxTitleLength {
		errors = append(errors, ValidationError{Field: "title", Value: *e.Title, Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxTitleLength)})
	}

	if e.Description != nil && len(*e.Description) > MaxDescriptionLength {
		errors = append(errors, ValidationError{Field: "description", Value: *e.Description, Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxDescriptionLength)})
	}

	if e.Duration != nil && !durationPattern.MatchString(*e.Duration) {
		errors = append(errors, ValidationError{Field: "duration", Value: *e.Duration, Message: "invalid ISO 8601 duration format"})
	}

	if e.TimeZone != nil && !timezonePattern.MatchString(*e.TimeZone) {
		errors = append(errors, ValidationError{Field: "timeZone", Value: *e.TimeZone, Message: "invalid IANA timezone identifier"})
	}

	if e.Color != nil && !colorPattern.MatchString(*e.Color) {
		errors = append(errors, ValidationError{Field: "color", Value: *e.Color, Message: "invalid CSS color value"})
	}

	if e.Status != nil {
		valid := map[string]bool{StatusConfirmed: true, StatusTentative: true, StatusCancelled: true}
		if !valid[*e.Status] {
			errors = append(errors, ValidationError{Field: "status", Value: *e.Status, Message: "invalid status"})
		}
	}

	if e.FreeBusyStatus != nil {
		valid := map[string]bool{FreeBusyFree: true, FreeBusyBusy: true}
		if !valid[*e.FreeBusyStatus] {
			errors = append(errors, ValidationError{Field: "freeBusyStatus", Value: *e.FreeBusyStatus, Message: "invalid freeBusyStatus"})
		}
	}

	if e.Privacy != nil {
		valid := map[string]bool{PrivacyPublic: true, PrivacyPrivate: true, PrivacySecret: true}
		if !valid[*e.Privacy] {
			errors = append(errors, ValidationError{Field: "privacy", Value: *e.Privacy, Message: "invalid privacy"})
		}
	}

	if e.Priority != nil && (*e.Priority < PriorityMin || *e.Priority > PriorityMax) {
		errors = append(errors, ValidationError{Field: "priority", Value: *e.Priority, Message: fmt.Sprintf("must be between %d and %d", PriorityMin, PriorityMax)})
	}

	if e.Method != nil {
		valid := map[string]bool{
			MethodPublish: true, MethodRequest: true, MethodReply: true, MethodAdd: true,
			MethodCancel: true, MethodRefresh: true, MethodCounter: true, MethodDeclineCounter: true,
		}
		if !valid[*e.Method] {
			errors = append(errors, ValidationError{Field: "method", Value: *e.Method, Message: "invalid method"})
		}
	}

	if e.DescriptionContentType != nil {
		valid := map[string]bool{MIMETextPlain: true, MIMETextHTML: true}
		if !valid[*e.DescriptionContentType] {
			errors = append(errors, ValidationError{Field: "descriptionContentType", Value: *e.DescriptionContentType, Message: "must be text/plain or text/html"})
		}
	}

	if e.Sequence != nil && *e.Sequence < 0 {
		errors = append(errors, ValidationError{Field: "sequence", Value: *e.Sequence, Message: "cannot be negative"})
	}

	for id, participant := range e.Participants {
		errors = append(errors, validateParticipant(id, participant)...)
	}
	for id, location := range e.Locations {
		errors = append(errors, validateLocation(id, location)...)
	}
	for id, vloc := range e.VirtualLocations {
		errors = append(errors, validateVirtualLocation(id, vloc)...)
	}
	for id, alert := range e.Alerts {
		errors = append(errors, validateAlert(id, alert)...)
	}
	for id, link := range e.Links {
		errors = append(errors, validateLink(id, link)...)
	}
	if e.RecurrenceRule != nil {
		errors = append(errors, validateRecurrenceRule("recurrenceRule", e.RecurrenceRule)...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func validateParticipant(id string, p *Participant) ValidationErrors {
	var errors ValidationErrors
	if p == nil {
		return errors
	}

	if p.Email != nil && *p.Email != "" && !strings.Contains(*p.Email, "@") {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("participants[%s].email", id), Value: *p.Email, Message: "invalid email format"})
	}

	if p.ParticipationStatus != nil {
		valid := map[string]bool{
			ParticipationNeedsAction: true, ParticipationAccepted: true,
			ParticipationDeclined: true, ParticipationTentative: true,
		}
		if !valid[*p.ParticipationStatus] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("participants[%s].participationStatus", id), Value: *p.ParticipationStatus, Message: "invalid participationStatus"})
		}
	}

	if p.Attendance != nil {
		valid := map[string]bool{AttendanceRequired: true, AttendanceOptional: true, AttendanceNone: true}
		if !valid[*p.Attendance] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("participants[%s].attendance", id), Value: *p.Attendance, Message: "invalid attendance"})
		}
	}

	if p.Kind != nil {
		valid := map[string]bool{KindIndividual: true, KindGroup: true, KindResource: true, KindLocation: true, KindUnknown: true}
		if !valid[*p.Kind] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("participants[%s].kind", id), Value: *p.Kind, Message: "invalid kind"})
		}
	}

	for role := range p.Roles {
		valid := map[string]bool{"owner": true, "attendee": true, "optional": true, "informational": true, "chair": true, "contact": true}
		if !valid[role] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("participants[%s].roles[%s]", id, role), Value: role, Message: "invalid role"})
		}
	}

	return errors
}

func validateLocation(id string, l *Location) ValidationErrors {
	var errors ValidationErrors
	if l == nil {
		return errors
	}

	if l.Coordinates != nil && !strings.HasPrefix(*l.Coordinates, "geo:") {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("locations[%s].coordinates", id), Value: *l.Coordinates, Message: "must be a geo: URI"})
	}

	if l.Rel != nil && *l.Rel != LocationRelEnd {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("locations[%s].rel", id), Value: *l.Rel, Message: "invalid rel"})
	}

	if l.TimeZone != nil && *l.TimeZone != "" && !timezonePattern.MatchString(*l.TimeZone) {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("locations[%s].timeZone", id), Value: *l.TimeZone, Message: "invalid IANA timezone identifier"})
	}

	return errors
}

func validateVirtualLocation(id string, vl *VirtualLocation) ValidationErrors {
	var errors ValidationErrors
	if vl == nil {
		return errors
	}

	if vl.URI == "" {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("virtualLocations[%s].uri", id), Value: vl.URI, Message: "is required"})
	} else if _, err := url.Parse(vl.URI); err != nil {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("virtualLocations[%s].uri", id), Value: vl.URI, Message: "invalid URI format"})
	}

	return errors
}

func validateAlert(id string, a *Alert) ValidationErrors {
	var errors ValidationErrors
	if a == nil {
		return errors
	}

	if a.Offset == "" {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("alerts[%s].offset", id), Value: a.Offset, Message: "is required"})
	} else if !durationPattern.MatchString(a.Offset) {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("alerts[%s].offset", id), Value: a.Offset, Message: "invalid ISO 8601 duration format"})
	}

	if a.RelativeTo != nil {
		valid := map[string]bool{
			RelativeToBeforeStart: true, RelativeToAfterStart: true,
			RelativeToBeforeEnd: true, RelativeToAfterEnd: true,
		}
		if !valid[*a.RelativeTo] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("alerts[%s].relativeTo", id), Value: *a.RelativeTo, Message: "invalid relativeTo"})
		}
	}

	if a.Action != nil {
		valid := map[string]bool{AlertActionDisplay: true, AlertActionEmail: true}
		if !valid[*a.Action] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("alerts[%s].action", id), Value: *a.Action, Message: "invalid action"})
		}
	}

	return errors
}

func validateLink(id string, l *Link) ValidationErrors {
	var errors ValidationErrors
	if l == nil {
		return errors
	}

	if l.Href == "" {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("links[%s].href", id), Value: l.Href, Message: "is required"})
	} else if _, err := url.Parse(l.Href); err != nil {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("links[%s].href", id), Value: l.Href, Message: "invalid URL format"})
	}

	return errors
}

func validateRecurrenceRule(fieldPrefix string, rr *RecurrenceRule) ValidationErrors {
	var errors ValidationErrors
	if rr == nil {
		return errors
	}

	if rr.Frequency == "" {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.frequency", fieldPrefix), Value: rr.Frequency, Message: "is required"})
	} else {
		valid := map[string]bool{
			FrequencyYearly: true, FrequencyMonthly: true, FrequencyWeekly: true, FrequencyDaily: true,
			FrequencyHourly: true, FrequencyMinutely: true, FrequencySecondly: true,
		}
		if !valid[rr.Frequency] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.frequency", fieldPrefix), Value: rr.Frequency, Message: "invalid frequency"})
		}
	}

	if rr.Interval != nil && *rr.Interval < 1 {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.interval", fieldPrefix), Value: *rr.Interval, Message: "must be positive"})
	}

	if rr.Count != nil && *rr.Count < 1 {
		errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.count", fieldPrefix), Value: *rr.Count, Message: "must be positive"})
	}

	if rr.Count != nil && rr.Until != nil {
		errors = append(errors, ValidationError{Field: fieldPrefix, Value: rr, Message: "cannot have both count and until"})
	}

	if rr.Skip != nil && *rr.Skip != "" {
		valid := map[string]bool{SkipForward: true, SkipBackward: true, SkipOmit: true}
		if !valid[*rr.Skip] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.skip", fieldPrefix), Value: *rr.Skip, Message: "invalid skip"})
		}
	}

	if rr.FirstDayOfWeek != nil {
		valid := map[string]bool{"mo": true, "tu": true, "we": true, "th": true, "fr": true, "sa": true, "su": true}
		if !valid[*rr.FirstDayOfWeek] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.firstDayOfWeek", fieldPrefix), Value: *rr.FirstDayOfWeek, Message: "invalid firstDayOfWeek"})
		}
	}

	for i, nday := range rr.ByDay {
		valid := map[string]bool{"mo": true, "tu": true, "we": true, "th": true, "fr": true, "sa": true, "su": true}
		if !valid[nday.Day] {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("%s.byDay[%d].day", fieldPrefix, i), Value: nday.Day, Message: "invalid day"})
		}
	}

	return errors
}
