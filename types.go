package jscal

import (
	"fmt"
	"strings"
	"time"
)

// Common types for the JSCalendar event model (spec §3).

// Participant describes one member of an event's participant graph.
type Participant struct {
	SendTo               map[string]string `json:"sendTo,omitempty"`
	Email                *string           `json:"email,omitempty"`
	Name                 *string           `json:"name,omitempty"`
	Kind                 *string           `json:"kind,omitempty"` // individual, group, resource, location, unknown
	Attendance           *string           `json:"attendance,omitempty"` // required, optional, none
	Roles                map[string]bool   `json:"roles,omitempty"`
	LocationId           *string           `json:"locationId,omitempty"`
	ParticipationStatus  *string           `json:"participationStatus,omitempty"` // needs-action, accepted, declined, tentative
	ParticipationComment *string           `json:"participationComment,omitempty"`
	ExpectReply          *bool             `json:"expectReply,omitempty"`
	DelegatedTo          map[string]bool   `json:"delegatedTo,omitempty"`
	DelegatedFrom        map[string]bool   `json:"delegatedFrom,omitempty"`
	MemberOf             map[string]bool   `json:"memberOf,omitempty"`
	LinkIds              map[string]bool   `json:"linkIds,omitempty"`
	ScheduleSequence     *int              `json:"scheduleSequence,omitempty"`
	ScheduleUpdated      *time.Time        `json:"scheduleUpdated,omitempty"`
}

// Location describes a physical place, or a bare end-timezone carrier
// when Rel == "end" (spec §3 Location, §4.7).
type Location struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Rel         *string         `json:"rel,omitempty"`
	TimeZone    *string         `json:"timeZone,omitempty"`
	Coordinates *string         `json:"coordinates,omitempty"` // geo: URI
	LinkIds     map[string]bool `json:"linkIds,omitempty"`
}

// VirtualLocation describes an online meeting location.
type VirtualLocation struct {
	URI         string  `json:"uri"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Link describes an attachment or external reference.
type Link struct {
	Href    string  `json:"href"`
	Type    *string `json:"type,omitempty"`
	Title   *string `json:"title,omitempty"`
	Rel     *string `json:"rel,omitempty"`
	Cid     *string `json:"cid,omitempty"`
	Display *string `json:"display,omitempty"`
	Size    *int    `json:"size,omitempty"`
}

// NDay is one entry of a recurrence rule's byDay array.
type NDay struct {
	Day         string `json:"day"` // mo, tu, we, th, fr, sa, su
	NthOfPeriod *int   `json:"nthOfPeriod,omitempty"`
}

// RecurrenceRule mirrors RRULE (spec §4.3).
type RecurrenceRule struct {
	Frequency      string         `json:"frequency"`
	Interval       *int           `json:"interval,omitempty"`
	RScale         *string        `json:"rscale,omitempty"`
	Skip           *string        `json:"skip,omitempty"` // omit, backward, forward
	FirstDayOfWeek *string        `json:"firstDayOfWeek,omitempty"`
	ByDay          []NDay         `json:"byDay,omitempty"`
	ByMonth        []string       `json:"byMonth,omitempty"`
	ByDate         []int          `json:"byDate,omitempty"`
	ByYearDay      []int          `json:"byYearDay,omitempty"`
	ByWeekNo       []int          `json:"byWeekNo,omitempty"`
	ByHour         []int          `json:"byHour,omitempty"`
	ByMinute       []int          `json:"byMinute,omitempty"`
	BySecond       []int          `json:"bySecond,omitempty"`
	BySetPosition  []int          `json:"bySetPosition,omitempty"`
	Count          *int           `json:"count,omitempty"`
	Until          *LocalDateTime `json:"until,omitempty"`
}

// Alert describes a reminder paired to DISPLAY/EMAIL VALARMs (spec §4.6).
type Alert struct {
	Action       *string    `json:"action,omitempty"` // display, email
	RelativeTo   *string    `json:"relativeTo,omitempty"`
	Offset       string     `json:"offset"` // unsigned ISO 8601 duration
	Acknowledged *time.Time `json:"acknowledged,omitempty"`
	Snoozed      *time.Time `json:"snoozed,omitempty"`
}

// Relation holds the set of relation tags for one `relatedTo` entry.
type Relation struct {
	Relation map[string]bool `json:"relation,omitempty"`
}

// Enumerated property values (spec §3).
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"

	FreeBusyFree = "free"
	FreeBusyBusy = "busy"

	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacySecret  = "secret"

	KindIndividual = "individual"
	KindGroup      = "group"
	KindResource   = "resource"
	KindLocation   = "location"
	KindUnknown    = "unknown"

	AttendanceRequired = "required"
	AttendanceOptional = "optional"
	AttendanceNone     = "none"

	ParticipationNeedsAction = "needs-action"
	ParticipationAccepted    = "accepted"
	ParticipationDeclined    = "declined"
	ParticipationTentative   = "tentative"

	AlertActionDisplay = "display"
	AlertActionEmail   = "email"

	RelativeToBeforeStart = "before-start"
	RelativeToAfterStart  = "after-start"
	RelativeToBeforeEnd   = "before-end"
	RelativeToAfterEnd    = "after-end"

	SkipOmit     = "omit"
	SkipBackward = "backward"
	SkipForward  = "forward"

	FrequencySecondly = "secondly"
	FrequencyMinutely = "minutely"
	FrequencyHourly   = "hourly"
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyMonthly  = "monthly"
	FrequencyYearly   = "yearly"

	LocationRelEnd = "end"

	LinkRelAlternate   = "alternate"
	LinkRelIcon        = "icon"
	LinkRelAttachment  = "attachment"
	LinkRelDescribedBy = "describedby"
	LinkRelEnclosure   = "enclosure"

	MethodPublish        = "publish"
	MethodRequest        = "request"
	MethodReply          = "reply"
	MethodAdd            = "add"
	MethodCancel         = "cancel"
	MethodRefresh        = "refresh"
	MethodCounter        = "counter"
	MethodDeclineCounter = "declineCounter"

	MIMETextPlain    = "text/plain"
	MIMETextHTML     = "text/html"
	MIMETextMarkdown = "text/markdown"

	PriorityMin = 0
	PriorityMax = 9

	RelationTypeParent  = "parent"
	RelationTypeChild   = "child"
	RelationTypeSibling = "sibling"
	RelationTypeNext    = "next"
	RelationTypePrior   = "prior"

	DayMonday    = "mo"
	DayTuesday   = "tu"
	DayWednesday = "we"
	DayThursday  = "th"
	DayFriday    = "fr"
	DaySaturday  = "sa"
	DaySunday    = "su"
)

// NewParticipant creates a participant with the minimal fields set.
func NewParticipant(name, email string) *Participant {
	p := &Participant{
		Roles: map[string]bool{"attendee": true},
	}
	if name != "" {
		p.Name = &name
	}
	if email != "" {
		p.Email = &email
		p.SendTo = map[string]string{"imip": "mailto:" + email}
	}
	return p
}

// NewLocation creates a location with just a name set.
func NewLocation(name string) *Location {
	return &Location{Name: &name}
}

// NewVirtualLocation creates a virtual location.
func NewVirtualLocation(name, uri string) *VirtualLocation {
	return &VirtualLocation{Name: &name, URI: uri}
}

// NewLink creates a link with just an href set.
func NewLink(href string) *Link {
	return &Link{Href: href}
}

// String returns a pointer to the given string value.
func String(s string) *string { return &s }

// Int returns a pointer to the given int value.
func Int(i int) *int { return &i }

// Bool returns a pointer to the given bool value.
func Bool(b bool) *bool { return &b }

// Time returns a pointer to the given time.Time value.
func Time(t time.Time) *time.Time { return &t }

// FormatDayOfWeek normalizes an RRULE weekday token ("MO", "Monday", …)
// into its lowercase JSCalendar form ("mo").
func FormatDayOfWeek(day string) string {
	switch strings.ToUpper(day) {
	case "MONDAY", "MO":
		return "mo"
	case "TUESDAY", "TU":
		return "tu"
	case "WEDNESDAY", "WE":
		return "we"
	case "THURSDAY", "TH":
		return "th"
	case "FRIDAY", "FR":
		return "fr"
	case "SATURDAY", "SA":
		return "sa"
	case "SUNDAY", "SU":
		return "su"
	default:
		return strings.ToLower(day)
	}
}

// ToICalWeekday converts a JSCalendar weekday code back to the RRULE
// two-letter token ("mo" -> "MO").
func ToICalWeekday(day string) string {
	return strings.ToUpper(day)
}

// ParseNDay parses an RRULE BYDAY value (e.g. "2MO", "-1FR") into NDay.
func ParseNDay(value string) (*NDay, error) {
	if len(value) < 2 {
		return nil, fmt.Errorf("invalid day value: %s", value)
	}

	dayPart := value
	var nthOfPeriod *int

	if len(value) > 2 {
		numPart := value[:len(value)-2]
		dayPart = value[len(value)-2:]

		if numPart != "" {
			var num int
			if _, err := fmt.Sscanf(numPart, "%d", &num); err == nil {
				nthOfPeriod = &num
			}
		}
	}

	return &NDay{
		Day:         FormatDayOfWeek(dayPart),
		NthOfPeriod: nthOfPeriod,
	}, nil
}
