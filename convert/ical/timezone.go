package ical

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
	"github.com/jmapio/jscal/internal/idhash"
	"github.com/jmapio/jscal/internal/tzutil"
)

// icalTime is a decoded DTSTART/DTEND-shaped value.
type icalTime struct {
	t      time.Time // wall-clock components, zone-naive
	tzid   string     // "" = floating, "UTC" = UTC singleton, else Olson TZID
	allDay bool
}

func parseDateTimeProp(prop *ics.IANAProperty) (icalTime, bool) {
	if prop == nil {
		return icalTime{}, false
	}
	value := prop.Value
	allDay := strings.EqualFold(paramFirst(prop, "VALUE"), "DATE")
	tzid := paramFirst(prop, "TZID")

	if strings.HasSuffix(value, "Z") {
		value = value[:len(value)-1]
		tzid = "UTC"
	}

	layout := "20060102T150405"
	if allDay {
		layout = "20060102"
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return icalTime{}, false
	}
	return icalTime{t: t, tzid: tzid, allDay: allDay}, true
}

func zonesEqual(a, b *string) bool {
	an, bn := "", ""
	if a != nil {
		an = *a
	}
	if b != nil {
		bn = *b
	}
	if tzutil.IsUTC(an) && tzutil.IsUTC(bn) {
		return true
	}
	return an == bn
}

// readTimeZone populates Start/TimeZone/IsAllDay/Duration and, when
// DTEND has a differing zone, an end-timezone location (spec §4.2
// Reading).
func readTimeZone(vevent *ics.VEvent, event *jscal.Event, ctx *errctx.Context) {
	ctx.BeginProp("start")
	defer ctx.EndProp()

	dtstartProp := vevent.GetProperty(ics.ComponentPropertyDtStart)
	if dtstartProp == nil {
		return
	}
	start, ok := parseDateTimeProp(dtstartProp)
	if !ok {
		ctx.InvalidProp()
		return
	}

	event.Start = jscal.NewLocalDateTime(start.t)
	if start.allDay {
		event.IsAllDay = jscal.Bool(true)
		event.TimeZone = nil
	} else if start.tzid != "" {
		tz := start.tzid
		event.TimeZone = &tz
	}

	zero := jscal.FormatISO8601Duration(0)
	event.Duration = &zero

	if dtendProp := vevent.GetProperty(ics.ComponentPropertyDtEnd); dtendProp != nil {
		end, ok := parseDateTimeProp(dtendProp)
		if ok {
			d := end.t.Sub(start.t)
			if d > 0 {
				s := jscal.FormatISO8601Duration(d)
				event.Duration = &s
			}
			if !start.allDay && end.tzid != "" && !zonesEqual(&start.tzid, &end.tzid) {
				id := idOrHash(dtendProp, canonicalProperty(dtendProp), idhash.FromString)
				if event.Locations == nil {
					event.Locations = make(map[string]*jscal.Location)
				}
				endTZ := end.tzid
				event.Locations[id] = &jscal.Location{
					Rel:      jscal.String(jscal.LocationRelEnd),
					TimeZone: &endTZ,
				}
			}
		}
	} else if durProp := vevent.GetProperty(ics.ComponentPropertyDuration); durProp != nil {
		if d, err := jscal.ParseISO8601Duration(durProp.Value); err == nil && d > 0 {
			s := jscal.FormatISO8601Duration(d)
			event.Duration = &s
		}
	}

	if event.IsAllDayEvent() {
		if d, err := event.GetDuration(); err == nil && d%(24*time.Hour) != 0 {
			ctx.InvalidProp("duration")
		}
	}
}

// endLocation returns the id/location pair marking a differing DTEND
// zone, if the event has one (spec §4.7 "first location... end-
// timezone locations are not emitted as location properties").
func endLocation(event *jscal.Event) (id string, loc *jscal.Location) {
	for locID, l := range event.Locations {
		if l.Rel != nil && *l.Rel == jscal.LocationRelEnd && l.TimeZone != nil {
			return locID, l
		}
	}
	return "", nil
}

// writeTimeZone populates DTSTART/DTEND/DURATION on vevent from event
// (spec §4.2 Writing). All-day constraint violations and TZIDs that
// fail to load are recorded as property errors but do not block the
// write.
func writeTimeZone(event *jscal.Event, vevent *ics.VEvent, ctx *errctx.Context) {
	ctx.BeginProp("start")
	defer ctx.EndProp()

	vevent.Properties = purgeProperties(vevent.Properties, "DTSTART", "DTEND", "DURATION")

	if event.Start == nil {
		return
	}
	startTime := event.Start.Time()
	allDay := event.IsAllDayEvent()

	if allDay {
		if startTime.Hour() != 0 || startTime.Minute() != 0 || startTime.Second() != 0 {
			ctx.InvalidProp()
		}
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyDtStart), startTime.Format("20060102"),
			map[string][]string{"VALUE": {"DATE"}}))
	} else if event.TimeZone != nil && *event.TimeZone != "" {
		if _, err := tzutil.Load(*event.TimeZone); err != nil {
			ctx.InvalidProp()
		}
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyDtStart), startTime.Format("20060102T150405"),
			map[string][]string{"TZID": {*event.TimeZone}}))
	} else {
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyDtStart), startTime.Format("20060102T150405"), nil))
	}

	duration, err := event.GetDuration()
	if err != nil {
		duration = 0
	}
	if allDay && duration%(24*time.Hour) != 0 {
		ctx.InvalidProp("duration")
	}

	endID, endLoc := endLocation(event)
	endZone := event.TimeZone
	if endLoc != nil {
		endZone = endLoc.TimeZone
	}

	if allDay || zonesEqual(event.TimeZone, endZone) {
		if duration > 0 {
			vevent.Properties = append(vevent.Properties, newProperty("DURATION", jscal.FormatISO8601Duration(duration), nil))
		}
		return
	}

	endTime := startTime.Add(duration)
	var params map[string][]string
	if endZone != nil && *endZone != "" {
		params = setParam(params, "TZID", *endZone)
	}
	if endID != "" {
		params = setParam(params, XParamID, endID)
	}
	vevent.Properties = append(vevent.Properties, newProperty(
		string(ics.ComponentPropertyDtEnd), endTime.Format("20060102T150405"), params))
}
