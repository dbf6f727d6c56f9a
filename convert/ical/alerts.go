package ical

import (
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
	"github.com/jmapio/jscal/internal/idhash"
)

// alarmComponents extracts every VALARM nested under vevent. VALARM is
// the only RFC 5545 subcomponent VEVENT carries, stored the same way
// VCALENDAR stores its own children (arran4/golang-ical's Calendar
// exposes an exported Components []Component field; VEvent mirrors
// that shape via the shared ComponentBase).
func alarmComponents(vevent *ics.VEvent) []*ics.VAlarm {
	var alarms []*ics.VAlarm
	for _, c := range vevent.Components {
		if a, ok := c.(*ics.VAlarm); ok {
			alarms = append(alarms, a)
		}
	}
	return alarms
}

func alarmProperty(a *ics.VAlarm, token ics.ComponentProperty) *ics.IANAProperty {
	for i := range a.Properties {
		if strings.EqualFold(a.Properties[i].IANAToken, string(token)) {
			return &a.Properties[i]
		}
	}
	return nil
}

// readAlerts translates VALARM/SNOOZE pairs into Alerts (spec §4.6
// Reading).
func readAlerts(vevent *ics.VEvent, event *jscal.Event, ctx *errctx.Context) {
	ctx.BeginProp("alerts")
	defer ctx.EndProp()

	alarms := alarmComponents(vevent)
	if len(alarms) == 0 {
		return
	}

	snoozeByTarget := make(map[string]*ics.VAlarm)
	var regular []*ics.VAlarm
	for _, a := range alarms {
		action := alarmProperty(a, "ACTION")
		if action != nil && strings.EqualFold(action.Value, "NONE") {
			continue
		}
		if rel := alarmProperty(a, "RELATED-TO"); rel != nil && strings.EqualFold(paramFirst(rel, "RELTYPE"), "SNOOZE") && rel.Value != "" {
			snoozeByTarget[rel.Value] = a
			continue
		}
		regular = append(regular, a)
	}

	dtstart, _ := parseDateTimeProp(vevent.GetProperty(ics.ComponentPropertyDtStart))
	dtend, haveEnd := parseDateTimeProp(vevent.GetProperty(ics.ComponentPropertyDtEnd))

	alerts := make(map[string]*jscal.Alert)
	for _, a := range regular {
		alert := &jscal.Alert{}

		action := alarmProperty(a, "ACTION")
		if action != nil && strings.EqualFold(action.Value, "EMAIL") {
			alert.Action = jscal.String(jscal.AlertActionEmail)
		} else {
			alert.Action = jscal.String(jscal.AlertActionDisplay)
		}

		trigger := alarmProperty(a, "TRIGGER")
		related := strings.ToUpper(paramFirst(trigger, "RELATED"))
		if related == "" {
			related = "START"
		}

		if trigger != nil {
			if d, err := jscal.ParseISO8601Duration(trigger.Value); err == nil {
				offset := d
				before := offset < 0
				if before {
					offset = -offset
				}
				alert.Offset = jscal.FormatISO8601Duration(offset)
				alert.RelativeTo = jscal.String(relativeToFor(related, before))
			} else if t, ok := parseDateTimeProp(trigger); ok {
				anchor := dtstart.t
				if related == "END" && haveEnd {
					anchor = dtend.t
				}
				d := anchor.Sub(t.t)
				before := d > 0
				if d < 0 {
					d = -d
				}
				alert.Offset = jscal.FormatISO8601Duration(d)
				alert.RelativeTo = jscal.String(relativeToFor(related, before))
			}
		}

		if ack := alarmProperty(a, "ACKNOWLEDGED"); ack != nil {
			if t, ok := parseUTCStamp(ack.Value); ok {
				alert.Acknowledged = &t
			}
		}

		uid := alarmProperty(a, "UID")
		var id string
		if uid != nil && uid.Value != "" {
			id = uid.Value
		} else if trigger != nil {
			id = idhash.FromString(canonicalProperty(trigger))
		}
		if uid != nil {
			if snooze, ok := snoozeByTarget[uid.Value]; ok {
				if snoozeTrigger := alarmProperty(snooze, "TRIGGER"); snoozeTrigger != nil {
					if t, ok := parseDateTimeProp(snoozeTrigger); ok {
						alert.Snoozed = &t.t
					}
				}
			}
		}
		if id == "" {
			continue
		}
		alerts[id] = alert
	}

	if len(alerts) > 0 {
		event.Alerts = alerts
	}
	if p := findProperty(vevent, XPropUseDefaultAlerts); p != nil {
		event.UseDefaultAlerts = jscal.Bool(strings.EqualFold(p.Value, "TRUE"))
	}
}

func relativeToFor(related string, before bool) string {
	if related == "END" {
		if before {
			return jscal.RelativeToBeforeEnd
		}
		return jscal.RelativeToAfterEnd
	}
	if before {
		return jscal.RelativeToBeforeStart
	}
	return jscal.RelativeToAfterStart
}

// writeAlerts purges existing VALARMs and emits one VALARM per alert
// (plus a SNOOZE sibling where needed) (spec §4.6 Writing).
func writeAlerts(event *jscal.Event, vevent *ics.VEvent, cfg *Config, ctx *errctx.Context) {
	ctx.BeginProp("alerts")
	defer ctx.EndProp()

	kept := vevent.Components[:0]
	for _, c := range vevent.Components {
		if _, ok := c.(*ics.VAlarm); !ok {
			kept = append(kept, c)
		}
	}
	vevent.Components = kept

	vevent.Properties = purgeProperties(vevent.Properties, XPropUseDefaultAlerts)
	if event.UseDefaultAlerts != nil {
		vevent.Properties = append(vevent.Properties, newProperty(
			XPropUseDefaultAlerts, strings.ToUpper(strconvBool(*event.UseDefaultAlerts)), nil))
	}

	ids := make([]string, 0, len(event.Alerts))
	for id := range event.Alerts {
		ids = append(ids, id)
	}
	sortIDs(ids)

	for _, id := range ids {
		alert := event.Alerts[id]
		if alert.Offset == "" {
			ctx.InvalidProp(id)
			continue
		}
		d, err := jscal.ParseISO8601Duration(alert.Offset)
		if err != nil {
			ctx.InvalidProp(id)
			continue
		}

		related := "START"
		sign := ""
		switch strDefault(alert.RelativeTo, jscal.RelativeToBeforeStart) {
		case jscal.RelativeToBeforeStart:
			sign = "-"
		case jscal.RelativeToAfterStart:
			sign = ""
		case jscal.RelativeToBeforeEnd:
			related = "END"
			sign = "-"
		case jscal.RelativeToAfterEnd:
			related = "END"
		}
		triggerValue := jscal.FormatISO8601Duration(d)
		if sign == "-" {
			triggerValue = "-" + triggerValue
		}

		va := &ics.VAlarm{ComponentBase: ics.ComponentBase{Properties: []ics.IANAProperty{
			newProperty("UID", id, nil),
			newProperty("TRIGGER", triggerValue, map[string][]string{"RELATED": {related}}),
		}}}

		action := "DISPLAY"
		if alert.Action != nil && *alert.Action == jscal.AlertActionEmail {
			action = "EMAIL"
		}
		va.Properties = append(va.Properties, newProperty("ACTION", action, nil))

		description := "Your event alert"
		if event.Title != nil {
			description = *event.Title
		}
		va.Properties = append(va.Properties, newProperty("DESCRIPTION", description, nil))

		if action == "EMAIL" {
			summary := "Your event alert"
			if event.Title != nil {
				summary = *event.Title
			}
			va.Properties = append(va.Properties, newProperty("SUMMARY", summary, nil))
			if cfg != nil && cfg.CalendarUserAddress != "" {
				va.Properties = append(va.Properties, newProperty("ATTENDEE", cfg.CalendarUserAddress, nil))
			}
		}

		if alert.Acknowledged != nil {
			va.Properties = append(va.Properties, newProperty(
				"ACKNOWLEDGED", alert.Acknowledged.UTC().Format("20060102T150405Z"), nil))
		}

		vevent.Components = append(vevent.Components, va)

		if alert.Snoozed != nil {
			snooze := &ics.VAlarm{ComponentBase: ics.ComponentBase{Properties: []ics.IANAProperty{
				newProperty("ACTION", action, nil),
				newProperty("TRIGGER", alert.Snoozed.UTC().Format("20060102T150405Z"), map[string][]string{"VALUE": {"DATE-TIME"}}),
				newProperty("RELATED-TO", id, map[string][]string{"RELTYPE": {"SNOOZE"}}),
			}}}
			vevent.Components = append(vevent.Components, snooze)
		}
	}
}

func strconvBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
