package ical

import (
	"encoding/json"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
	"github.com/jmapio/jscal/internal/jsonpatch"
)

// findExceptionVEvents returns every VEVENT in cal sharing uid and
// carrying a RECURRENCE-ID (spec §4.4 Reading).
func findExceptionVEvents(cal *ics.Calendar, uid string) []*ics.VEvent {
	var out []*ics.VEvent
	if cal == nil {
		return out
	}
	for _, ve := range cal.Events() {
		if ve.Id() != uid {
			continue
		}
		if findProperty(ve, "RECURRENCE-ID") != nil {
			out = append(out, ve)
		}
	}
	return out
}

// readOverrides builds recurrenceOverrides from RDATE, EXDATE, and
// exception VEVENTs (spec §4.4 Reading).
func readOverrides(cal *ics.Calendar, vevent *ics.VEvent, master *jscal.Event, ctx *errctx.Context) map[string]map[string]interface{} {
	ctx.BeginProp("recurrenceOverrides")
	defer ctx.EndProp()

	overrides := make(map[string]map[string]interface{})

	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		switch strings.ToUpper(p.IANAToken) {
		case "RDATE":
			for _, v := range strings.Split(p.Value, ",") {
				key, patch, ok := readRDateValue(v, p)
				if !ok {
					continue
				}
				mergeOverride(overrides, key, patch)
			}
		case "EXDATE":
			for _, v := range strings.Split(p.Value, ",") {
				ex, ok := parseDateTimeProp(&ics.IANAProperty{BaseProperty: ics.BaseProperty{Value: v, ICalParameters: p.ICalParameters}})
				if !ok {
					continue
				}
				key := jscal.NewLocalDateTime(ex.t).String()
				mergeOverride(overrides, key, map[string]interface{}{"excluded": true})
			}
		}
	}

	masterJSON, err := stripRecurrenceKeys(master)
	if err != nil {
		return overrides
	}

	for _, exVEvent := range findExceptionVEvents(cal, vevent.Id()) {
		recurProp := findProperty(exVEvent, "RECURRENCE-ID")
		recur, ok := parseDateTimeProp(recurProp)
		if !ok {
			continue
		}
		key := jscal.NewLocalDateTime(recur.t).String()

		exEvent, err := ICalToJS(cal, exVEvent, master, nil, ctx)
		if err != nil {
			continue
		}
		exJSON, err := exEvent.JSON()
		if err != nil {
			continue
		}

		patchBytes, err := jsonpatch.CreatePatch(masterJSON, exJSON)
		if err != nil {
			ctx.InvalidProp(key)
			continue
		}
		patch, err := jsonpatch.Decode(patchBytes)
		if err != nil {
			continue
		}
		for _, f := range forbiddenOnException {
			delete(patch, f)
		}

		if startVal, ok := patch["start"]; ok {
			if s, ok := startVal.(string); ok && s == key {
				delete(patch, "start")
			}
		}
		if len(patch) == 0 {
			continue
		}
		overrides[key] = patch
	}

	if len(overrides) == 0 {
		return nil
	}
	return overrides
}

func mergeOverride(overrides map[string]map[string]interface{}, key string, patch map[string]interface{}) {
	if existing, ok := overrides[key]; ok {
		for k, v := range patch {
			existing[k] = v
		}
		return
	}
	overrides[key] = patch
}

// readRDateValue parses one RDATE value (possibly a PERIOD form
// "start/end" or "start/duration") into its recurrence-id key and
// override patch (spec §4.4 "convert period form to {duration}").
func readRDateValue(value string, prop *ics.IANAProperty) (string, map[string]interface{}, bool) {
	start, period, hasPeriod := strings.Cut(value, "/")
	startTime, ok := parseDateTimeProp(&ics.IANAProperty{BaseProperty: ics.BaseProperty{Value: start, ICalParameters: prop.ICalParameters}})
	if !ok {
		return "", nil, false
	}
	key := jscal.NewLocalDateTime(startTime.t).String()
	if !hasPeriod {
		return key, map[string]interface{}{}, true
	}
	var duration string
	if d, err := jscal.ParseISO8601Duration(period); err == nil {
		duration = jscal.FormatISO8601Duration(d)
	} else if endTime, ok := parseDateTimeProp(&ics.IANAProperty{BaseProperty: ics.BaseProperty{Value: period, ICalParameters: prop.ICalParameters}}); ok {
		duration = jscal.FormatISO8601Duration(endTime.t.Sub(startTime.t))
	} else {
		return key, map[string]interface{}{}, true
	}
	return key, map[string]interface{}{"duration": duration}, true
}

// writeOverrides purges RDATE/EXDATE, harvests any pre-existing
// exception VEVENTs sharing master's UID, and re-emits one RDATE,
// EXDATE, or exception VEVENT per override (spec §4.4 Writing).
func writeOverrides(cal *ics.Calendar, masterVEvent *ics.VEvent, event *jscal.Event, cfg *Config, ctx *errctx.Context) {
	ctx.BeginProp("recurrenceOverrides")
	defer ctx.EndProp()

	masterVEvent.Properties = purgeProperties(masterVEvent.Properties, "RDATE", "EXDATE")

	var rdateParams map[string][]string
	if event.IsAllDayEvent() {
		rdateParams = map[string][]string{"VALUE": {"DATE"}}
	} else if event.TimeZone != nil && *event.TimeZone != "" {
		rdateParams = map[string][]string{"TZID": {*event.TimeZone}}
	}
	rdateFormat := "20060102T150405"
	if event.IsAllDayEvent() {
		rdateFormat = "20060102"
	}

	cache := make(map[string]*ics.VEvent)
	for _, exVEvent := range findExceptionVEvents(cal, masterVEvent.Id()) {
		if recurProp := findProperty(exVEvent, "RECURRENCE-ID"); recurProp != nil {
			if recur, ok := parseDateTimeProp(recurProp); ok {
				cache[jscal.NewLocalDateTime(recur.t).String()] = exVEvent
			}
		}
	}

	masterJSON, err := stripRecurrenceKeys(event)
	if err != nil {
		ctx.InvalidProp()
		return
	}

	keys := make([]string, 0, len(event.RecurrenceOverrides))
	for k := range event.RecurrenceOverrides {
		keys = append(keys, k)
	}
	sortIDs(keys)

	for _, key := range keys {
		patch := event.RecurrenceOverrides[key]
		if jsonpatch.HasForbiddenKey(patch) {
			continue
		}

		if excluded, ok := patch["excluded"]; ok && len(patch) == 1 {
			if b, ok := excluded.(bool); ok && b {
				masterVEvent.Properties = append(masterVEvent.Properties, newProperty(
					"EXDATE", icalStamp(key, rdateFormat), rdateParams))
				continue
			}
		}

		if len(patch) == 0 {
			masterVEvent.Properties = append(masterVEvent.Properties, newProperty(
				"RDATE", icalStamp(key, rdateFormat), rdateParams))
			continue
		}

		if _, ok := patch["start"]; !ok {
			patch = cloneWithDefault(patch, "start", key)
		}

		patchBytes, err := jsonpatch.Encode(patch)
		if err != nil {
			ctx.InvalidProp(key)
			continue
		}
		exceptionJSON, err := jsonpatch.ApplyPatch(masterJSON, patchBytes)
		if err != nil {
			ctx.InvalidProp(key)
			continue
		}

		var exEvent jscal.Event
		if err := json.Unmarshal(exceptionJSON, &exEvent); err != nil {
			ctx.InvalidProp(key)
			continue
		}

		exVEvent, reused := cache[key]
		if !reused {
			exVEvent = ics.NewEvent(masterVEvent.Id())
			cal.AddVEvent(exVEvent)
		}
		exVEvent.Properties = purgeProperties(exVEvent.Properties, "RRULE", "RDATE", "EXDATE")
		JSToICal(cal, exVEvent, &exEvent, cfg, ctx)
		exVEvent.Properties = purgeProperties(exVEvent.Properties, "RECURRENCE-ID")
		exVEvent.Properties = append(exVEvent.Properties, newProperty("RECURRENCE-ID", icalStamp(key, rdateFormat), nil))
	}
}

func cloneWithDefault(patch map[string]interface{}, key, value string) map[string]interface{} {
	out := make(map[string]interface{}, len(patch)+1)
	for k, v := range patch {
		out[k] = v
	}
	out[key] = value
	return out
}

// stripRecurrenceKeys marshals event and removes its recurrenceRule/
// recurrenceOverrides keys, so neither side of the override diff/patch
// carries the master's own recurrence fields (spec §4.4 "strip
// recurrenceRule/recurrenceOverrides before diffing" — both the base
// used for CreatePatch and the base used for ApplyPatch must agree).
func stripRecurrenceKeys(event *jscal.Event) ([]byte, error) {
	data, err := event.JSON()
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	delete(raw, "recurrenceRule")
	delete(raw, "recurrenceOverrides")
	return json.Marshal(raw)
}

func icalStamp(localDateTime, format string) string {
	t, err := jscal.ParseLocalDateTime(localDateTime)
	if err != nil {
		return localDateTime
	}
	return t.Time().Format(format)
}
