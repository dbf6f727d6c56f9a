package ical

import (
	"sort"
	"strings"

	ics "github.com/arran4/golang-ical"
)

// X- parameter/property namespace persisted on round-trip (spec §6).
const (
	XParamID         = "X-JMAP-ID"
	XParamRole       = "X-JMAP-ROLE"
	XParamRSVPURI    = "X-JMAP-RSVP-URI"
	XParamLocationID = "X-JMAP-LOCATIONID"
	XParamLinkID     = "X-JMAP-LINKID"
	XParamSequence   = "X-JMAP-SEQUENCE"
	XParamDTStamp    = "X-JMAP-DTSTAMP"

	XParamTitle       = "X-JMAP-TITLE"
	XParamRel         = "X-JMAP-REL"
	XParamDescription = "X-JMAP-DESCRIPTION"
	XParamTZID        = "X-JMAP-TZID"
	XParamGeo         = "X-JMAP-GEO"
	XParamCid         = "X-JMAP-CID"
	XParamDisplay     = "X-JMAP-DISPLAY"

	// rscale/skip have no rrule-go representation; carried as
	// parameters on the RRULE property itself (spec §4.3).
	XParamRScale = "X-JMAP-RSCALE"
	XParamSkip   = "X-JMAP-SKIP"

	// Carried on DESCRIPTION; absent implies the spec default "text/plain".
	XParamContentType = "X-JMAP-CONTENTTYPE"
)

// Event-level X- properties (carried directly on VEVENT, one value each).
const (
	XPropColor  = "COLOR"
	XPropLocale = "X-JMAP-LOCALE"
)

// X- properties (not parameters).
const (
	XPropLocation         = "X-JMAP-LOCATION"
	XPropUseDefaultAlerts = "X-JMAP-USEDEFAULTALERTS"
)

// paramFirst returns the first value of the named parameter on prop,
// or "" if absent.
func paramFirst(prop *ics.IANAProperty, name string) string {
	if prop == nil || prop.ICalParameters == nil {
		return ""
	}
	if v, ok := prop.ICalParameters[name]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

// paramAll returns every value of the named parameter on prop.
func paramAll(prop *ics.IANAProperty, name string) []string {
	if prop == nil || prop.ICalParameters == nil {
		return nil
	}
	return prop.ICalParameters[name]
}

// setParam sets a single-value parameter, allocating params if nil.
func setParam(params map[string][]string, name, value string) map[string][]string {
	if params == nil {
		params = make(map[string][]string)
	}
	params[name] = []string{value}
	return params
}

// addParam appends a value to a (possibly multi-valued) parameter.
func addParam(params map[string][]string, name, value string) map[string][]string {
	if params == nil {
		params = make(map[string][]string)
	}
	params[name] = append(params[name], value)
	return params
}

// newProperty builds a raw property with an explicit token, value and
// parameter set, for cases the typed golang-ical setters don't cover
// (custom X- properties, properties needing full parameter control).
func newProperty(token, value string, params map[string][]string) ics.IANAProperty {
	return ics.IANAProperty{BaseProperty: ics.BaseProperty{
		IANAToken:      token,
		Value:          value,
		ICalParameters: params,
	}}
}

// canonicalProperty renders prop's token, sorted parameters, and value
// into a deterministic text form, approximating the iCal library's
// standard stringifier (spec §9 "SHA-1 identity fallback") for
// properties that carry no X-JMAP-ID.
func canonicalProperty(prop *ics.IANAProperty) string {
	if prop == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(prop.IANAToken)
	if len(prop.ICalParameters) > 0 {
		keys := make([]string, 0, len(prop.ICalParameters))
		for k := range prop.ICalParameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(";")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(strings.Join(prop.ICalParameters[k], ","))
		}
	}
	b.WriteString(":")
	b.WriteString(prop.Value)
	return b.String()
}

// purgeProperties returns props with every property whose token
// matches one of names (case-insensitive) removed. Each aspect writer
// purges its own properties before (re)writing them (spec §4.1).
func purgeProperties(props []ics.IANAProperty, names ...string) []ics.IANAProperty {
	remove := make(map[string]bool, len(names))
	for _, n := range names {
		remove[strings.ToUpper(n)] = true
	}
	out := props[:0]
	for _, p := range props {
		if !remove[strings.ToUpper(p.IANAToken)] {
			out = append(out, p)
		}
	}
	return out
}

// idOrHash returns the X-JMAP-ID carried on prop, or, if absent, the
// SHA-1 hash of canonical via the supplied hashing function. Kept as a
// thin helper so every aspect translator derives ids the same way
// (spec §3 "Identifiers", §9 "SHA-1 identity fallback").
func idOrHash(prop *ics.IANAProperty, canonical string, hash func(string) string) string {
	if id := paramFirst(prop, XParamID); id != "" {
		return id
	}
	return hash(canonical)
}
