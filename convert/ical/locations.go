package ical

import (
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
	"github.com/jmapio/jscal/internal/idhash"
)

// readLocations fills locations/virtualLocations from LOCATION, GEO,
// X-APPLE-STRUCTURED-LOCATION, X-JMAP-LOCATION and CONFERENCE (spec
// §4.7 Reading). The DTEND-zone virtual location is populated by
// readTimeZone, not here.
func readLocations(vevent *ics.VEvent, event *jscal.Event, ctx *errctx.Context) {
	ctx.BeginProp("locations")
	defer ctx.EndProp()

	if p := vevent.GetProperty(ics.ComponentPropertyLocation); p != nil {
		readStructuredLocation(p, event, ctx)
	}
	if p := findProperty(vevent, "GEO"); p != nil {
		id := idOrHash(p, canonicalProperty(p), idhash.FromString)
		event.AddLocation(id, &jscal.Location{Coordinates: jscal.String("geo:" + p.Value)})
	}
	if p := findProperty(vevent, "X-APPLE-STRUCTURED-LOCATION"); p != nil {
		if strings.HasPrefix(p.Value, "geo:") {
			id := idOrHash(p, canonicalProperty(p), idhash.FromString)
			loc := &jscal.Location{Coordinates: jscal.String(p.Value)}
			if title := paramFirst(p, "X-TITLE"); title != "" {
				loc.Name = jscal.String(title)
			}
			event.AddLocation(id, loc)
		}
	}
	if p := findProperty(vevent, XPropLocation); p != nil {
		readStructuredLocation(p, event, ctx)
	}

	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		if !strings.EqualFold(p.IANAToken, "CONFERENCE") {
			continue
		}
		id := idOrHash(p, canonicalProperty(p), idhash.FromString)
		vloc := &jscal.VirtualLocation{URI: p.Value}
		if label := paramFirst(p, "LABEL"); label != "" {
			vloc.Name = jscal.String(label)
		}
		event.AddVirtualLocation(id, vloc)
	}
}

// readStructuredLocation handles both LOCATION and X-JMAP-LOCATION,
// which share the same parameter set (spec §4.7).
func readStructuredLocation(p *ics.IANAProperty, event *jscal.Event, ctx *errctx.Context) {
	if p.Value == "" {
		ctx.InvalidProp()
		return
	}
	id := idOrHash(p, canonicalProperty(p), idhash.FromString)
	loc := &jscal.Location{Name: jscal.String(unescapeText(p.Value))}
	if rel := paramFirst(p, XParamRel); rel != "" {
		loc.Rel = jscal.String(rel)
	}
	if desc := paramFirst(p, XParamDescription); desc != "" {
		loc.Description = jscal.String(desc)
	}
	if tz := paramFirst(p, XParamTZID); tz != "" {
		loc.TimeZone = jscal.String(tz)
	}
	if geo := paramFirst(p, XParamGeo); geo != "" {
		loc.Coordinates = jscal.String(geo)
	}
	if linkID := paramFirst(p, XParamLinkID); linkID != "" {
		loc.LinkIds = map[string]bool{linkID: true}
	}
	if altrep := paramFirst(p, "ALTREP"); altrep != "" {
		linkID := idhash.FromString(altrep)
		event.AddLink(linkID, &jscal.Link{Href: altrep, Rel: jscal.String(jscal.LinkRelAlternate)})
		if loc.LinkIds == nil {
			loc.LinkIds = make(map[string]bool)
		}
		loc.LinkIds[linkID] = true
	}
	event.AddLocation(id, loc)
}

// writeLocations purges and rewrites location/virtual-location
// properties (spec §4.7 Writing: "first location becomes LOCATION;
// subsequent locations become X-JMAP-LOCATION"; end-timezone locations
// are absorbed by the time/zone translator and skipped here).
func writeLocations(event *jscal.Event, vevent *ics.VEvent, ctx *errctx.Context) {
	ctx.BeginProp("locations")
	defer ctx.EndProp()

	vevent.Properties = purgeProperties(vevent.Properties,
		string(ics.ComponentPropertyLocation), XPropLocation, "GEO", "CONFERENCE")

	ids := make([]string, 0, len(event.Locations))
	for id, loc := range event.Locations {
		if loc.Rel != nil && *loc.Rel == jscal.LocationRelEnd && loc.TimeZone != nil {
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)

	for i, id := range ids {
		loc := event.Locations[id]
		if loc.Name == nil && loc.Coordinates == nil && loc.Description == nil && loc.TimeZone == nil {
			ctx.InvalidProp(id)
			continue
		}

		token := string(ics.ComponentPropertyLocation)
		if i > 0 {
			token = XPropLocation
		}

		value := ""
		if loc.Name != nil {
			value = escapeText(*loc.Name)
		}
		params := map[string][]string{XParamID: {id}}
		if loc.Rel != nil {
			params = setParam(params, XParamRel, *loc.Rel)
		}
		if loc.Description != nil {
			params = setParam(params, XParamDescription, *loc.Description)
		}
		if loc.TimeZone != nil {
			params = setParam(params, XParamTZID, *loc.TimeZone)
		}
		if loc.Coordinates != nil {
			params = setParam(params, XParamGeo, *loc.Coordinates)
		}
		for linkID := range loc.LinkIds {
			params = setParam(params, XParamLinkID, linkID)
		}
		vevent.Properties = append(vevent.Properties, newProperty(token, value, params))
	}

	vids := make([]string, 0, len(event.VirtualLocations))
	for id := range event.VirtualLocations {
		vids = append(vids, id)
	}
	sortIDs(vids)
	for _, id := range vids {
		vloc := event.VirtualLocations[id]
		var params map[string][]string
		if vloc.Name != nil {
			params = setParam(params, "LABEL", *vloc.Name)
		}
		vevent.Properties = append(vevent.Properties, newProperty("CONFERENCE", vloc.URI, params))
	}
}
