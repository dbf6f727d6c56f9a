package ical

import (
	"sort"
	"strconv"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
)

var transpToFreeBusy = map[string]string{
	"TRANSPARENT": jscal.FreeBusyFree,
	"OPAQUE":      jscal.FreeBusyBusy,
}

var freeBusyToTransp = map[string]string{
	jscal.FreeBusyFree: "TRANSPARENT",
	jscal.FreeBusyBusy: "OPAQUE",
}

var classToPrivacy = map[string]string{
	"PUBLIC":       jscal.PrivacyPublic,
	"PRIVATE":      jscal.PrivacyPrivate,
	"CONFIDENTIAL": jscal.PrivacySecret,
}

var privacyToClass = map[string]string{
	jscal.PrivacyPublic:  "PUBLIC",
	jscal.PrivacyPrivate: "PRIVATE",
	jscal.PrivacySecret:  "CONFIDENTIAL",
}

// readCoreProps fills in the event-level scalar properties that have a
// direct one-to-one iCal counterpart (spec §3 Content/Identity).
func readCoreProps(vevent *ics.VEvent, event *jscal.Event, ctx *errctx.Context) {
	if p := vevent.GetProperty(ics.ComponentPropertySummary); p != nil {
		event.Title = jscal.String(unescapeText(p.Value))
	}
	if p := vevent.GetProperty(ics.ComponentPropertyDescription); p != nil {
		event.Description = jscal.String(unescapeText(p.Value))
		if ct := paramFirst(p, XParamContentType); ct != "" {
			event.DescriptionContentType = jscal.String(ct)
		}
	}
	if p := vevent.GetProperty(ics.ComponentPropertyCreated); p != nil {
		if t, ok := parseUTCStamp(p.Value); ok {
			event.Created = &t
		}
	}
	if p := vevent.GetProperty(ics.ComponentPropertyLastModified); p != nil {
		if t, ok := parseUTCStamp(p.Value); ok {
			event.Updated = &t
		}
	}
	if p := vevent.GetProperty(ics.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(p.Value); err == nil {
			event.Sequence = jscal.Int(n)
		}
	}
	if p := vevent.GetProperty(ics.ComponentPropertyStatus); p != nil {
		switch strings.ToUpper(p.Value) {
		case "CONFIRMED":
			event.Status = jscal.String(jscal.StatusConfirmed)
		case "TENTATIVE":
			event.Status = jscal.String(jscal.StatusTentative)
		case "CANCELLED":
			event.Status = jscal.String(jscal.StatusCancelled)
		default:
			ctx.BeginProp("status")
			ctx.InvalidProp()
			ctx.EndProp()
		}
	}
	if p := vevent.GetProperty(ics.ComponentPropertyTransp); p != nil {
		if fb, ok := transpToFreeBusy[strings.ToUpper(p.Value)]; ok {
			event.FreeBusyStatus = jscal.String(fb)
		}
	}
	if p := vevent.GetProperty(ics.ComponentPropertyClass); p != nil {
		if pr, ok := classToPrivacy[strings.ToUpper(p.Value)]; ok {
			event.Privacy = jscal.String(pr)
		}
	}
	if p := findProperty(vevent, "PRIORITY"); p != nil {
		if n, err := strconv.Atoi(p.Value); err == nil && n >= 0 && n <= 9 {
			event.Priority = jscal.Int(n)
		} else {
			ctx.BeginProp("priority")
			ctx.InvalidProp()
			ctx.EndProp()
		}
	}
	if p := findProperty(vevent, XPropColor); p != nil {
		event.Color = jscal.String(p.Value)
	}
	if p := findProperty(vevent, XPropLocale); p != nil {
		event.Locale = jscal.String(p.Value)
	}
	if p := vevent.GetProperty(ics.ComponentPropertyCategories); p != nil {
		for _, cat := range strings.Split(p.Value, ",") {
			cat = strings.TrimSpace(unescapeText(cat))
			if cat != "" {
				event.AddKeyword(cat)
			}
		}
	}

	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		if !strings.EqualFold(p.IANAToken, "RELATED-TO") || p.Value == "" {
			continue
		}
		if event.RelatedTo == nil {
			event.RelatedTo = make(map[string]*jscal.Relation)
		}
		rel := &jscal.Relation{Relation: map[string]bool{}}
		if reltype := paramFirst(p, "RELTYPE"); reltype != "" {
			rel.Relation[strings.ToLower(reltype)] = true
		}
		event.RelatedTo[p.Value] = rel
	}
}

// writeCoreProps purges and rewrites the event-level scalar properties
// (spec §4.1: "each aspect writer purges its own properties").
func writeCoreProps(event *jscal.Event, vevent *ics.VEvent, ctx *errctx.Context) {
	vevent.Properties = purgeProperties(vevent.Properties,
		"SUMMARY", "DESCRIPTION", "STATUS", "TRANSP", "CLASS", "PRIORITY",
		XPropColor, XPropLocale, "CATEGORIES", "RELATED-TO")

	if event.Title != nil {
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertySummary), escapeText(*event.Title), nil))
	}
	if event.Description != nil {
		var params map[string][]string
		if event.DescriptionContentType != nil && *event.DescriptionContentType != "text/plain" {
			params = setParam(params, XParamContentType, *event.DescriptionContentType)
		}
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyDescription), escapeText(*event.Description), params))
	}
	if event.Status != nil {
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyStatus), strings.ToUpper(*event.Status), nil))
	}
	if event.FreeBusyStatus != nil {
		if v, ok := freeBusyToTransp[*event.FreeBusyStatus]; ok {
			vevent.Properties = append(vevent.Properties, newProperty(
				string(ics.ComponentPropertyTransp), v, nil))
		}
	}
	if event.Privacy != nil {
		if v, ok := privacyToClass[*event.Privacy]; ok {
			vevent.Properties = append(vevent.Properties, newProperty(
				string(ics.ComponentPropertyClass), v, nil))
		}
	}
	if event.Priority != nil {
		if *event.Priority < 0 || *event.Priority > 9 {
			ctx.BeginProp("priority")
			ctx.InvalidProp()
			ctx.EndProp()
		} else {
			vevent.Properties = append(vevent.Properties, newProperty(
				"PRIORITY", strconv.Itoa(*event.Priority), nil))
		}
	}
	if event.Color != nil {
		vevent.Properties = append(vevent.Properties, newProperty(XPropColor, *event.Color, nil))
	}
	if event.Locale != nil {
		vevent.Properties = append(vevent.Properties, newProperty(XPropLocale, *event.Locale, nil))
	}
	if len(event.Keywords) > 0 {
		keywords := make([]string, 0, len(event.Keywords))
		for k := range event.Keywords {
			keywords = append(keywords, escapeText(k))
		}
		sort.Strings(keywords)
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyCategories), strings.Join(keywords, ","), nil))
	}

	relatedUIDs := make([]string, 0, len(event.RelatedTo))
	for uid := range event.RelatedTo {
		relatedUIDs = append(relatedUIDs, uid)
	}
	sort.Strings(relatedUIDs)
	for _, uid := range relatedUIDs {
		rel := event.RelatedTo[uid]
		tags := make([]string, 0, len(rel.Relation))
		for tag := range rel.Relation {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		var params map[string][]string
		if len(tags) > 0 {
			params = setParam(params, "RELTYPE", strings.ToUpper(tags[0]))
		}
		vevent.Properties = append(vevent.Properties, newProperty("RELATED-TO", uid, params))
	}
}

func findProperty(vevent *ics.VEvent, token string) *ics.IANAProperty {
	for i := range vevent.Properties {
		if strings.EqualFold(vevent.Properties[i].IANAToken, token) {
			return &vevent.Properties[i]
		}
	}
	return nil
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, "\n", `\n`)
	return r.Replace(s)
}

func unescapeText(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)
	return r.Replace(s)
}
