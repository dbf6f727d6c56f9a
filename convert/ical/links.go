package ical

import (
	"strconv"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
	"github.com/jmapio/jscal/internal/idhash"
)

// readLinks fills links from ATTACH and URL (spec §4.8 Reading).
func readLinks(vevent *ics.VEvent, event *jscal.Event, ctx *errctx.Context) {
	ctx.BeginProp("links")
	defer ctx.EndProp()

	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		if !strings.EqualFold(p.IANAToken, "ATTACH") {
			continue
		}
		if strings.EqualFold(paramFirst(p, "VALUE"), "BINARY") {
			continue
		}
		addLinkFromProperty(p, event, nil)
	}

	if p := vevent.GetProperty(ics.ComponentPropertyUrl); p != nil {
		addLinkFromProperty(p, event, jscal.String(jscal.LinkRelDescribedBy))
	}
}

func addLinkFromProperty(p *ics.IANAProperty, event *jscal.Event, defaultRel *string) {
	id := idOrHash(p, canonicalProperty(p), idhash.FromString)
	link := &jscal.Link{Href: p.Value}
	if rel := paramFirst(p, XParamRel); rel != "" {
		link.Rel = jscal.String(rel)
	} else {
		link.Rel = defaultRel
	}
	if fmttype := paramFirst(p, "FMTTYPE"); fmttype != "" {
		link.Type = jscal.String(fmttype)
	}
	if size := paramFirst(p, "SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			link.Size = jscal.Int(n)
		}
	}
	if title := paramFirst(p, XParamTitle); title != "" {
		link.Title = jscal.String(title)
	}
	if cid := paramFirst(p, XParamCid); cid != "" {
		link.Cid = jscal.String(cid)
	}
	if display := paramFirst(p, XParamDisplay); display != "" {
		link.Display = jscal.String(display)
	}
	event.AddLink(id, link)
}

// writeLinks purges ATTACH/URL and rewrites them from links (spec §4.8
// Writing: a single describedby link with no other fields collapses to
// a bare URL property).
func writeLinks(event *jscal.Event, vevent *ics.VEvent, ctx *errctx.Context) {
	ctx.BeginProp("links")
	defer ctx.EndProp()

	vevent.Properties = purgeProperties(vevent.Properties, "ATTACH", string(ics.ComponentPropertyUrl))
	if len(event.Links) == 0 {
		return
	}

	ids := make([]string, 0, len(event.Links))
	for id := range event.Links {
		ids = append(ids, id)
	}
	sortIDs(ids)

	wroteURL := false
	for _, id := range ids {
		link := event.Links[id]
		if link.Href == "" {
			ctx.InvalidProp(id)
			continue
		}

		isBareDescribedBy := !wroteURL && len(ids) == 1 &&
			(link.Rel == nil || *link.Rel == jscal.LinkRelDescribedBy) &&
			link.Type == nil && link.Title == nil && link.Cid == nil && link.Display == nil && link.Size == nil

		token := "ATTACH"
		var params map[string][]string
		if isBareDescribedBy {
			token = string(ics.ComponentPropertyUrl)
			wroteURL = true
		} else {
			params = setParam(params, XParamID, id)
			if link.Rel != nil {
				params = setParam(params, XParamRel, *link.Rel)
			}
			if link.Type != nil {
				params = setParam(params, "FMTTYPE", *link.Type)
			}
			if link.Size != nil {
				params = setParam(params, "SIZE", strconv.Itoa(*link.Size))
			}
			if link.Title != nil {
				params = setParam(params, XParamTitle, *link.Title)
			}
			if link.Cid != nil {
				params = setParam(params, XParamCid, *link.Cid)
			}
			if link.Display != nil {
				params = setParam(params, XParamDisplay, *link.Display)
			}
		}
		vevent.Properties = append(vevent.Properties, newProperty(token, link.Href, params))
	}
}
