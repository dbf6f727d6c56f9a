package ical

import (
	"sort"
	"strconv"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
	"github.com/jmapio/jscal/internal/idhash"
)

const maxDelegationHops = 64

// normalizeURI lowercases the scheme only (spec §4.5 "URI normalization").
func normalizeURI(uri string) string {
	i := strings.Index(uri, ":")
	if i < 0 {
		return uri
	}
	return strings.ToLower(uri[:i]) + uri[i:]
}

// urisEqual implements spec §4.5's URI equality for index lookups:
// scheme case-insensitive, rest case-sensitive.
func urisEqual(a, b string) bool {
	return normalizeURI(a) == normalizeURI(b)
}

func uriScheme(uri string) string {
	if i := strings.Index(uri, ":"); i >= 0 {
		return strings.ToLower(uri[:i])
	}
	return ""
}

// readParticipants builds replyTo/participants from ORGANIZER/ATTENDEE
// (spec §4.5 Reading).
func readParticipants(vevent *ics.VEvent, event *jscal.Event, ctx *errctx.Context) {
	ctx.BeginProp("participants")
	defer ctx.EndProp()

	organizer := vevent.GetProperty(ics.ComponentPropertyOrganizer)
	var attendees []*ics.IANAProperty
	for i := range vevent.Properties {
		if strings.EqualFold(vevent.Properties[i].IANAToken, string(ics.ComponentPropertyAttendee)) {
			attendees = append(attendees, &vevent.Properties[i])
		}
	}
	if organizer == nil && len(attendees) == 0 {
		return
	}

	uriToID := make(map[string]string)
	assignID := func(prop *ics.IANAProperty, uri string) string {
		id := idOrHash(prop, canonicalProperty(prop), idhash.FromString)
		uriToID[normalizeURI(uri)] = id
		return id
	}

	organizerURI := ""
	if organizer != nil {
		organizerURI = organizer.Value
	}

	organizerIsAttendee := false
	for _, a := range attendees {
		assignID(a, a.Value)
		if organizer != nil && urisEqual(a.Value, organizerURI) {
			organizerIsAttendee = true
		}
	}
	if organizer != nil && !organizerIsAttendee {
		assignID(organizer, organizerURI)
	}

	participants := make(map[string]*jscal.Participant)
	replyTo := make(map[string]string)

	buildOne := func(prop *ics.IANAProperty, uri string, isOrganizerOnly bool) *jscal.Participant {
		p := &jscal.Participant{}

		sendTo := make(map[string]string)
		for _, rsvp := range paramAll(prop, XParamRSVPURI) {
			method, target, ok := strings.Cut(rsvp, ":")
			if !ok {
				sendTo["web"] = rsvp
				continue
			}
			sendTo[method] = target
		}
		haveURI := false
		for _, v := range sendTo {
			if urisEqual(v, uri) {
				haveURI = true
			}
		}
		if !haveURI {
			if uriScheme(uri) == "mailto" {
				sendTo["imip"] = uri
			} else {
				sendTo["other"] = uri
			}
		}
		p.SendTo = sendTo

		if email := paramFirst(prop, "EMAIL"); email != "" {
			p.Email = jscal.String(email)
		} else if imip, ok := sendTo["imip"]; ok {
			p.Email = jscal.String(strings.TrimPrefix(imip, "mailto:"))
		}
		if cn := paramFirst(prop, "CN"); cn != "" {
			p.Name = jscal.String(cn)
		}

		if cutype := paramFirst(prop, "CUTYPE"); cutype != "" {
			kind := strings.ToLower(cutype)
			if kind == "room" {
				kind = jscal.KindLocation
			}
			p.Kind = jscal.String(kind)
		}

		roles := make(map[string]bool)
		isChair := false
		switch strings.ToUpper(paramFirst(prop, "ROLE")) {
		case "REQ-PARTICIPANT", "":
			p.Attendance = jscal.String(jscal.AttendanceRequired)
		case "OPT-PARTICIPANT":
			p.Attendance = jscal.String(jscal.AttendanceOptional)
		case "NON-PARTICIPANT":
			p.Attendance = jscal.String(jscal.AttendanceNone)
		case "CHAIR":
			p.Attendance = jscal.String(jscal.AttendanceRequired)
			isChair = true
			roles["chair"] = true
		}
		for _, r := range paramAll(prop, XParamRole) {
			roles[strings.ToLower(r)] = true
		}
		if isChair {
			roles["chair"] = true
		}
		if organizer != nil && urisEqual(uri, organizerURI) {
			roles["owner"] = true
		} else if organizer != nil {
			roles["attendee"] = true
		}
		if len(roles) == 0 {
			roles["attendee"] = true
		}
		p.Roles = roles

		if status := followDelegationChain(prop, attendees); status != "none" {
			p.ParticipationStatus = jscal.String(status)
		}

		delegatedTo := make(map[string]bool)
		for _, d := range paramAll(prop, "DELEGATED-TO") {
			delegatedTo[resolveOrHash(d, uriToID)] = true
		}
		if len(delegatedTo) > 0 {
			p.DelegatedTo = delegatedTo
		}
		delegatedFrom := make(map[string]bool)
		for _, d := range paramAll(prop, "DELEGATED-FROM") {
			delegatedFrom[resolveOrHash(d, uriToID)] = true
		}
		if len(delegatedFrom) > 0 {
			p.DelegatedFrom = delegatedFrom
		}
		memberOf := make(map[string]bool)
		for _, m := range paramAll(prop, "MEMBER") {
			memberOf[resolveOrHash(m, uriToID)] = true
		}
		if len(memberOf) > 0 {
			p.MemberOf = memberOf
		}

		if seq := paramFirst(prop, XParamSequence); seq != "" {
			if n, err := strconv.Atoi(seq); err == nil {
				p.ScheduleSequence = jscal.Int(n)
			}
		}
		if ts := paramFirst(prop, XParamDTStamp); ts != "" {
			if t, ok := parseUTCStamp(ts); ok {
				p.ScheduleUpdated = &t
			}
		}

		if locID := paramFirst(prop, XParamLocationID); locID != "" {
			p.LocationId = jscal.String(locID)
		}
		if linkIDs := paramAll(prop, XParamLinkID); len(linkIDs) > 0 {
			p.LinkIds = make(map[string]bool, len(linkIDs))
			for _, id := range linkIDs {
				p.LinkIds[id] = true
			}
		}

		return p
	}

	for _, a := range attendees {
		id := uriToID[normalizeURI(a.Value)]
		participants[id] = buildOne(a, a.Value, false)
	}
	if organizer != nil && !organizerIsAttendee {
		id := uriToID[normalizeURI(organizerURI)]
		p := buildOne(organizer, organizerURI, true)
		p.Attendance = jscal.String(jscal.AttendanceRequired)
		p.Roles = map[string]bool{"owner": true}
		participants[id] = p
	}

	if organizer != nil {
		for _, rsvp := range paramAll(organizer, XParamRSVPURI) {
			method, target, ok := strings.Cut(rsvp, ":")
			if ok {
				replyTo[method] = target
			}
		}
		if len(replyTo) == 0 {
			if uriScheme(organizerURI) == "mailto" {
				replyTo["imip"] = organizerURI
			} else {
				replyTo["other"] = organizerURI
			}
		}
	}

	if len(participants) > 0 {
		event.Participants = participants
	}
	if len(replyTo) > 0 {
		event.ReplyTo = replyTo
	}
}

// followDelegationChain walks DELEGATED-TO starting at prop, capped at
// maxDelegationHops to guard against cycles (spec §4.5, §8 "64-hop
// delegation cutoff").
func followDelegationChain(prop *ics.IANAProperty, attendees []*ics.IANAProperty) string {
	byURI := make(map[string]*ics.IANAProperty, len(attendees))
	for _, a := range attendees {
		byURI[normalizeURI(a.Value)] = a
	}

	current := prop
	visited := make(map[string]bool)
	for hop := 0; hop < maxDelegationHops; hop++ {
		status := strings.ToUpper(paramFirst(current, "PARTSTAT"))
		if status != "DELEGATED" {
			return mapPartStat(status)
		}
		targets := paramAll(current, "DELEGATED-TO")
		if len(targets) == 0 {
			return mapPartStat(status)
		}
		key := normalizeURI(targets[0])
		if visited[key] {
			return "none"
		}
		visited[key] = true
		next, ok := byURI[key]
		if !ok {
			return "none"
		}
		current = next
	}
	return "none"
}

func mapPartStat(status string) string {
	switch status {
	case "ACCEPTED":
		return jscal.ParticipationAccepted
	case "DECLINED":
		return jscal.ParticipationDeclined
	case "TENTATIVE":
		return jscal.ParticipationTentative
	case "NEEDS-ACTION", "":
		return jscal.ParticipationNeedsAction
	default:
		return jscal.ParticipationNeedsAction
	}
}

func resolveOrHash(uri string, uriToID map[string]string) string {
	if id, ok := uriToID[normalizeURI(uri)]; ok {
		return id
	}
	return idhash.FromString(uri)
}

// pickCalAddress chooses the CAL-ADDRESS to write for a participant
// (spec §4.5 Writing: "pre-assign a CAL-ADDRESS ... from sendTo.imip,
// then sendTo.other, then first entry of sendTo, then mailto:+email").
func pickCalAddress(p *jscal.Participant) string {
	if v, ok := p.SendTo["imip"]; ok {
		return v
	}
	if v, ok := p.SendTo["other"]; ok {
		return v
	}
	for _, v := range p.SendTo {
		return v
	}
	if p.Email != nil {
		return "mailto:" + *p.Email
	}
	return ""
}

// pickReplyToAddress chooses the ORGANIZER URI from replyTo (spec §4.5
// Writing: "preferring imip, then other, then first").
func pickReplyToAddress(replyTo map[string]string) string {
	if v, ok := replyTo["imip"]; ok {
		return v
	}
	if v, ok := replyTo["other"]; ok {
		return v
	}
	for _, v := range replyTo {
		return v
	}
	return ""
}

// participantEquals implements the organizer-collapse equality relation
// (spec §7): normalize sendTo, strip default-valued keys, and compare
// the residual JSON structurally, with sendTo compared by URI-equality
// per method.
func participantEquals(a, b *jscal.Participant) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !stringEq(a.Name, b.Name, "") {
		return false
	}
	if !stringEq(a.Kind, b.Kind, "") {
		return false
	}
	if strDefault(a.Attendance, jscal.AttendanceRequired) != strDefault(b.Attendance, jscal.AttendanceRequired) {
		return false
	}
	if strDefault(a.ParticipationStatus, jscal.ParticipationNeedsAction) != strDefault(b.ParticipationStatus, jscal.ParticipationNeedsAction) {
		return false
	}
	if boolDefault(a.ExpectReply, false) != boolDefault(b.ExpectReply, false) {
		return false
	}
	if intDefault(a.ScheduleSequence, 0) != intDefault(b.ScheduleSequence, 0) {
		return false
	}
	if !roleSetsEqual(a.Roles, b.Roles) {
		return false
	}
	normSendTo := func(p *jscal.Participant) map[string]string {
		if len(p.SendTo) == 0 && p.Email != nil {
			return map[string]string{"imip": "mailto:" + *p.Email}
		}
		return p.SendTo
	}
	return sendToEquivalent(normSendTo(a), normSendTo(b))
}

func stringEq(a, b *string, zero string) bool {
	return strDefault(a, zero) == strDefault(b, zero)
}

func strDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func boolDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func intDefault(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}

func roleSetsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func sendToEquivalent(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for method, uriA := range a {
		uriB, ok := b[method]
		if !ok || !urisEqual(uriA, uriB) {
			return false
		}
	}
	return true
}

// writeParticipants emits ORGANIZER and ATTENDEE properties from
// replyTo/participants (spec §4.5 Writing).
func writeParticipants(event *jscal.Event, vevent *ics.VEvent, cfg *Config, ctx *errctx.Context) {
	ctx.BeginProp("participants")
	defer ctx.EndProp()

	vevent.Properties = purgeProperties(vevent.Properties, "ORGANIZER", "ATTENDEE")
	if len(event.ReplyTo) == 0 && len(event.Participants) == 0 {
		return
	}

	organizerURI := pickReplyToAddress(event.ReplyTo)
	if organizerURI == "" && cfg != nil {
		organizerURI = cfg.CalendarUserAddress
	}

	var organizerParams map[string][]string
	for method, uri := range event.ReplyTo {
		if urisEqual(uri, organizerURI) && method == "imip" {
			continue
		}
		organizerParams = addParam(organizerParams, XParamRSVPURI, method+":"+uri)
	}

	var organizerParticipant *jscal.Participant
	for _, p := range event.Participants {
		if p.Roles["owner"] {
			organizerParticipant = p
			break
		}
	}
	if organizerParticipant != nil {
		if organizerParticipant.Name != nil {
			organizerParams = setParam(organizerParams, "CN", *organizerParticipant.Name)
		}
	}

	if organizerURI != "" {
		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyOrganizer), organizerURI, organizerParams))
	}

	ids := make([]string, 0, len(event.Participants))
	for id := range event.Participants {
		ids = append(ids, id)
	}
	sortIDs(ids)

	for _, id := range ids {
		p := event.Participants[id]
		uri := pickCalAddress(p)
		if uri == "" {
			ctx.InvalidProp(id)
			continue
		}

		if p.Roles["owner"] && uri != "" && urisEqual(uri, organizerURI) {
			roundTripped := roundTripOrganizerParticipant(organizerParams, organizerURI)
			if participantEquals(roundTripped, p) {
				continue
			}
		}

		params := map[string][]string{XParamID: {id}}
		if p.Name != nil {
			params = setParam(params, "CN", *p.Name)
		}
		if p.Email != nil {
			params = setParam(params, "EMAIL", *p.Email)
		}
		if p.Kind != nil {
			cutype := strings.ToUpper(*p.Kind)
			if *p.Kind == jscal.KindLocation {
				cutype = "ROOM"
			}
			params = setParam(params, "CUTYPE", cutype)
		}
		if p.Roles["chair"] {
			params = setParam(params, "ROLE", "CHAIR")
		} else {
			switch strDefault(p.Attendance, jscal.AttendanceRequired) {
			case jscal.AttendanceOptional:
				params = setParam(params, "ROLE", "OPT-PARTICIPANT")
			case jscal.AttendanceNone:
				params = setParam(params, "ROLE", "NON-PARTICIPANT")
			default:
				params = setParam(params, "ROLE", "REQ-PARTICIPANT")
			}
		}
		for r := range p.Roles {
			if r == "chair" || r == "owner" || r == "attendee" {
				continue
			}
			params = addParam(params, XParamRole, r)
		}
		params = setParam(params, "PARTSTAT", strings.ToUpper(strDefault(p.ParticipationStatus, jscal.ParticipationNeedsAction)))
		for method, v := range p.SendTo {
			params = addParam(params, XParamRSVPURI, method+":"+v)
		}
		if p.ScheduleSequence != nil {
			params = setParam(params, XParamSequence, strconv.Itoa(*p.ScheduleSequence))
		}
		if p.ScheduleUpdated != nil {
			params = setParam(params, XParamDTStamp, p.ScheduleUpdated.UTC().Format("20060102T150405Z"))
		}
		if p.LocationId != nil {
			params = setParam(params, XParamLocationID, *p.LocationId)
		}
		for linkID := range p.LinkIds {
			params = addParam(params, XParamLinkID, linkID)
		}

		vevent.Properties = append(vevent.Properties, newProperty(
			string(ics.ComponentPropertyAttendee), uri, params))
	}
}

// roundTripOrganizerParticipant rebuilds the participant an ATTENDEE
// derived from the ORGANIZER property alone would read back as, to
// decide whether an explicit ATTENDEE can be omitted (spec §4.5
// "Exception").
func roundTripOrganizerParticipant(organizerParams map[string][]string, organizerURI string) *jscal.Participant {
	synthetic := newProperty(string(ics.ComponentPropertyOrganizer), organizerURI, organizerParams)
	p := &jscal.Participant{
		Attendance: jscal.String(jscal.AttendanceRequired),
		Roles:      map[string]bool{"owner": true},
	}
	sendTo := make(map[string]string)
	for _, rsvp := range paramAll(&synthetic, XParamRSVPURI) {
		method, target, ok := strings.Cut(rsvp, ":")
		if ok {
			sendTo[method] = target
		}
	}
	if _, ok := sendTo["imip"]; !ok && uriScheme(organizerURI) == "mailto" {
		sendTo["imip"] = organizerURI
	}
	p.SendTo = sendTo
	if cn := paramFirst(&synthetic, "CN"); cn != "" {
		p.Name = jscal.String(cn)
	}
	return p
}

func sortIDs(ids []string) { sort.Strings(ids) }
