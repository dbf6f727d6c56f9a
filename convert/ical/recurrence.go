package ical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
)

// freqToRRule/freqFromRRule translate between the spec's lowercase
// frequency strings and rrule-go's Frequency enum (spec §4.3).
var freqToRRule = map[string]rrule.Frequency{
	jscal.FrequencySecondly: rrule.SECONDLY,
	jscal.FrequencyMinutely: rrule.MINUTELY,
	jscal.FrequencyHourly:   rrule.HOURLY,
	jscal.FrequencyDaily:    rrule.DAILY,
	jscal.FrequencyWeekly:   rrule.WEEKLY,
	jscal.FrequencyMonthly:  rrule.MONTHLY,
	jscal.FrequencyYearly:   rrule.YEARLY,
}

var freqFromRRule = map[rrule.Frequency]string{
	rrule.SECONDLY: jscal.FrequencySecondly,
	rrule.MINUTELY: jscal.FrequencyMinutely,
	rrule.HOURLY:   jscal.FrequencyHourly,
	rrule.DAILY:    jscal.FrequencyDaily,
	rrule.WEEKLY:   jscal.FrequencyWeekly,
	rrule.MONTHLY:  jscal.FrequencyMonthly,
	rrule.YEARLY:   jscal.FrequencyYearly,
}

var weekdayByCode = map[string]rrule.Weekday{
	"mo": rrule.MO,
	"tu": rrule.TU,
	"we": rrule.WE,
	"th": rrule.TH,
	"fr": rrule.FR,
	"sa": rrule.SA,
	"su": rrule.SU,
}

var codeByWeekdayIndex = []string{"mo", "tu", "we", "th", "fr", "sa", "su"}

func weekdayFromNDay(d jscal.NDay) (rrule.Weekday, bool) {
	base, ok := weekdayByCode[d.Day]
	if !ok {
		return rrule.Weekday{}, false
	}
	if d.NthOfPeriod != nil && *d.NthOfPeriod != 0 {
		return base.Nth(*d.NthOfPeriod), true
	}
	return base, true
}

func ndayFromWeekday(w rrule.Weekday) jscal.NDay {
	day := "mo"
	if idx := w.Day(); idx >= 0 && idx < len(codeByWeekdayIndex) {
		day = codeByWeekdayIndex[idx]
	}
	nday := jscal.NDay{Day: day}
	if n := w.N(); n != 0 {
		nday.NthOfPeriod = jscal.Int(n)
	}
	return nday
}

// readRecurrenceRule translates a parsed RRULE property value into a
// jscal.RecurrenceRule, using rrule-go to parse the option string and
// validate it (spec §4.3 Reading). rscale/skip travel as X- parameters
// on the RRULE property itself, since rrule-go has no non-Gregorian
// representation.
func readRecurrenceRule(prop *ics.IANAProperty, ctx *errctx.Context) *jscal.RecurrenceRule {
	ctx.BeginProp("recurrenceRule")
	defer ctx.EndProp()

	if prop == nil {
		return nil
	}

	opt, err := rrule.StrToROption(prop.Value)
	if err != nil {
		ctx.InvalidProp()
		return nil
	}

	freq, ok := freqFromRRule[opt.Freq]
	if !ok {
		ctx.InvalidProp("frequency")
		return nil
	}

	rule := &jscal.RecurrenceRule{Frequency: freq}

	if opt.Interval > 1 {
		rule.Interval = jscal.Int(opt.Interval)
	}
	if opt.Count > 0 {
		rule.Count = jscal.Int(opt.Count)
	}
	if !opt.Until.IsZero() {
		rule.Until = jscal.NewLocalDateTime(opt.Until)
	}

	for _, w := range opt.Byweekday {
		rule.ByDay = append(rule.ByDay, ndayFromWeekday(w))
	}
	for _, m := range opt.Bymonth {
		rule.ByMonth = append(rule.ByMonth, strconv.Itoa(m))
	}
	rule.ByDate = append(rule.ByDate, opt.Bymonthday...)
	rule.ByYearDay = append(rule.ByYearDay, opt.Byyearday...)
	rule.ByWeekNo = append(rule.ByWeekNo, opt.Byweekno...)
	rule.ByHour = append(rule.ByHour, opt.Byhour...)
	rule.ByMinute = append(rule.ByMinute, opt.Byminute...)
	rule.BySecond = append(rule.BySecond, opt.Bysecond...)
	rule.BySetPosition = append(rule.BySetPosition, opt.Bysetpos...)

	sortByMonth(rule.ByMonth)
	sort.Ints(rule.ByDate)
	sort.Ints(rule.ByYearDay)
	sort.Ints(rule.ByWeekNo)
	sort.Ints(rule.ByHour)
	sort.Ints(rule.ByMinute)
	sort.Ints(rule.BySecond)
	sort.Ints(rule.BySetPosition)

	if wkst := paramFirst(prop, "WKST"); wkst != "" {
		fdow := jscal.FormatDayOfWeek(wkst)
		rule.FirstDayOfWeek = &fdow
	}
	if rscale := paramFirst(prop, XParamRScale); rscale != "" {
		rule.RScale = &rscale
	}
	if skip := paramFirst(prop, XParamSkip); skip != "" {
		rule.Skip = &skip
	}

	validateRecurrenceRanges(rule, ctx)

	return rule
}

// validateRecurrenceRanges enforces the per-field range invariants
// (spec §4.3 Invariants): byDate ±1..31, byYearDay ±1..366, byWeekNo
// ±1..53, byHour 0..23, byMinute/bySecond 0..59 (zero allowed only for
// those three), nthOfPeriod != 0.
func validateRecurrenceRanges(rule *jscal.RecurrenceRule, ctx *errctx.Context) {
	check := func(name string, values []int, lo, hi int, zeroOK bool) {
		for _, v := range values {
			if v == 0 && !zeroOK {
				ctx.InvalidProp(name)
				continue
			}
			if v < lo || v > hi {
				ctx.InvalidProp(name)
			}
		}
	}
	check("byDate", rule.ByDate, -31, 31, false)
	check("byYearDay", rule.ByYearDay, -366, 366, false)
	check("byWeekNo", rule.ByWeekNo, -53, 53, false)
	check("byHour", rule.ByHour, 0, 23, true)
	check("byMinute", rule.ByMinute, 0, 59, true)
	check("bySecond", rule.BySecond, 0, 59, true)
	for _, d := range rule.ByDay {
		if d.NthOfPeriod != nil && *d.NthOfPeriod == 0 {
			ctx.InvalidProp("byDay")
		}
	}
}

// buildROption builds the rrule-go option set a jscal.RecurrenceRule
// describes, for validation via rrule.NewRRule (spec §4.3 Writing).
func buildROption(rule *jscal.RecurrenceRule, dtstart time.Time) (rrule.ROption, error) {
	freq, ok := freqToRRule[rule.Frequency]
	if !ok {
		return rrule.ROption{}, fmt.Errorf("unknown frequency %q", rule.Frequency)
	}

	opt := rrule.ROption{Freq: freq, Dtstart: dtstart, Interval: 1}
	if rule.Interval != nil && *rule.Interval > 0 {
		opt.Interval = *rule.Interval
	}
	if rule.Count != nil {
		opt.Count = *rule.Count
	}
	if rule.Until != nil {
		opt.Until = rule.Until.Time()
	}
	for _, d := range rule.ByDay {
		w, ok := weekdayFromNDay(d)
		if !ok {
			return rrule.ROption{}, fmt.Errorf("invalid byDay value %q", d.Day)
		}
		opt.Byweekday = append(opt.Byweekday, w)
	}
	for _, m := range rule.ByMonth {
		n, err := strconv.Atoi(strings.TrimSuffix(m, "L"))
		if err != nil {
			return rrule.ROption{}, fmt.Errorf("invalid byMonth value %q", m)
		}
		opt.Bymonth = append(opt.Bymonth, n)
	}
	opt.Bymonthday = append(opt.Bymonthday, rule.ByDate...)
	opt.Byyearday = append(opt.Byyearday, rule.ByYearDay...)
	opt.Byweekno = append(opt.Byweekno, rule.ByWeekNo...)
	opt.Byhour = append(opt.Byhour, rule.ByHour...)
	opt.Byminute = append(opt.Byminute, rule.ByMinute...)
	opt.Bysecond = append(opt.Bysecond, rule.BySecond...)
	opt.Bysetpos = append(opt.Bysetpos, rule.BySetPosition...)
	if rule.FirstDayOfWeek != nil {
		if w, ok := weekdayByCode[*rule.FirstDayOfWeek]; ok {
			opt.Wkst = w
		}
	}
	return opt, nil
}

// formatRRuleValue renders the RRULE property value text from rule. It
// does not depend on rrule-go's own stringification so callers control
// the exact canonical text emitted (uppercase tokens, ascending
// by-field order); rrule.NewRRule is still used beforehand to validate
// the same fields.
func formatRRuleValue(rule *jscal.RecurrenceRule) string {
	var parts []string
	parts = append(parts, "FREQ="+strings.ToUpper(rule.Frequency))

	if rule.Interval != nil && *rule.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", *rule.Interval))
	}
	if len(rule.ByMonth) > 0 {
		parts = append(parts, "BYMONTH="+strings.Join(rule.ByMonth, ","))
	}
	if len(rule.ByWeekNo) > 0 {
		parts = append(parts, "BYWEEKNO="+joinInts(rule.ByWeekNo))
	}
	if len(rule.ByYearDay) > 0 {
		parts = append(parts, "BYYEARDAY="+joinInts(rule.ByYearDay))
	}
	if len(rule.ByDate) > 0 {
		parts = append(parts, "BYMONTHDAY="+joinInts(rule.ByDate))
	}
	if len(rule.ByDay) > 0 {
		days := make([]string, len(rule.ByDay))
		for i, d := range rule.ByDay {
			token := jscal.ToICalWeekday(d.Day)
			if d.NthOfPeriod != nil && *d.NthOfPeriod != 0 {
				token = fmt.Sprintf("%d%s", *d.NthOfPeriod, token)
			}
			days[i] = token
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if len(rule.ByHour) > 0 {
		parts = append(parts, "BYHOUR="+joinInts(rule.ByHour))
	}
	if len(rule.ByMinute) > 0 {
		parts = append(parts, "BYMINUTE="+joinInts(rule.ByMinute))
	}
	if len(rule.BySecond) > 0 {
		parts = append(parts, "BYSECOND="+joinInts(rule.BySecond))
	}
	if len(rule.BySetPosition) > 0 {
		parts = append(parts, "BYSETPOS="+joinInts(rule.BySetPosition))
	}
	if rule.FirstDayOfWeek != nil {
		parts = append(parts, "WKST="+jscal.ToICalWeekday(*rule.FirstDayOfWeek))
	}
	if rule.Until != nil {
		parts = append(parts, "UNTIL="+formatRRuleUntil(rule.Until.Time()))
	}
	if rule.Count != nil && *rule.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", *rule.Count))
	}
	return strings.Join(parts, ";")
}

func formatRRuleUntil(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Location() == time.UTC {
		return t.Format("20060102")
	}
	return t.UTC().Format("20060102T150405Z")
}

func joinInts(values []int) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return strings.Join(out, ",")
}

// writeRecurrenceRule validates rule via rrule-go and, if it is valid,
// appends an RRULE property (plus its rscale/skip side-channel
// parameters) to vevent (spec §4.3 Writing).
func writeRecurrenceRule(rule *jscal.RecurrenceRule, dtstart time.Time, vevent *ics.VEvent, ctx *errctx.Context) {
	ctx.BeginProp("recurrenceRule")
	defer ctx.EndProp()

	vevent.Properties = purgeProperties(vevent.Properties, "RRULE")
	if rule == nil {
		return
	}

	opt, err := buildROption(rule, dtstart)
	if err != nil {
		ctx.InvalidProp()
		return
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		ctx.InvalidProp()
		return
	}

	var params map[string][]string
	if rule.RScale != nil && *rule.RScale != "" {
		params = setParam(params, XParamRScale, *rule.RScale)
	}
	if rule.Skip != nil && *rule.Skip != "" {
		params = setParam(params, XParamSkip, *rule.Skip)
	}

	vevent.Properties = append(vevent.Properties, newProperty(
		string(ics.ComponentPropertyRrule), formatRRuleValue(rule), params))
}

// sortByMonth sorts a byMonth value list ascending by its numeric
// value, ignoring the optional "L" (leap month) suffix (spec §4.3
// "All by* numeric arrays are sorted ascending when read from iCal").
func sortByMonth(months []string) {
	sort.SliceStable(months, func(i, j int) bool {
		return byMonthValue(months[i]) < byMonthValue(months[j])
	})
}

func byMonthValue(m string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(m, "L"))
	if err != nil {
		return 0
	}
	return n
}
