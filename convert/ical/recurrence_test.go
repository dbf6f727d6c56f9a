package ical

import (
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/jmapio/jscal"
	"github.com/jmapio/jscal/internal/errctx"
)

func mustProperty(token, value string, params map[string][]string) *ics.IANAProperty {
	p := newProperty(token, value, params)
	return &p
}

func fixedStart(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
}

func TestReadRecurrenceRuleWeeklyByDay(t *testing.T) {
	prop := mustProperty("RRULE", "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR;COUNT=10", nil)
	ctx := errctx.New()

	rule := readRecurrenceRule(prop, ctx)
	if ctx.HasInvalid() {
		t.Fatalf("unexpected invalid paths: %v", ctx.InvalidPaths())
	}
	if rule == nil {
		t.Fatal("readRecurrenceRule() = nil")
	}
	if rule.Frequency != jscal.FrequencyWeekly {
		t.Errorf("Frequency = %q, want weekly", rule.Frequency)
	}
	if rule.Interval == nil || *rule.Interval != 2 {
		t.Errorf("Interval = %v, want 2", rule.Interval)
	}
	if rule.Count == nil || *rule.Count != 10 {
		t.Errorf("Count = %v, want 10", rule.Count)
	}
	if len(rule.ByDay) != 3 {
		t.Fatalf("ByDay = %v, want 3 entries", rule.ByDay)
	}
	want := []string{"mo", "we", "fr"}
	for i, d := range rule.ByDay {
		if d.Day != want[i] {
			t.Errorf("ByDay[%d] = %q, want %q", i, d.Day, want[i])
		}
	}
}

func TestReadRecurrenceRuleNthWeekday(t *testing.T) {
	prop := mustProperty("RRULE", "FREQ=MONTHLY;BYDAY=2MO,-1FR", nil)
	ctx := errctx.New()

	rule := readRecurrenceRule(prop, ctx)
	if ctx.HasInvalid() {
		t.Fatalf("unexpected invalid paths: %v", ctx.InvalidPaths())
	}
	if len(rule.ByDay) != 2 {
		t.Fatalf("ByDay = %v, want 2 entries", rule.ByDay)
	}
	if rule.ByDay[0].Day != "mo" || rule.ByDay[0].NthOfPeriod == nil || *rule.ByDay[0].NthOfPeriod != 2 {
		t.Errorf("ByDay[0] = %+v, want mo nth=2", rule.ByDay[0])
	}
	if rule.ByDay[1].Day != "fr" || rule.ByDay[1].NthOfPeriod == nil || *rule.ByDay[1].NthOfPeriod != -1 {
		t.Errorf("ByDay[1] = %+v, want fr nth=-1", rule.ByDay[1])
	}
}

func TestReadRecurrenceRuleRScaleSkip(t *testing.T) {
	prop := mustProperty("RRULE", "FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=29", map[string][]string{
		XParamRScale: {"hebrew"},
		XParamSkip:   {jscal.SkipForward},
	})
	ctx := errctx.New()

	rule := readRecurrenceRule(prop, ctx)
	if rule.RScale == nil || *rule.RScale != "hebrew" {
		t.Errorf("RScale = %v, want hebrew", rule.RScale)
	}
	if rule.Skip == nil || *rule.Skip != jscal.SkipForward {
		t.Errorf("Skip = %v, want forward", rule.Skip)
	}
}

func TestReadRecurrenceRuleInvalidRangeFlagged(t *testing.T) {
	prop := mustProperty("RRULE", "FREQ=DAILY;BYHOUR=25", nil)
	ctx := errctx.New()

	readRecurrenceRule(prop, ctx)
	found := false
	for _, p := range ctx.InvalidPaths() {
		if p == "/recurrenceRule/byHour" {
			found = true
		}
	}
	if !found {
		t.Errorf("InvalidPaths() = %v, want /recurrenceRule/byHour", ctx.InvalidPaths())
	}
}

func TestReadRecurrenceRuleSortsByFieldsAscending(t *testing.T) {
	prop := mustProperty("RRULE", "FREQ=YEARLY;BYMONTH=6,1,3;BYMONTHDAY=20,-5,10;BYHOUR=18,6,12", nil)
	ctx := errctx.New()

	rule := readRecurrenceRule(prop, ctx)
	if ctx.HasInvalid() {
		t.Fatalf("unexpected invalid paths: %v", ctx.InvalidPaths())
	}
	if got, want := rule.ByMonth, []string{"1", "3", "6"}; !stringsEqual(got, want) {
		t.Errorf("ByMonth = %v, want ascending %v", got, want)
	}
	if got, want := rule.ByDate, []int{-5, 10, 20}; !intsEqual(got, want) {
		t.Errorf("ByDate = %v, want ascending %v", got, want)
	}
	if got, want := rule.ByHour, []int{6, 12, 18}; !intsEqual(got, want) {
		t.Errorf("ByHour = %v, want ascending %v", got, want)
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWriteRecurrenceRuleRoundTrip(t *testing.T) {
	interval := 2
	count := 5
	rule := &jscal.RecurrenceRule{
		Frequency: jscal.FrequencyWeekly,
		Interval:  &interval,
		Count:     &count,
		ByDay: []jscal.NDay{
			{Day: "mo"},
			{Day: "we"},
		},
	}
	vevent := ics.NewEvent("uid-1")
	ctx := errctx.New()

	writeRecurrenceRule(rule, fixedStart(t), vevent, ctx)
	if ctx.HasInvalid() {
		t.Fatalf("unexpected invalid paths: %v", ctx.InvalidPaths())
	}

	prop := vevent.GetProperty(ics.ComponentPropertyRrule)
	if prop == nil {
		t.Fatal("RRULE property not written")
	}

	roundTripped := readRecurrenceRule(prop, errctx.New())
	if roundTripped.Frequency != rule.Frequency {
		t.Errorf("round-tripped Frequency = %q, want %q", roundTripped.Frequency, rule.Frequency)
	}
	if len(roundTripped.ByDay) != 2 {
		t.Fatalf("round-tripped ByDay = %v", roundTripped.ByDay)
	}
}

func TestWriteRecurrenceRuleInvalidFrequencyFlagged(t *testing.T) {
	rule := &jscal.RecurrenceRule{Frequency: "fortnightly"}
	vevent := ics.NewEvent("uid-2")
	ctx := errctx.New()

	writeRecurrenceRule(rule, fixedStart(t), vevent, ctx)
	if !ctx.HasInvalid() {
		t.Error("expected invalid recurrenceRule to be flagged")
	}
	if vevent.GetProperty(ics.ComponentPropertyRrule) != nil {
		t.Error("RRULE property should not be written for an invalid rule")
	}
}
