// Package recurrence contains the pure scheduling logic for tracked flows.
// Rules are a closed variant type; evaluation has no side effects and is
// safe to call from any number of concurrent readers.
package recurrence

import (
	"strconv"
	"time"
)

// Kind identifies the active rule variant.
type Kind string

const (
	// KindEveryDay makes a flow due every calendar day.
	KindEveryDay Kind = "every_day"
	// KindWeekDays makes a flow due on a fixed set of weekdays.
	KindWeekDays Kind = "week_days"
	// KindMonthDays makes a flow due on a fixed set of days of month.
	KindMonthDays Kind = "month_days"
)

// Rule is the closed recurrence variant. Exactly one variant is active,
// selected by Kind; the set fields for the other variants are ignored.
type Rule struct {
	Kind      Kind
	Weekdays  map[time.Weekday]bool
	MonthDays map[string]bool
}

// Daily returns a rule that is due every day.
func Daily() Rule {
	return Rule{Kind: KindEveryDay}
}

// OnWeekdays returns a rule due on the given weekdays.
// An empty set is a valid (never due) configuration, not an error.
func OnWeekdays(days ...time.Weekday) Rule {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return Rule{Kind: KindWeekDays, Weekdays: set}
}

// OnMonthDays returns a rule due on the given days of month ("1".."31").
// Days a month does not reach simply never match in that month; there is
// no clamping to month end.
func OnMonthDays(days ...string) Rule {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return Rule{Kind: KindMonthDays, MonthDays: set}
}

// IsDue reports whether a flow with the given rule is due on date.
// activation is the first calendar day the flow can be due; nil means
// no lower bound. Dates are compared as whole calendar days.
func IsDue(rule Rule, activation *time.Time, date time.Time) bool {
	if activation != nil && dayBefore(date, *activation) {
		return false
	}

	switch rule.Kind {
	case KindEveryDay:
		return true
	case KindWeekDays:
		return rule.Weekdays[date.Weekday()]
	case KindMonthDays:
		return rule.MonthDays[strconv.Itoa(date.Day())]
	}

	// Unknown kind is a data-quality issue: never due.
	return false
}

// dayBefore reports whether a falls on an earlier calendar day than b.
func dayBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
