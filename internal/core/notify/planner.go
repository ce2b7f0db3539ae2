// Package notify computes reminder trigger instants from schedules. The
// planner is side-effect-free; advancing LastTriggeredAt after an actual
// delivery is the caller's job.
package notify

import (
	"strconv"
	"strings"
	"time"

	"github.com/example/flowtrack/internal/core/recurrence"
)

// Frequency selects the implied recurrence of a schedule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// DefaultLookaheadDays bounds the candidate window. Two months covers the
// worst case of a "31st of the month" schedule evaluated on February 1st.
const DefaultLookaheadDays = 62

// Schedule is the planner's snapshot of a notification schedule row.
type Schedule struct {
	ID        string
	FlowID    string
	TimeOfDay string // "HH:MM"
	Frequency Frequency
	Weekdays  map[time.Weekday]bool
	MonthDays map[string]bool
	Timezone  string // IANA name; empty means UTC

	// QuietStart/QuietEnd delimit a no-fire window ("HH:MM", end
	// exclusive). The window may span midnight. Both empty means no
	// quiet hours.
	QuietStart string
	QuietEnd   string

	StartDate *time.Time
	EndDate   *time.Time
	Enabled   bool

	LastTriggeredAt *time.Time
}

// NextTrigger returns the earliest allowed trigger instant at or after now,
// or false when the schedule cannot produce one: disabled, now outside
// [StartDate, EndDate], malformed fields, or no candidate inside the
// lookahead window.
//
// Candidate instants inside quiet hours are skipped, never returned; being
// asked during quiet hours still yields the next allowed instant. Candidates
// at or before LastTriggeredAt are skipped so an already-delivered slot is
// not re-fired after a clock change or restart.
func NextTrigger(s Schedule, now time.Time, lookaheadDays int) (time.Time, bool) {
	if !s.Enabled {
		return time.Time{}, false
	}
	loc, ok := loadZone(s.Timezone)
	if !ok {
		return time.Time{}, false
	}
	hour, min, ok := parseClock(s.TimeOfDay)
	if !ok {
		return time.Time{}, false
	}
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}

	localNow := now.In(loc)
	if s.StartDate != nil && dayBefore(localNow, *s.StartDate) {
		return time.Time{}, false
	}
	if s.EndDate != nil && dayBefore(*s.EndDate, localNow) {
		return time.Time{}, false
	}

	rule := impliedRule(s)
	day := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)

	for i := 0; i <= lookaheadDays; i++ {
		d := day.AddDate(0, 0, i)
		if s.EndDate != nil && dayBefore(*s.EndDate, d) {
			break
		}
		if !recurrence.IsDue(rule, s.StartDate, d) {
			continue
		}
		cand := time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, loc)
		if cand.Before(now) {
			continue
		}
		if s.LastTriggeredAt != nil && !cand.After(*s.LastTriggeredAt) {
			continue
		}
		if withinQuietWindow(cand, s.QuietStart, s.QuietEnd) {
			continue
		}
		return cand, true
	}

	return time.Time{}, false
}

// WithinQuietHours reports whether t falls inside the schedule's quiet
// window, interpreted in the schedule's timezone. Callers use this to hold
// an otherwise-due delivery during quiet hours.
func WithinQuietHours(s Schedule, t time.Time) bool {
	loc, ok := loadZone(s.Timezone)
	if !ok {
		return false
	}
	return withinQuietWindow(t.In(loc), s.QuietStart, s.QuietEnd)
}

// impliedRule derives the recurrence rule from the schedule's frequency.
func impliedRule(s Schedule) recurrence.Rule {
	switch s.Frequency {
	case Weekly:
		return recurrence.Rule{Kind: recurrence.KindWeekDays, Weekdays: s.Weekdays}
	case Monthly:
		return recurrence.Rule{Kind: recurrence.KindMonthDays, MonthDays: s.MonthDays}
	case Daily:
		return recurrence.Daily()
	}
	// Unknown frequency never produces candidates.
	return recurrence.Rule{}
}

func withinQuietWindow(t time.Time, start, end string) bool {
	sh, sm, ok := parseClock(start)
	if !ok {
		return false
	}
	eh, em, ok := parseClock(end)
	if !ok {
		return false
	}
	s := sh*60 + sm
	e := eh*60 + em
	m := t.Hour()*60 + t.Minute()

	if s == e {
		return false
	}
	if s < e {
		return m >= s && m < e
	}
	// Window spans midnight, e.g. 22:00-07:00.
	return m >= s || m < e
}

// parseClock parses "HH:MM". Returns false on malformed input.
func parseClock(s string) (hour, min int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func loadZone(name string) (*time.Location, bool) {
	if name == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}

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
