// Package status maps raw per-date completion records to semantic statuses.
// Resolve is pure and total: unrecognized input resolves to the documented
// defensive default rather than erroring.
package status

import "time"

// Status is the semantic state of a flow on a given date.
type Status string

const (
	None      Status = "none"
	Available Status = "available"
	Done      Status = "done"
	Missed    Status = "missed"
	Partial   Status = "partial"
	Skip      Status = "skip"
)

// Entry is the per-date record Resolve inspects. A nil *Entry means no
// record exists for the date.
type Entry struct {
	Symbol string
}

// symbolAliases is the single alias-to-status mapping table. Anything not
// listed here resolves to None.
var symbolAliases = map[string]Status{
	"+":    Done,
	"✓":    Done,
	"-":    Missed,
	"✗":    Missed,
	"~":    Partial,
	"≈":    Partial,
	"p":    Partial,
	"/":    Partial,
	"s":    Skip,
	"skip": Skip,
}

// Resolve maps an entry to its semantic status for date, where today is the
// caller's current calendar day.
//
// Rules, in order: no entry is None; a future date without an explicit
// symbol is None (future slots never show Available, only a manual pre-log
// can mark them); a recognized symbol resolves through the alias table; an
// entry without a symbol on or before today is Available; any other symbol
// is None.
func Resolve(entry *Entry, date, today time.Time) Status {
	if entry == nil {
		return None
	}

	if entry.Symbol == "" {
		if dayAfter(date, today) {
			return None
		}
		return Available
	}

	if s, ok := symbolAliases[entry.Symbol]; ok {
		return s
	}

	return None
}

// dayAfter reports whether a falls on a later calendar day than b.
func dayAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
