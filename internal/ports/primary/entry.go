package primary

import (
	"context"
	"time"

	"github.com/example/flowtrack/internal/core/status"
)

// Entry is a per-date completion record as exposed to callers.
type Entry struct {
	FlowID      string
	Date        string // YYYY-MM-DD
	Symbol      string
	Count       int
	Goal        int
	DurationMin int
}

// LogEntryRequest contains parameters for logging a completion. A log on a
// day the flow is not due is a valid manual override, not an error.
type LogEntryRequest struct {
	FlowID      string
	Date        time.Time
	Symbol      string
	Count       int
	Goal        int
	DurationMin int
}

// DaySlot is one flow's state for a rendered day: due-ness from the
// recurrence rule, status from the entry record.
type DaySlot struct {
	Flow   *Flow
	Due    bool
	Status status.Status
	Entry  *Entry // nil when no record exists
}

// EntryService defines the primary port for completion records.
type EntryService interface {
	// LogEntry creates or overwrites the entry for (flow, date) and
	// enqueues the mutation.
	LogEntry(ctx context.Context, req LogEntryRequest) (*Entry, error)

	// ClearEntry removes the entry for (flow, date) and enqueues the
	// delete mutation.
	ClearEntry(ctx context.Context, flowID string, date time.Time) error

	// ResolveStatus returns the semantic status of (flow, date).
	ResolveStatus(ctx context.Context, flowID string, date, today time.Time) (status.Status, error)

	// DayView returns one slot per unarchived flow for the given date.
	DayView(ctx context.Context, date, today time.Time) ([]*DaySlot, error)
}
