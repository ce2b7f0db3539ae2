// Package secondary defines the secondary ports (driven adapters) for the
// application: persistence, the remote transport, and the notifier.
package secondary

import "context"

// Mutation queue statuses as persisted. A record that has been confirmed
// by the remote side is deleted, so "done" exists only as an answer to a
// status query, never as a stored value.
const (
	MutationPending  = "pending"
	MutationInFlight = "in_flight"
	MutationFailed   = "failed"
	MutationDone     = "done"
)

// Mutation operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Entity types carried through the queue.
const (
	EntityFlow  = "flow"
	EntityEntry = "entry"
)

// FlowRecord represents a tracked flow as stored in persistence.
type FlowRecord struct {
	ID             string
	Title          string
	RuleKind       string // recurrence.Kind value
	WeekDays       string // encoded weekday CSV, week_days rules only
	MonthDays      string // encoded month-day CSV, month_days rules only
	ActivationDate string // YYYY-MM-DD, empty if unset
	Archived       bool
	CreatedAt      string
	UpdatedAt      string
}

// FlowFilters contains filter options for querying flows.
type FlowFilters struct {
	IncludeArchived bool
}

// FlowRepository defines the secondary port for flow persistence.
type FlowRepository interface {
	// Create persists a new flow.
	Create(ctx context.Context, flow *FlowRecord) error

	// GetByID retrieves a flow by its ID.
	GetByID(ctx context.Context, id string) (*FlowRecord, error)

	// Update updates a flow's title, rule, and activation date.
	Update(ctx context.Context, flow *FlowRecord) error

	// SetArchived flips the archived flag.
	SetArchived(ctx context.Context, id string, archived bool) error

	// List retrieves flows matching the given filters, oldest first.
	List(ctx context.Context, filters FlowFilters) ([]*FlowRecord, error)
}

// EntryRecord represents a per-date completion record. Count, Goal and
// DurationMin use zero as "unset".
type EntryRecord struct {
	ID          string
	FlowID      string
	Date        string // YYYY-MM-DD
	Symbol      string
	Count       int
	Goal        int
	DurationMin int
	CreatedAt   string
	UpdatedAt   string
}

// EntryRepository defines the secondary port for entry persistence.
// At most one entry exists per (flow, date).
type EntryRepository interface {
	// Upsert creates or overwrites the entry for (flow, date).
	Upsert(ctx context.Context, entry *EntryRecord) error

	// GetByFlowAndDate retrieves the entry for (flow, date).
	// Returns (nil, nil) when no entry exists; absence is not an error.
	GetByFlowAndDate(ctx context.Context, flowID, date string) (*EntryRecord, error)

	// ListByDate retrieves all entries for a calendar date.
	ListByDate(ctx context.Context, date string) ([]*EntryRecord, error)

	// ListRange retrieves a flow's entries in [from, to], ascending.
	ListRange(ctx context.Context, flowID, from, to string) ([]*EntryRecord, error)

	// Delete removes the entry for (flow, date), if any.
	Delete(ctx context.Context, flowID, date string) error
}

// MutationRecord is a queued local write awaiting remote confirmation.
type MutationRecord struct {
	ID             string
	EntityType     string
	EntityID       string
	Operation      string
	Payload        string // JSON
	IdempotencyKey string
	Status         string
	Attempts       int
	NextAttemptAt  string // RFC3339; empty means eligible immediately
	LastError      string
	EnqueuedAt     string
}

// QueueStore defines the secondary port for the durable mutation queue.
// It is the single source of truth for queue state; the engine keeps no
// separate in-memory image, which makes startup reload trivially idempotent.
type QueueStore interface {
	// Append atomically persists a new record with status pending.
	Append(ctx context.Context, rec *MutationRecord) error

	// GetByID retrieves a record. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*MutationRecord, error)

	// ListPending returns pending records whose NextAttemptAt is unset or
	// at/before dueBy, in enqueue order. Rows that fail to load or
	// validate are skipped and reported via the skip callback; a single
	// corrupt row must never block the queue.
	ListPending(ctx context.Context, dueBy string, skip func(id, reason string)) ([]*MutationRecord, error)

	// MarkInFlight transitions a record to in_flight.
	MarkInFlight(ctx context.Context, id string) error

	// MarkPending returns a record to pending after a transient failure,
	// recording the attempt count, next eligible time, and last error.
	MarkPending(ctx context.Context, id string, attempts int, nextAttemptAt, lastError string) error

	// MarkFailed transitions a record to its terminal failed state.
	// Failed records are retained, not deleted.
	MarkFailed(ctx context.Context, id, lastError string) error

	// Delete atomically removes a confirmed record.
	Delete(ctx context.Context, id string) error

	// ReleaseInFlight returns any in_flight records to pending. Called
	// once at startup: a crash mid-send must not strand records.
	ReleaseInFlight(ctx context.Context) (int, error)

	// CountByStatus returns the number of records per status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// ListFailed returns terminal failed records, oldest first.
	ListFailed(ctx context.Context) ([]*MutationRecord, error)
}

// ScheduleRecord represents a notification schedule row. The store enforces
// uniqueness over (flow_id, time_of_day, kind).
type ScheduleRecord struct {
	ID              string
	FlowID          string // empty for schedules not bound to a flow
	Kind            string // "reminder" or "summary"
	TimeOfDay       string // "HH:MM"
	Frequency       string // "daily", "weekly", "monthly"
	WeekDays        string // encoded CSV
	MonthDays       string // encoded CSV
	Timezone        string
	QuietStart      string
	QuietEnd        string
	StartDate       string // YYYY-MM-DD, empty if unset
	EndDate         string
	Enabled         bool
	LastTriggeredAt string // RFC3339, empty if never fired
	TriggerCount    int
	CreatedAt       string
	UpdatedAt       string
}

// ScheduleFilters contains filter options for querying schedules.
type ScheduleFilters struct {
	FlowID      string
	EnabledOnly bool
}

// ScheduleRepository defines the secondary port for schedule persistence.
type ScheduleRepository interface {
	// Create persists a new schedule.
	Create(ctx context.Context, sched *ScheduleRecord) error

	// GetByID retrieves a schedule by its ID.
	GetByID(ctx context.Context, id string) (*ScheduleRecord, error)

	// List retrieves schedules matching the given filters.
	List(ctx context.Context, filters ScheduleFilters) ([]*ScheduleRecord, error)

	// SetEnabled flips the enabled flag.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// MarkTriggered advances LastTriggeredAt and increments TriggerCount.
	// Only the scheduler's caller mutates these two fields.
	MarkTriggered(ctx context.Context, id, firedAt string) error

	// Delete removes a schedule.
	Delete(ctx context.Context, id string) error
}
