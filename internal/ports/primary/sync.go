package primary

import "context"

// EnqueueRequest contains parameters for queueing a mutation. Nonce feeds
// the idempotency key; when empty the service generates one. The nonce is
// fixed at enqueue time so every re-send carries the same key.
type EnqueueRequest struct {
	Operation  string
	EntityType string
	EntityID   string
	Payload    []byte
	Nonce      string
}

// QueueSummary is the user-facing view of queue health.
type QueueSummary struct {
	Pending  int
	InFlight int
	Failed   int
}

// FailedMutation surfaces a terminal sync failure for manual resolution.
type FailedMutation struct {
	QueueID    string
	Operation  string
	EntityType string
	EntityID   string
	Attempts   int
	LastError  string
	EnqueuedAt string
}

// SyncService defines the primary port for the offline mutation queue.
type SyncService interface {
	// Enqueue durably persists a mutation and schedules a flush attempt.
	// It returns as soon as the record is persisted; the send happens
	// asynchronously. Failure to persist is a fatal local-storage error.
	Enqueue(ctx context.Context, req EnqueueRequest) (string, error)

	// Flush drains eligible records to the transport. It is single-flight:
	// a call while a flush is running is a no-op that marks the running
	// flush to make another pass, so records enqueued mid-flush are
	// captured without being double-sent.
	Flush(ctx context.Context) error

	// Status reports a mutation's state. A record no longer in the store
	// was confirmed and reports done.
	Status(ctx context.Context, queueID string) (string, error)

	// Summary returns queue depth by status.
	Summary(ctx context.Context) (*QueueSummary, error)

	// Failed returns terminal failures awaiting manual resolution.
	Failed(ctx context.Context) ([]*FailedMutation, error)

	// SignalOnline notes that connectivity was restored and wakes the run
	// loop. Signals coalesce; delivery to the loop is at-least-once.
	SignalOnline()

	// Run drives periodic and signal-triggered flushes until ctx is done.
	Run(ctx context.Context) error
}
