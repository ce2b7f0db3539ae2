package secondary

import "context"

// ActivityRecord is one persisted activity log row.
type ActivityRecord struct {
	ID         int64
	At         string // RFC3339
	EntityType string
	EntityID   string
	Action     string
	Detail     string
}

// ActivityLog defines the interface for recording and reading the local
// activity trail: user-visible writes plus sync engine transitions
// (sent/replayed/rejected/exhausted/skipped rows).
type ActivityLog interface {
	// LogCreate logs a create operation for an entity.
	LogCreate(ctx context.Context, entityType, entityID string) error

	// LogUpdate logs an update operation for an entity.
	LogUpdate(ctx context.Context, entityType, entityID, detail string) error

	// LogDelete logs a delete operation for an entity.
	LogDelete(ctx context.Context, entityType, entityID string) error

	// LogSync logs a sync engine event for a queued mutation.
	LogSync(ctx context.Context, entityType, entityID, event, detail string) error

	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]*ActivityRecord, error)
}
