package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// ActivityLogAdapter implements secondary.ActivityLog over the activity_log
// table. Log failures are reported to the caller but are advisory; callers
// typically ignore them rather than fail the operation being logged.
type ActivityLogAdapter struct {
	db *sql.DB
}

// NewActivityLogAdapter creates a new ActivityLogAdapter.
func NewActivityLogAdapter(db *sql.DB) *ActivityLogAdapter {
	return &ActivityLogAdapter{db: db}
}

// LogCreate logs a create operation for an entity.
func (a *ActivityLogAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return a.write(ctx, entityType, entityID, "create", "")
}

// LogUpdate logs an update operation for an entity.
func (a *ActivityLogAdapter) LogUpdate(ctx context.Context, entityType, entityID, detail string) error {
	return a.write(ctx, entityType, entityID, "update", detail)
}

// LogDelete logs a delete operation for an entity.
func (a *ActivityLogAdapter) LogDelete(ctx context.Context, entityType, entityID string) error {
	return a.write(ctx, entityType, entityID, "delete", "")
}

// LogSync logs a sync engine event for a queued mutation.
func (a *ActivityLogAdapter) LogSync(ctx context.Context, entityType, entityID, event, detail string) error {
	return a.write(ctx, entityType, entityID, "sync:"+event, detail)
}

// Recent returns the most recent records, newest first.
func (a *ActivityLogAdapter) Recent(ctx context.Context, limit int) ([]*secondary.ActivityRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx,
		"SELECT id, at, entity_type, entity_id, action, detail FROM activity_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}
	defer rows.Close()

	var records []*secondary.ActivityRecord
	for rows.Next() {
		var at time.Time
		record := &secondary.ActivityRecord{}
		if err := rows.Scan(&record.ID, &at, &record.EntityType, &record.EntityID, &record.Action, &record.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		record.At = at.Format(time.RFC3339)
		records = append(records, record)
	}

	return records, rows.Err()
}

func (a *ActivityLogAdapter) write(ctx context.Context, entityType, entityID, action, detail string) error {
	_, err := a.db.ExecContext(ctx,
		"INSERT INTO activity_log (entity_type, entity_id, action, detail) VALUES (?, ?, ?, ?)",
		entityType, entityID, action, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}

	return nil
}

// Ensure ActivityLogAdapter implements the interface
var _ secondary.ActivityLog = (*ActivityLogAdapter)(nil)
