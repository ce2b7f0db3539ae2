package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// QueueStore implements secondary.QueueStore with SQLite. All queue state
// lives in the sync_queue table; there is no in-memory copy, so reloading
// after a restart is just reading the table again.
type QueueStore struct {
	db *sql.DB
}

// NewQueueStore creates a new SQLite queue store.
func NewQueueStore(db *sql.DB) *QueueStore {
	return &QueueStore{db: db}
}

const mutationSelectCols = "id, entity_type, entity_id, operation, payload, idempotency_key, status, attempts, next_attempt_at, last_error, enqueued_at"

// scanMutation scans a queue row, returning a validation reason for rows
// that are structurally broken. Such rows are skipped by ListPending so one
// bad record cannot block the queue.
func scanMutation(scanner interface {
	Scan(dest ...any) error
}) (*secondary.MutationRecord, string, error) {
	var (
		id, entityType, entityID, operation sql.NullString
		payload, idempotencyKey, status     sql.NullString
		attempts                            sql.NullInt64
		nextAttemptAt, lastError            sql.NullString
		enqueuedAt                          sql.NullTime
	)

	err := scanner.Scan(
		&id, &entityType, &entityID, &operation, &payload, &idempotencyKey,
		&status, &attempts, &nextAttemptAt, &lastError, &enqueuedAt,
	)
	if err != nil {
		return nil, "", err
	}

	record := &secondary.MutationRecord{
		ID:             id.String,
		EntityType:     entityType.String,
		EntityID:       entityID.String,
		Operation:      operation.String,
		Payload:        payload.String,
		IdempotencyKey: idempotencyKey.String,
		Status:         status.String,
		Attempts:       int(attempts.Int64),
		NextAttemptAt:  nextAttemptAt.String,
		LastError:      lastError.String,
	}
	if enqueuedAt.Valid {
		record.EnqueuedAt = enqueuedAt.Time.Format(time.RFC3339)
	}

	if reason := validateMutation(record); reason != "" {
		return record, reason, nil
	}

	return record, "", nil
}

// validateMutation returns a non-empty reason when a stored row is not a
// well-formed mutation.
func validateMutation(rec *secondary.MutationRecord) string {
	if rec.ID == "" {
		return "missing id"
	}
	if rec.EntityID == "" {
		return "missing entity id"
	}
	if rec.IdempotencyKey == "" {
		return "missing idempotency key"
	}
	switch rec.EntityType {
	case secondary.EntityFlow, secondary.EntityEntry:
	default:
		return fmt.Sprintf("unknown entity type %q", rec.EntityType)
	}
	switch rec.Operation {
	case secondary.OpCreate, secondary.OpUpdate, secondary.OpDelete:
	default:
		return fmt.Sprintf("unknown operation %q", rec.Operation)
	}
	return ""
}

// Append atomically persists a new record with status pending.
func (s *QueueStore) Append(ctx context.Context, rec *secondary.MutationRecord) error {
	var nextAttemptAt sql.NullString
	if rec.NextAttemptAt != "" {
		nextAttemptAt = sql.NullString{String: rec.NextAttemptAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_queue (id, entity_type, entity_id, operation, payload, idempotency_key, status, attempts, next_attempt_at, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EntityType, rec.EntityID, rec.Operation, rec.Payload,
		rec.IdempotencyKey, secondary.MutationPending, rec.Attempts, nextAttemptAt, rec.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to append mutation: %w", err)
	}

	return nil
}

// GetByID retrieves a record. Returns (nil, nil) when absent.
func (s *QueueStore) GetByID(ctx context.Context, id string) (*secondary.MutationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+mutationSelectCols+" FROM sync_queue WHERE id = ?",
		id,
	)

	record, _, err := scanMutation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mutation: %w", err)
	}

	return record, nil
}

// ListPending returns eligible pending records in enqueue order, skipping
// rows that fail to load or validate.
func (s *QueueStore) ListPending(ctx context.Context, dueBy string, skip func(id, reason string)) ([]*secondary.MutationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mutationSelectCols+` FROM sync_queue
		 WHERE status = ? AND (next_attempt_at IS NULL OR next_attempt_at = '' OR next_attempt_at <= ?)
		 ORDER BY enqueued_at ASC, rowid ASC`,
		secondary.MutationPending, dueBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending mutations: %w", err)
	}
	defer rows.Close()

	var records []*secondary.MutationRecord
	for rows.Next() {
		record, reason, err := scanMutation(rows)
		if err != nil {
			if skip != nil {
				skip("", err.Error())
			}
			continue
		}
		if reason != "" {
			if skip != nil {
				skip(record.ID, reason)
			}
			continue
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// MarkInFlight transitions a record to in_flight.
func (s *QueueStore) MarkInFlight(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, secondary.MutationInFlight)
}

// MarkPending returns a record to pending after a transient failure.
func (s *QueueStore) MarkPending(ctx context.Context, id string, attempts int, nextAttemptAt, lastError string) error {
	var next sql.NullString
	if nextAttemptAt != "" {
		next = sql.NullString{String: nextAttemptAt, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE sync_queue SET status = ?, attempts = ?, next_attempt_at = ?, last_error = ? WHERE id = ?",
		secondary.MutationPending, attempts, next, lastError, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mutation pending: %w", err)
	}

	return requireRow(result, id)
}

// MarkFailed transitions a record to its terminal failed state.
func (s *QueueStore) MarkFailed(ctx context.Context, id, lastError string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sync_queue SET status = ?, last_error = ? WHERE id = ?",
		secondary.MutationFailed, lastError, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mutation failed: %w", err)
	}

	return requireRow(result, id)
}

// Delete atomically removes a confirmed record.
func (s *QueueStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sync_queue WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete mutation: %w", err)
	}

	return nil
}

// ReleaseInFlight returns any in_flight records to pending, preserving
// attempt counts. A crash between MarkInFlight and the send outcome must
// not strand records.
func (s *QueueStore) ReleaseInFlight(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sync_queue SET status = ? WHERE status = ?",
		secondary.MutationPending, secondary.MutationInFlight,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to release in-flight mutations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check release result: %w", err)
	}

	return int(rows), nil
}

// CountByStatus returns the number of records per status.
func (s *QueueStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM sync_queue GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count mutations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

// ListFailed returns terminal failed records, oldest first.
func (s *QueueStore) ListFailed(ctx context.Context) ([]*secondary.MutationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+mutationSelectCols+" FROM sync_queue WHERE status = ? ORDER BY enqueued_at ASC, rowid ASC",
		secondary.MutationFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed mutations: %w", err)
	}
	defer rows.Close()

	var records []*secondary.MutationRecord
	for rows.Next() {
		record, _, err := scanMutation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (s *QueueStore) setStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sync_queue SET status = ? WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set mutation status: %w", err)
	}

	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mutation %s not found", id)
	}
	return nil
}

// Ensure QueueStore implements the interface
var _ secondary.QueueStore = (*QueueStore)(nil)
