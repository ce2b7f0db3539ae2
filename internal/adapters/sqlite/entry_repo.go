package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// EntryRepository implements secondary.EntryRepository with SQLite.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new SQLite entry repository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entrySelectCols = "id, flow_id, entry_date, symbol, count, goal, duration_min, created_at, updated_at"

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (*secondary.EntryRecord, error) {
	var (
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.EntryRecord{}
	err := scanner.Scan(
		&record.ID, &record.FlowID, &record.Date, &record.Symbol,
		&record.Count, &record.Goal, &record.DurationMin,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Upsert creates or overwrites the entry for (flow, date). The unique
// constraint on (flow_id, entry_date) guarantees at most one row.
func (r *EntryRepository) Upsert(ctx context.Context, entry *secondary.EntryRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, flow_id, entry_date, symbol, count, goal, duration_min)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(flow_id, entry_date) DO UPDATE SET
			symbol = excluded.symbol,
			count = excluded.count,
			goal = excluded.goal,
			duration_min = excluded.duration_min,
			updated_at = CURRENT_TIMESTAMP`,
		entry.ID, entry.FlowID, entry.Date, entry.Symbol, entry.Count, entry.Goal, entry.DurationMin,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	return nil
}

// GetByFlowAndDate retrieves the entry for (flow, date). Absence is not an
// error: returns (nil, nil).
func (r *EntryRepository) GetByFlowAndDate(ctx context.Context, flowID, date string) (*secondary.EntryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+entrySelectCols+" FROM entries WHERE flow_id = ? AND entry_date = ?",
		flowID, date,
	)

	record, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return record, nil
}

// ListByDate retrieves all entries for a calendar date.
func (r *EntryRepository) ListByDate(ctx context.Context, date string) ([]*secondary.EntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+entrySelectCols+" FROM entries WHERE entry_date = ? ORDER BY flow_id ASC",
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListRange retrieves a flow's entries in [from, to], ascending by date.
func (r *EntryRepository) ListRange(ctx context.Context, flowID, from, to string) ([]*secondary.EntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+entrySelectCols+" FROM entries WHERE flow_id = ? AND entry_date >= ? AND entry_date <= ? ORDER BY entry_date ASC",
		flowID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entry range: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Delete removes the entry for (flow, date), if any.
func (r *EntryRepository) Delete(ctx context.Context, flowID, date string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM entries WHERE flow_id = ? AND entry_date = ?",
		flowID, date,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	return nil
}

func collectEntries(rows *sql.Rows) ([]*secondary.EntryRecord, error) {
	var entries []*secondary.EntryRecord
	for rows.Next() {
		record, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

// Ensure EntryRepository implements the interface
var _ secondary.EntryRepository = (*EntryRepository)(nil)
