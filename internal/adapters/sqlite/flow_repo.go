// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// FlowRepository implements secondary.FlowRepository with SQLite.
type FlowRepository struct {
	db *sql.DB
}

// NewFlowRepository creates a new SQLite flow repository.
func NewFlowRepository(db *sql.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

const flowSelectCols = "id, title, rule_kind, week_days, month_days, activation_date, archived, created_at, updated_at"

// scanFlow scans a flow row into a FlowRecord.
func scanFlow(scanner interface {
	Scan(dest ...any) error
}) (*secondary.FlowRecord, error) {
	var (
		activationDate sql.NullString
		archived       bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	record := &secondary.FlowRecord{}
	err := scanner.Scan(
		&record.ID, &record.Title, &record.RuleKind, &record.WeekDays, &record.MonthDays,
		&activationDate, &archived, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.ActivationDate = activationDate.String
	record.Archived = archived
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Create persists a new flow.
func (r *FlowRepository) Create(ctx context.Context, flow *secondary.FlowRecord) error {
	var activationDate sql.NullString
	if flow.ActivationDate != "" {
		activationDate = sql.NullString{String: flow.ActivationDate, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO flows (id, title, rule_kind, week_days, month_days, activation_date) VALUES (?, ?, ?, ?, ?, ?)",
		flow.ID, flow.Title, flow.RuleKind, flow.WeekDays, flow.MonthDays, activationDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}

	return nil
}

// GetByID retrieves a flow by its ID.
func (r *FlowRepository) GetByID(ctx context.Context, id string) (*secondary.FlowRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+flowSelectCols+" FROM flows WHERE id = ?",
		id,
	)

	record, err := scanFlow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("flow %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	return record, nil
}

// Update updates a flow's title, rule, and activation date.
func (r *FlowRepository) Update(ctx context.Context, flow *secondary.FlowRecord) error {
	var activationDate sql.NullString
	if flow.ActivationDate != "" {
		activationDate = sql.NullString{String: flow.ActivationDate, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE flows SET title = ?, rule_kind = ?, week_days = ?, month_days = ?, activation_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		flow.Title, flow.RuleKind, flow.WeekDays, flow.MonthDays, activationDate, flow.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("flow %s not found", flow.ID)
	}

	return nil
}

// SetArchived flips the archived flag.
func (r *FlowRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE flows SET archived = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		archived, id,
	)
	if err != nil {
		return fmt.Errorf("failed to archive flow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check archive result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("flow %s not found", id)
	}

	return nil
}

// List retrieves flows matching the given filters, oldest first.
func (r *FlowRepository) List(ctx context.Context, filters secondary.FlowFilters) ([]*secondary.FlowRecord, error) {
	query := "SELECT " + flowSelectCols + " FROM flows WHERE 1=1"
	args := []any{}

	if !filters.IncludeArchived {
		query += " AND archived = 0"
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var flows []*secondary.FlowRecord
	for rows.Next() {
		record, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		flows = append(flows, record)
	}

	return flows, rows.Err()
}

// Ensure FlowRepository implements the interface
var _ secondary.FlowRepository = (*FlowRepository)(nil)
