package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// ScheduleRepository implements secondary.ScheduleRepository with SQLite.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleSelectCols = "id, flow_id, kind, time_of_day, frequency, week_days, month_days, timezone, quiet_start, quiet_end, start_date, end_date, enabled, last_triggered_at, trigger_count, created_at, updated_at"

func scanSchedule(scanner interface {
	Scan(dest ...any) error
}) (*secondary.ScheduleRecord, error) {
	var (
		flowID          sql.NullString
		startDate       sql.NullString
		endDate         sql.NullString
		lastTriggeredAt sql.NullString
		enabled         bool
		createdAt       time.Time
		updatedAt       time.Time
	)

	record := &secondary.ScheduleRecord{}
	err := scanner.Scan(
		&record.ID, &flowID, &record.Kind, &record.TimeOfDay, &record.Frequency,
		&record.WeekDays, &record.MonthDays, &record.Timezone,
		&record.QuietStart, &record.QuietEnd, &startDate, &endDate,
		&enabled, &lastTriggeredAt, &record.TriggerCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.FlowID = flowID.String
	record.StartDate = startDate.String
	record.EndDate = endDate.String
	record.LastTriggeredAt = lastTriggeredAt.String
	record.Enabled = enabled
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Create persists a new schedule. The unique constraint over
// (flow_id, time_of_day, kind) rejects duplicates.
func (r *ScheduleRepository) Create(ctx context.Context, sched *secondary.ScheduleRecord) error {
	flowID := nullable(sched.FlowID)
	startDate := nullable(sched.StartDate)
	endDate := nullable(sched.EndDate)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedules (id, flow_id, kind, time_of_day, frequency, week_days, month_days, timezone, quiet_start, quiet_end, start_date, end_date, enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sched.ID, flowID, sched.Kind, sched.TimeOfDay, sched.Frequency,
		sched.WeekDays, sched.MonthDays, sched.Timezone,
		sched.QuietStart, sched.QuietEnd, startDate, endDate, sched.Enabled,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("schedule for (%s, %s, %s) already exists", sched.FlowID, sched.TimeOfDay, sched.Kind)
		}
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	return nil
}

// GetByID retrieves a schedule by its ID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*secondary.ScheduleRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scheduleSelectCols+" FROM schedules WHERE id = ?",
		id,
	)

	record, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return record, nil
}

// List retrieves schedules matching the given filters.
func (r *ScheduleRepository) List(ctx context.Context, filters secondary.ScheduleFilters) ([]*secondary.ScheduleRecord, error) {
	query := "SELECT " + scheduleSelectCols + " FROM schedules WHERE 1=1"
	args := []any{}

	if filters.FlowID != "" {
		query += " AND flow_id = ?"
		args = append(args, filters.FlowID)
	}
	if filters.EnabledOnly {
		query += " AND enabled = 1"
	}

	query += " ORDER BY time_of_day ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*secondary.ScheduleRecord
	for rows.Next() {
		record, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, record)
	}

	return schedules, rows.Err()
}

// SetEnabled flips the enabled flag.
func (r *ScheduleRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE schedules SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		enabled, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	return requireScheduleRow(result, id)
}

// MarkTriggered advances LastTriggeredAt and increments TriggerCount.
func (r *ScheduleRepository) MarkTriggered(ctx context.Context, id, firedAt string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE schedules SET last_triggered_at = ?, trigger_count = trigger_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		firedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark schedule triggered: %w", err)
	}

	return requireScheduleRow(result, id)
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	return requireScheduleRow(result, id)
}

func requireScheduleRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", id)
	}
	return nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure ScheduleRepository implements the interface
var _ secondary.ScheduleRepository = (*ScheduleRepository)(nil)
