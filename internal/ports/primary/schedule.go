package primary

import (
	"context"
	"time"
)

// Schedule is a notification schedule as exposed to callers.
type Schedule struct {
	ID              string
	FlowID          string
	Kind            string
	TimeOfDay       string
	Frequency       string
	WeekDaysCSV     string
	MonthDaysCSV    string
	Timezone        string
	QuietStart      string
	QuietEnd        string
	StartDate       string
	EndDate         string
	Enabled         bool
	LastTriggeredAt string
	TriggerCount    int
}

// CreateScheduleRequest contains parameters for creating a schedule.
type CreateScheduleRequest struct {
	FlowID     string
	Kind       string // defaults to "reminder"
	TimeOfDay  string
	Frequency  string
	WeekDays   string // short names CSV for weekly frequency
	MonthDays  string // day numbers CSV for monthly frequency
	Timezone   string // defaults to UTC
	QuietStart string
	QuietEnd   string
	StartDate  string
	EndDate    string
}

// UpcomingTrigger is a computed next-fire decision.
type UpcomingTrigger struct {
	ScheduleID string
	FlowID     string
	FlowTitle  string
	At         time.Time
}

// ScheduleService defines the primary port for notification scheduling.
// Trigger computation is pure and repeatable; only FireDue mutates state
// (LastTriggeredAt, TriggerCount) and only after delivery.
type ScheduleService interface {
	// CreateSchedule creates a schedule. At most one active schedule may
	// exist per (flow, time of day, kind).
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*Schedule, error)

	// ListSchedules lists schedules, optionally for one flow.
	ListSchedules(ctx context.Context, flowID string) ([]*Schedule, error)

	// SetEnabled enables or disables a schedule.
	SetEnabled(ctx context.Context, scheduleID string, enabled bool) error

	// DeleteSchedule removes a schedule.
	DeleteSchedule(ctx context.Context, scheduleID string) error

	// NextTriggers computes the next trigger per enabled schedule,
	// soonest first. Repeated calls with the same now agree.
	NextTriggers(ctx context.Context, now time.Time) ([]*UpcomingTrigger, error)

	// FireDue delivers triggers that fell due within the window ending at
	// now, advancing LastTriggeredAt and TriggerCount per delivery.
	// Returns the number fired.
	FireDue(ctx context.Context, now time.Time, window time.Duration) (int, error)
}
