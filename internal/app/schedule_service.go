package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/flowtrack/internal/core/notify"
	"github.com/example/flowtrack/internal/core/recurrence"
	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/ports/secondary"
)

// Schedule kinds.
const (
	ScheduleKindReminder = "reminder"
	ScheduleKindSummary  = "summary"
)

// ScheduleServiceImpl implements primary.ScheduleService. Trigger
// computation delegates to the notify planner; this layer owns persistence
// and delivery.
type ScheduleServiceImpl struct {
	schedules     secondary.ScheduleRepository
	flows         secondary.FlowRepository
	notifier      secondary.Notifier
	lookaheadDays int
	now           func() time.Time
}

// NewScheduleService creates a new schedule service. lookaheadDays <= 0
// uses the planner default.
func NewScheduleService(schedules secondary.ScheduleRepository, flows secondary.FlowRepository, notifier secondary.Notifier, lookaheadDays int) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		schedules:     schedules,
		flows:         flows,
		notifier:      notifier,
		lookaheadDays: lookaheadDays,
		now:           time.Now,
	}
}

// CreateSchedule creates a schedule. The store enforces at most one
// schedule per (flow, time of day, kind).
func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, req primary.CreateScheduleRequest) (*primary.Schedule, error) {
	kind := req.Kind
	if kind == "" {
		kind = ScheduleKindReminder
	}
	if kind != ScheduleKindReminder && kind != ScheduleKindSummary {
		return nil, fmt.Errorf("unknown schedule kind %q", kind)
	}

	if _, _, ok := parseClockField(req.TimeOfDay); !ok {
		return nil, fmt.Errorf("invalid time of day %q, expected HH:MM", req.TimeOfDay)
	}
	if (req.QuietStart == "") != (req.QuietEnd == "") {
		return nil, fmt.Errorf("quiet hours require both a start and an end")
	}
	if req.QuietStart != "" {
		if _, _, ok := parseClockField(req.QuietStart); !ok {
			return nil, fmt.Errorf("invalid quiet start %q, expected HH:MM", req.QuietStart)
		}
		if _, _, ok := parseClockField(req.QuietEnd); !ok {
			return nil, fmt.Errorf("invalid quiet end %q, expected HH:MM", req.QuietEnd)
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", req.Timezone)
		}
	}

	rec := &secondary.ScheduleRecord{
		ID:         uuid.NewString(),
		FlowID:     req.FlowID,
		Kind:       kind,
		TimeOfDay:  req.TimeOfDay,
		Timezone:   req.Timezone,
		QuietStart: req.QuietStart,
		QuietEnd:   req.QuietEnd,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Enabled:    true,
	}

	switch notify.Frequency(req.Frequency) {
	case notify.Daily:
		rec.Frequency = string(notify.Daily)
	case notify.Weekly:
		days, err := recurrence.ParseWeekdays(req.WeekDays)
		if err != nil {
			return nil, err
		}
		if len(days) == 0 {
			return nil, fmt.Errorf("weekly schedules need at least one weekday")
		}
		rec.Frequency = string(notify.Weekly)
		rec.WeekDays = recurrence.EncodeWeekdays(recurrence.OnWeekdays(days...).Weekdays)
	case notify.Monthly:
		days, err := recurrence.ParseMonthDays(req.MonthDays)
		if err != nil {
			return nil, err
		}
		if len(days) == 0 {
			return nil, fmt.Errorf("monthly schedules need at least one day of month")
		}
		rec.Frequency = string(notify.Monthly)
		rec.MonthDays = recurrence.EncodeMonthDays(recurrence.OnMonthDays(days...).MonthDays)
	default:
		return nil, fmt.Errorf("unknown frequency %q", req.Frequency)
	}

	if req.FlowID != "" {
		if _, err := s.flows.GetByID(ctx, req.FlowID); err != nil {
			return nil, err
		}
	}
	for _, field := range []string{req.StartDate, req.EndDate} {
		if field == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", field); err != nil {
			return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", field)
		}
	}

	now := s.now().UTC().Format(time.RFC3339)
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.schedules.Create(ctx, rec); err != nil {
		return nil, err
	}
	return recordToSchedule(rec), nil
}

// ListSchedules lists schedules, optionally for one flow.
func (s *ScheduleServiceImpl) ListSchedules(ctx context.Context, flowID string) ([]*primary.Schedule, error) {
	records, err := s.schedules.List(ctx, secondary.ScheduleFilters{FlowID: flowID})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	out := make([]*primary.Schedule, 0, len(records))
	for _, rec := range records {
		out = append(out, recordToSchedule(rec))
	}
	return out, nil
}

// SetEnabled enables or disables a schedule.
func (s *ScheduleServiceImpl) SetEnabled(ctx context.Context, scheduleID string, enabled bool) error {
	return s.schedules.SetEnabled(ctx, scheduleID, enabled)
}

// DeleteSchedule removes a schedule.
func (s *ScheduleServiceImpl) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return s.schedules.Delete(ctx, scheduleID)
}

// NextTriggers computes the next trigger per enabled schedule, soonest
// first. Pure with respect to now: repeated calls agree.
func (s *ScheduleServiceImpl) NextTriggers(ctx context.Context, now time.Time) ([]*primary.UpcomingTrigger, error) {
	records, err := s.schedules.List(ctx, secondary.ScheduleFilters{EnabledOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	var triggers []*primary.UpcomingTrigger
	for _, rec := range records {
		at, ok := notify.NextTrigger(recordToPlanner(rec), now, s.lookaheadDays)
		if !ok {
			continue
		}
		trig := &primary.UpcomingTrigger{
			ScheduleID: rec.ID,
			FlowID:     rec.FlowID,
			At:         at,
		}
		if rec.FlowID != "" {
			if flow, err := s.flows.GetByID(ctx, rec.FlowID); err == nil {
				trig.FlowTitle = flow.Title
			}
		}
		triggers = append(triggers, trig)
	}

	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].At.Before(triggers[j].At)
	})
	return triggers, nil
}

// FireDue delivers triggers that fell due in (now-window, now]. A trigger
// inside the schedule's quiet hours right now is held, not dropped: the
// planner will surface its next allowed instant instead. Delivery marks the
// schedule triggered, so a crash between the two at worst re-delivers.
func (s *ScheduleServiceImpl) FireDue(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	records, err := s.schedules.List(ctx, secondary.ScheduleFilters{EnabledOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to list schedules: %w", err)
	}

	fired := 0
	for _, rec := range records {
		plan := recordToPlanner(rec)

		// Look back over the window: a trigger instant we slept through
		// is still deliverable.
		at, ok := notify.NextTrigger(plan, now.Add(-window), s.lookaheadDays)
		if !ok || at.After(now) {
			continue
		}
		if notify.WithinQuietHours(plan, now) {
			continue
		}

		title := "Reminder"
		body := "Time to check in"
		vars := map[string]string{"schedule_id": rec.ID}
		if rec.FlowID != "" {
			vars["flow_id"] = rec.FlowID
			if flow, err := s.flows.GetByID(ctx, rec.FlowID); err == nil {
				body = flow.Title
				vars["flow_title"] = flow.Title
			}
		}
		if rec.Kind == ScheduleKindSummary {
			title = "Daily summary"
		}

		if err := s.notifier.Notify(ctx, secondary.Notification{
			Title:     title,
			Body:      body,
			Variables: vars,
			FiredAt:   at,
		}); err != nil {
			return fired, fmt.Errorf("failed to deliver notification: %w", err)
		}
		if err := s.schedules.MarkTriggered(ctx, rec.ID, at.UTC().Format(time.RFC3339)); err != nil {
			return fired, fmt.Errorf("failed to mark schedule triggered: %w", err)
		}
		fired++
	}
	return fired, nil
}

// recordToPlanner converts a stored schedule row into the planner's input.
func recordToPlanner(rec *secondary.ScheduleRecord) notify.Schedule {
	plan := notify.Schedule{
		ID:         rec.ID,
		FlowID:     rec.FlowID,
		TimeOfDay:  rec.TimeOfDay,
		Frequency:  notify.Frequency(rec.Frequency),
		Weekdays:   recurrence.DecodeWeekdays(rec.WeekDays),
		MonthDays:  recurrence.DecodeMonthDays(rec.MonthDays),
		Timezone:   rec.Timezone,
		QuietStart: rec.QuietStart,
		QuietEnd:   rec.QuietEnd,
		Enabled:    rec.Enabled,
	}
	if rec.StartDate != "" {
		if t, err := time.Parse("2006-01-02", rec.StartDate); err == nil {
			plan.StartDate = &t
		}
	}
	if rec.EndDate != "" {
		if t, err := time.Parse("2006-01-02", rec.EndDate); err == nil {
			plan.EndDate = &t
		}
	}
	if rec.LastTriggeredAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.LastTriggeredAt); err == nil {
			plan.LastTriggeredAt = &t
		}
	}
	return plan
}

func recordToSchedule(rec *secondary.ScheduleRecord) *primary.Schedule {
	return &primary.Schedule{
		ID:              rec.ID,
		FlowID:          rec.FlowID,
		Kind:            rec.Kind,
		TimeOfDay:       rec.TimeOfDay,
		Frequency:       rec.Frequency,
		WeekDaysCSV:     rec.WeekDays,
		MonthDaysCSV:    rec.MonthDays,
		Timezone:        rec.Timezone,
		QuietStart:      rec.QuietStart,
		QuietEnd:        rec.QuietEnd,
		StartDate:       rec.StartDate,
		EndDate:         rec.EndDate,
		Enabled:         rec.Enabled,
		LastTriggeredAt: rec.LastTriggeredAt,
		TriggerCount:    rec.TriggerCount,
	}
}

// parseClockField validates an "HH:MM" input field.
func parseClockField(s string) (hour, min int, ok bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// Ensure ScheduleServiceImpl implements the interface
var _ primary.ScheduleService = (*ScheduleServiceImpl)(nil)
