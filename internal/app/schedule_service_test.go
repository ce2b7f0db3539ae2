package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/flowtrack/internal/ports/primary"
)

func newTestScheduleService() (*ScheduleServiceImpl, *mockScheduleRepo, *mockFlowRepo, *mockNotifier) {
	schedules := newMockScheduleRepo()
	flows := newMockFlowRepo()
	notifier := &mockNotifier{}
	return NewScheduleService(schedules, flows, notifier, 0), schedules, flows, notifier
}

func TestScheduleServiceCreateSchedule(t *testing.T) {
	svc, _, _, _ := newTestScheduleService()
	ctx := context.Background()

	sched, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
		TimeOfDay: "09:00",
		Frequency: "weekly",
		WeekDays:  "mon,wed,fri",
	})
	if err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}
	if sched.Kind != ScheduleKindReminder {
		t.Errorf("kind = %q, want default %q", sched.Kind, ScheduleKindReminder)
	}
	if sched.WeekDaysCSV != "1,3,5" {
		t.Errorf("weekdays = %q, want %q", sched.WeekDaysCSV, "1,3,5")
	}
	if !sched.Enabled {
		t.Error("new schedule is disabled, want enabled")
	}
}

func TestScheduleServiceCreateScheduleValidation(t *testing.T) {
	svc, _, _, _ := newTestScheduleService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  primary.CreateScheduleRequest
	}{
		{"bad time of day", primary.CreateScheduleRequest{TimeOfDay: "25:00", Frequency: "daily"}},
		{"bad frequency", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "hourly"}},
		{"weekly without weekdays", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "weekly"}},
		{"monthly with bad day", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "monthly", MonthDays: "32"}},
		{"quiet start without end", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "daily", QuietStart: "22:00"}},
		{"unknown timezone", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "daily", Timezone: "Mars/Olympus"}},
		{"bad start date", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "daily", StartDate: "March 1"}},
		{"unknown flow", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "daily", FlowID: "missing"}},
		{"unknown kind", primary.CreateScheduleRequest{TimeOfDay: "09:00", Frequency: "daily", Kind: "digest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateSchedule(ctx, tt.req); err == nil {
				t.Error("CreateSchedule() expected error, got nil")
			}
		})
	}
}

func TestScheduleServiceNextTriggersSorted(t *testing.T) {
	svc, _, _, _ := newTestScheduleService()
	ctx := context.Background()

	for _, tod := range []string{"18:00", "08:00", "12:30"} {
		if _, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
			TimeOfDay: tod,
			Frequency: "daily",
		}); err != nil {
			t.Fatalf("CreateSchedule(%s) error = %v", tod, err)
		}
	}

	now := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	triggers, err := svc.NextTriggers(ctx, now)
	if err != nil {
		t.Fatalf("NextTriggers() error = %v", err)
	}
	if len(triggers) != 3 {
		t.Fatalf("NextTriggers() returned %d, want 3", len(triggers))
	}
	for i := 1; i < len(triggers); i++ {
		if triggers[i].At.Before(triggers[i-1].At) {
			t.Errorf("triggers out of order: %v before %v", triggers[i].At, triggers[i-1].At)
		}
	}
	if got := triggers[0].At.Format("15:04"); got != "08:00" {
		t.Errorf("soonest trigger = %s, want 08:00", got)
	}

	// Repeatable: same now, same answer.
	again, err := svc.NextTriggers(ctx, now)
	if err != nil {
		t.Fatalf("NextTriggers() second call error = %v", err)
	}
	for i := range triggers {
		if !again[i].At.Equal(triggers[i].At) {
			t.Errorf("trigger %d moved between calls: %v vs %v", i, triggers[i].At, again[i].At)
		}
	}
}

func TestScheduleServiceNextTriggersSkipsQuietHours(t *testing.T) {
	svc, _, _, _ := newTestScheduleService()
	ctx := context.Background()

	if _, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
		TimeOfDay:  "09:00",
		Frequency:  "daily",
		QuietStart: "22:00",
		QuietEnd:   "07:00",
	}); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	// Asked during quiet hours, the answer is the next allowed instant,
	// not nothing.
	now := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	triggers, err := svc.NextTriggers(ctx, now)
	if err != nil {
		t.Fatalf("NextTriggers() error = %v", err)
	}
	if len(triggers) != 1 {
		t.Fatalf("NextTriggers() returned %d, want 1", len(triggers))
	}
	want := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	if !triggers[0].At.Equal(want) {
		t.Errorf("trigger = %v, want %v", triggers[0].At, want)
	}
}

func TestScheduleServiceFireDue(t *testing.T) {
	svc, schedules, _, notifier := newTestScheduleService()
	ctx := context.Background()

	sched, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
		TimeOfDay: "09:00",
		Frequency: "daily",
	})
	if err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	// 09:05, five minutes past the trigger, inside a 15 minute window.
	now := time.Date(2024, 6, 10, 9, 5, 0, 0, time.UTC)
	fired, err := svc.FireDue(ctx, now, 15*time.Minute)
	if err != nil {
		t.Fatalf("FireDue() error = %v", err)
	}
	if fired != 1 {
		t.Errorf("FireDue() = %d, want 1", fired)
	}
	if notifier.firedCount() != 1 {
		t.Errorf("notifier delivered %d, want 1", notifier.firedCount())
	}

	rec, err := schedules.GetByID(ctx, sched.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.TriggerCount != 1 {
		t.Errorf("trigger count = %d, want 1", rec.TriggerCount)
	}
	if rec.LastTriggeredAt != "2024-06-10T09:00:00Z" {
		t.Errorf("last triggered at = %q, want the trigger instant", rec.LastTriggeredAt)
	}

	// A second sweep over the same window delivers nothing new.
	fired, err = svc.FireDue(ctx, now.Add(time.Minute), 15*time.Minute)
	if err != nil {
		t.Fatalf("FireDue() second call error = %v", err)
	}
	if fired != 0 {
		t.Errorf("FireDue() second call = %d, want 0", fired)
	}
}

func TestScheduleServiceFireDueHeldByQuietHours(t *testing.T) {
	svc, _, _, notifier := newTestScheduleService()
	ctx := context.Background()

	if _, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
		TimeOfDay:  "21:45",
		Frequency:  "daily",
		QuietStart: "22:00",
		QuietEnd:   "07:00",
	}); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	// The trigger fell at 21:45, but the sweep runs at 22:10 inside
	// quiet hours: held, not delivered.
	now := time.Date(2024, 6, 10, 22, 10, 0, 0, time.UTC)
	fired, err := svc.FireDue(ctx, now, time.Hour)
	if err != nil {
		t.Fatalf("FireDue() error = %v", err)
	}
	if fired != 0 {
		t.Errorf("FireDue() = %d, want 0 during quiet hours", fired)
	}
	if notifier.firedCount() != 0 {
		t.Errorf("notifier delivered %d, want 0", notifier.firedCount())
	}
}

func TestScheduleServiceFireDueOutsideWindow(t *testing.T) {
	svc, _, _, notifier := newTestScheduleService()
	ctx := context.Background()

	if _, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
		TimeOfDay: "09:00",
		Frequency: "daily",
	}); err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	// Two hours late with a 15 minute window: the slot is gone.
	now := time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC)
	fired, err := svc.FireDue(ctx, now, 15*time.Minute)
	if err != nil {
		t.Fatalf("FireDue() error = %v", err)
	}
	if fired != 0 {
		t.Errorf("FireDue() = %d, want 0", fired)
	}
	if notifier.firedCount() != 0 {
		t.Errorf("notifier delivered %d, want 0", notifier.firedCount())
	}
}

func TestScheduleServiceSetEnabledAndDelete(t *testing.T) {
	svc, _, _, _ := newTestScheduleService()
	ctx := context.Background()

	sched, err := svc.CreateSchedule(ctx, primary.CreateScheduleRequest{
		TimeOfDay: "09:00",
		Frequency: "daily",
	})
	if err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	if err := svc.SetEnabled(ctx, sched.ID, false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	now := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	triggers, err := svc.NextTriggers(ctx, now)
	if err != nil {
		t.Fatalf("NextTriggers() error = %v", err)
	}
	if len(triggers) != 0 {
		t.Errorf("disabled schedule still produced %d triggers", len(triggers))
	}

	if err := svc.DeleteSchedule(ctx, sched.ID); err != nil {
		t.Fatalf("DeleteSchedule() error = %v", err)
	}
	all, err := svc.ListSchedules(ctx, "")
	if err != nil {
		t.Fatalf("ListSchedules() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListSchedules() returned %d after delete, want 0", len(all))
	}
}
