package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/flowtrack/internal/adapters/sqlite"
	"github.com/example/flowtrack/internal/ports/secondary"
)

func reminderRecord(id, flowID, timeOfDay string) *secondary.ScheduleRecord {
	return &secondary.ScheduleRecord{
		ID:         id,
		FlowID:     flowID,
		Kind:       "reminder",
		TimeOfDay:  timeOfDay,
		Frequency:  "daily",
		Timezone:   "UTC",
		QuietStart: "22:00",
		QuietEnd:   "07:00",
		Enabled:    true,
	}
}

func TestScheduleRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()
	seedFlow(t, db, "FLOW-001", "")

	if err := repo.Create(ctx, reminderRecord("SCHED-001", "FLOW-001", "09:00")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, "SCHED-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.TimeOfDay != "09:00" || retrieved.Frequency != "daily" {
		t.Errorf("unexpected schedule: %+v", retrieved)
	}
	if !retrieved.Enabled {
		t.Error("expected schedule enabled")
	}
	if retrieved.QuietStart != "22:00" || retrieved.QuietEnd != "07:00" {
		t.Errorf("quiet hours not persisted: %s-%s", retrieved.QuietStart, retrieved.QuietEnd)
	}
	if retrieved.TriggerCount != 0 || retrieved.LastTriggeredAt != "" {
		t.Error("fresh schedule must have no trigger history")
	}
}

// One active schedule per (flow, time of day, kind).
func TestScheduleRepository_UniquePerFlowTimeKind(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()
	seedFlow(t, db, "FLOW-001", "")

	if err := repo.Create(ctx, reminderRecord("SCHED-001", "FLOW-001", "09:00")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Create(ctx, reminderRecord("SCHED-002", "FLOW-001", "09:00")); err == nil {
		t.Error("expected duplicate (flow, time, kind) rejected")
	}

	// Different time of day is fine.
	if err := repo.Create(ctx, reminderRecord("SCHED-003", "FLOW-001", "18:00")); err != nil {
		t.Errorf("different time of day should be allowed: %v", err)
	}
}

func TestScheduleRepository_MarkTriggered(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()
	seedFlow(t, db, "FLOW-001", "")

	if err := repo.Create(ctx, reminderRecord("SCHED-001", "FLOW-001", "09:00")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.MarkTriggered(ctx, "SCHED-001", "2024-06-10T09:00:00Z"); err != nil {
		t.Fatalf("MarkTriggered failed: %v", err)
	}
	if err := repo.MarkTriggered(ctx, "SCHED-001", "2024-06-11T09:00:00Z"); err != nil {
		t.Fatalf("second MarkTriggered failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, "SCHED-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.LastTriggeredAt != "2024-06-11T09:00:00Z" {
		t.Errorf("expected last trigger advanced, got %s", retrieved.LastTriggeredAt)
	}
	if retrieved.TriggerCount != 2 {
		t.Errorf("expected trigger count 2, got %d", retrieved.TriggerCount)
	}
}

func TestScheduleRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()
	seedFlow(t, db, "FLOW-001", "")
	seedFlow(t, db, "FLOW-002", "")

	if err := repo.Create(ctx, reminderRecord("SCHED-001", "FLOW-001", "09:00")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, reminderRecord("SCHED-002", "FLOW-002", "09:00")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.SetEnabled(ctx, "SCHED-002", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	byFlow, err := repo.List(ctx, secondary.ScheduleFilters{FlowID: "FLOW-001"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byFlow) != 1 || byFlow[0].ID != "SCHED-001" {
		t.Errorf("flow filter wrong: %d results", len(byFlow))
	}

	enabled, err := repo.List(ctx, secondary.ScheduleFilters{EnabledOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(enabled) != 1 || enabled[0].ID != "SCHED-001" {
		t.Errorf("enabled filter wrong: %d results", len(enabled))
	}
}

func TestScheduleRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()
	seedFlow(t, db, "FLOW-001", "")

	if err := repo.Create(ctx, reminderRecord("SCHED-001", "FLOW-001", "09:00")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, "SCHED-001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "SCHED-001"); err == nil {
		t.Error("expected schedule gone")
	}
	if err := repo.Delete(ctx, "SCHED-001"); err == nil {
		t.Error("expected error deleting missing schedule")
	}
}
