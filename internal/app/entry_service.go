package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/flowtrack/internal/core/recurrence"
	"github.com/example/flowtrack/internal/core/status"
	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/ports/secondary"
)

// EntryServiceImpl implements primary.EntryService.
type EntryServiceImpl struct {
	entries  secondary.EntryRepository
	flows    secondary.FlowRepository
	syncSvc  primary.SyncService
	activity secondary.ActivityLog
	now      func() time.Time
}

// NewEntryService creates a new entry service.
func NewEntryService(entries secondary.EntryRepository, flows secondary.FlowRepository, syncSvc primary.SyncService, activity secondary.ActivityLog) *EntryServiceImpl {
	return &EntryServiceImpl{
		entries:  entries,
		flows:    flows,
		syncSvc:  syncSvc,
		activity: activity,
		now:      time.Now,
	}
}

// entryPayload is the wire shape enqueued for entry mutations.
type entryPayload struct {
	FlowID      string `json:"flow_id"`
	Date        string `json:"date"`
	Symbol      string `json:"symbol,omitempty"`
	Count       int    `json:"count,omitempty"`
	Goal        int    `json:"goal,omitempty"`
	DurationMin int    `json:"duration_min,omitempty"`
}

// LogEntry creates or overwrites the entry for (flow, date). Logging on a
// day the flow is not due is allowed; the user knows better than the rule.
func (s *EntryServiceImpl) LogEntry(ctx context.Context, req primary.LogEntryRequest) (*primary.Entry, error) {
	if _, err := s.flows.GetByID(ctx, req.FlowID); err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	rec := &secondary.EntryRecord{
		ID:          uuid.NewString(),
		FlowID:      req.FlowID,
		Date:        req.Date.Format("2006-01-02"),
		Symbol:      req.Symbol,
		Count:       req.Count,
		Goal:        req.Goal,
		DurationMin: req.DurationMin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.entries.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record entry: %w", err)
	}

	s.logActivity(ctx, func() error {
		return s.activity.LogUpdate(ctx, secondary.EntityEntry, entryEntityID(rec.FlowID, rec.Date), "logged "+rec.Symbol)
	})

	payload, err := json.Marshal(entryPayload{
		FlowID:      rec.FlowID,
		Date:        rec.Date,
		Symbol:      rec.Symbol,
		Count:       rec.Count,
		Goal:        rec.Goal,
		DurationMin: rec.DurationMin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry payload: %w", err)
	}
	if _, err := s.syncSvc.Enqueue(ctx, primary.EnqueueRequest{
		Operation:  secondary.OpUpdate,
		EntityType: secondary.EntityEntry,
		EntityID:   entryEntityID(rec.FlowID, rec.Date),
		Payload:    payload,
	}); err != nil {
		return nil, fmt.Errorf("failed to enqueue entry mutation: %w", err)
	}

	return recordToEntry(rec), nil
}

// ClearEntry removes the entry for (flow, date) and enqueues the delete.
func (s *EntryServiceImpl) ClearEntry(ctx context.Context, flowID string, date time.Time) error {
	day := date.Format("2006-01-02")
	if err := s.entries.Delete(ctx, flowID, day); err != nil {
		return fmt.Errorf("failed to clear entry: %w", err)
	}

	s.logActivity(ctx, func() error {
		return s.activity.LogDelete(ctx, secondary.EntityEntry, entryEntityID(flowID, day))
	})

	payload, err := json.Marshal(entryPayload{FlowID: flowID, Date: day})
	if err != nil {
		return fmt.Errorf("failed to encode entry payload: %w", err)
	}
	if _, err := s.syncSvc.Enqueue(ctx, primary.EnqueueRequest{
		Operation:  secondary.OpDelete,
		EntityType: secondary.EntityEntry,
		EntityID:   entryEntityID(flowID, day),
		Payload:    payload,
	}); err != nil {
		return fmt.Errorf("failed to enqueue entry mutation: %w", err)
	}
	return nil
}

// ResolveStatus returns the semantic status of (flow, date).
func (s *EntryServiceImpl) ResolveStatus(ctx context.Context, flowID string, date, today time.Time) (status.Status, error) {
	rec, err := s.entries.GetByFlowAndDate(ctx, flowID, date.Format("2006-01-02"))
	if err != nil {
		return status.None, err
	}

	// An existing (flow, date) slot with no record reads as an empty
	// symbol: available in the past, none in the future.
	entry := &status.Entry{}
	if rec != nil {
		entry.Symbol = rec.Symbol
	}
	return status.Resolve(entry, date, today), nil
}

// DayView returns one slot per unarchived flow for the given date, in flow
// creation order. Due-ness comes from the recurrence rule, status from the
// entry record; the two are independent so manual overrides render.
func (s *EntryServiceImpl) DayView(ctx context.Context, date, today time.Time) ([]*primary.DaySlot, error) {
	flows, err := s.flows.List(ctx, secondary.FlowFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	day := date.Format("2006-01-02")
	entries, err := s.entries.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	byFlow := make(map[string]*secondary.EntryRecord, len(entries))
	for _, e := range entries {
		byFlow[e.FlowID] = e
	}

	slots := make([]*primary.DaySlot, 0, len(flows))
	for _, flowRec := range flows {
		rule, activation := recordRule(flowRec)

		slot := &primary.DaySlot{
			Flow: recordToFlow(flowRec),
			Due:  recurrence.IsDue(rule, activation, date),
		}
		entry := &status.Entry{}
		if rec, ok := byFlow[flowRec.ID]; ok {
			slot.Entry = recordToEntry(rec)
			entry.Symbol = rec.Symbol
		}
		slot.Status = status.Resolve(entry, date, today)
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *EntryServiceImpl) logActivity(_ context.Context, write func() error) {
	if s.activity == nil {
		return
	}
	_ = write()
}

// entryEntityID is the stable queue identity of an entry. The (flow, date)
// pair identifies the row, so repeated edits of the same day share a lane
// and keep their order.
func entryEntityID(flowID, date string) string {
	return flowID + ":" + date
}

func recordToEntry(rec *secondary.EntryRecord) *primary.Entry {
	return &primary.Entry{
		FlowID:      rec.FlowID,
		Date:        rec.Date,
		Symbol:      rec.Symbol,
		Count:       rec.Count,
		Goal:        rec.Goal,
		DurationMin: rec.DurationMin,
	}
}

// Ensure EntryServiceImpl implements the interface
var _ primary.EntryService = (*EntryServiceImpl)(nil)
