package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/flowtrack/internal/core/recurrence"
	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/ports/secondary"
)

// FlowServiceImpl implements primary.FlowService. Every write lands in
// local persistence first and is then enqueued for the remote store; the
// local row is the authority for reads.
type FlowServiceImpl struct {
	flows    secondary.FlowRepository
	syncSvc  primary.SyncService
	activity secondary.ActivityLog
	now      func() time.Time
}

// NewFlowService creates a new flow service.
func NewFlowService(flows secondary.FlowRepository, syncSvc primary.SyncService, activity secondary.ActivityLog) *FlowServiceImpl {
	return &FlowServiceImpl{
		flows:    flows,
		syncSvc:  syncSvc,
		activity: activity,
		now:      time.Now,
	}
}

// flowPayload is the wire shape enqueued for flow mutations.
type flowPayload struct {
	Title          string `json:"title"`
	RuleKind       string `json:"rule_kind"`
	WeekDays       string `json:"week_days,omitempty"`
	MonthDays      string `json:"month_days,omitempty"`
	ActivationDate string `json:"activation_date,omitempty"`
	Archived       bool   `json:"archived"`
}

// CreateFlow creates a new flow and enqueues the create mutation.
func (s *FlowServiceImpl) CreateFlow(ctx context.Context, req primary.CreateFlowRequest) (*primary.Flow, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("flow title is required")
	}
	if err := validateRule(req.Rule); err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	rec := &secondary.FlowRecord{
		ID:        uuid.NewString(),
		Title:     req.Title,
		RuleKind:  string(req.Rule.Kind),
		WeekDays:  recurrence.EncodeWeekdays(req.Rule.Weekdays),
		MonthDays: recurrence.EncodeMonthDays(req.Rule.MonthDays),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ActivationDate != nil {
		rec.ActivationDate = req.ActivationDate.Format("2006-01-02")
	}

	if err := s.flows.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	s.logActivity(ctx, func() error {
		return s.activity.LogCreate(ctx, secondary.EntityFlow, rec.ID)
	})

	if err := s.enqueueFlow(ctx, secondary.OpCreate, rec); err != nil {
		return nil, err
	}
	return recordToFlow(rec), nil
}

// GetFlow retrieves a flow by ID.
func (s *FlowServiceImpl) GetFlow(ctx context.Context, flowID string) (*primary.Flow, error) {
	rec, err := s.flows.GetByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return recordToFlow(rec), nil
}

// ListFlows lists flows, oldest first.
func (s *FlowServiceImpl) ListFlows(ctx context.Context, includeArchived bool) ([]*primary.Flow, error) {
	records, err := s.flows.List(ctx, secondary.FlowFilters{IncludeArchived: includeArchived})
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	flows := make([]*primary.Flow, 0, len(records))
	for _, rec := range records {
		flows = append(flows, recordToFlow(rec))
	}
	return flows, nil
}

// UpdateFlow updates a flow and enqueues the update mutation. Rule changes
// apply from now on; recorded entries are untouched.
func (s *FlowServiceImpl) UpdateFlow(ctx context.Context, req primary.UpdateFlowRequest) (*primary.Flow, error) {
	rec, err := s.flows.GetByID(ctx, req.FlowID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		rec.Title = req.Title
	}
	if req.Rule != nil {
		if err := validateRule(*req.Rule); err != nil {
			return nil, err
		}
		rec.RuleKind = string(req.Rule.Kind)
		rec.WeekDays = recurrence.EncodeWeekdays(req.Rule.Weekdays)
		rec.MonthDays = recurrence.EncodeMonthDays(req.Rule.MonthDays)
	}
	if req.ActivationDate != nil {
		rec.ActivationDate = req.ActivationDate.Format("2006-01-02")
	}
	rec.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.flows.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}

	s.logActivity(ctx, func() error {
		return s.activity.LogUpdate(ctx, secondary.EntityFlow, rec.ID, "updated")
	})

	if err := s.enqueueFlow(ctx, secondary.OpUpdate, rec); err != nil {
		return nil, err
	}
	return recordToFlow(rec), nil
}

// ArchiveFlow archives a flow. Archival is an update on the remote side,
// not a delete: history stays queryable.
func (s *FlowServiceImpl) ArchiveFlow(ctx context.Context, flowID string) error {
	rec, err := s.flows.GetByID(ctx, flowID)
	if err != nil {
		return err
	}
	if rec.Archived {
		return nil
	}

	if err := s.flows.SetArchived(ctx, flowID, true); err != nil {
		return fmt.Errorf("failed to archive flow: %w", err)
	}
	rec.Archived = true

	s.logActivity(ctx, func() error {
		return s.activity.LogUpdate(ctx, secondary.EntityFlow, flowID, "archived")
	})

	return s.enqueueFlow(ctx, secondary.OpUpdate, rec)
}

// IsDue reports whether the flow is due on the given calendar date.
func (s *FlowServiceImpl) IsDue(ctx context.Context, flowID string, date time.Time) (bool, error) {
	rec, err := s.flows.GetByID(ctx, flowID)
	if err != nil {
		return false, err
	}
	rule, activation := recordRule(rec)
	return recurrence.IsDue(rule, activation, date), nil
}

func (s *FlowServiceImpl) enqueueFlow(ctx context.Context, op string, rec *secondary.FlowRecord) error {
	payload, err := json.Marshal(flowPayload{
		Title:          rec.Title,
		RuleKind:       rec.RuleKind,
		WeekDays:       rec.WeekDays,
		MonthDays:      rec.MonthDays,
		ActivationDate: rec.ActivationDate,
		Archived:       rec.Archived,
	})
	if err != nil {
		return fmt.Errorf("failed to encode flow payload: %w", err)
	}
	if _, err := s.syncSvc.Enqueue(ctx, primary.EnqueueRequest{
		Operation:  op,
		EntityType: secondary.EntityFlow,
		EntityID:   rec.ID,
		Payload:    payload,
	}); err != nil {
		return fmt.Errorf("failed to enqueue flow mutation: %w", err)
	}
	return nil
}

func (s *FlowServiceImpl) logActivity(_ context.Context, write func() error) {
	if s.activity == nil {
		return
	}
	// Advisory: an activity log failure never fails the operation.
	_ = write()
}

func validateRule(rule recurrence.Rule) error {
	switch rule.Kind {
	case recurrence.KindEveryDay, recurrence.KindWeekDays, recurrence.KindMonthDays:
		return nil
	default:
		return fmt.Errorf("unknown recurrence kind %q", rule.Kind)
	}
}

// recordRule reconstructs the recurrence rule and activation bound from a
// stored flow row.
func recordRule(rec *secondary.FlowRecord) (recurrence.Rule, *time.Time) {
	rule := recurrence.Rule{Kind: recurrence.Kind(rec.RuleKind)}
	switch rule.Kind {
	case recurrence.KindWeekDays:
		rule.Weekdays = recurrence.DecodeWeekdays(rec.WeekDays)
	case recurrence.KindMonthDays:
		rule.MonthDays = recurrence.DecodeMonthDays(rec.MonthDays)
	}

	var activation *time.Time
	if rec.ActivationDate != "" {
		if t, err := time.Parse("2006-01-02", rec.ActivationDate); err == nil {
			activation = &t
		}
	}
	return rule, activation
}

func recordToFlow(rec *secondary.FlowRecord) *primary.Flow {
	rule, activation := recordRule(rec)
	return &primary.Flow{
		ID:             rec.ID,
		Title:          rec.Title,
		Rule:           rule,
		ActivationDate: activation,
		Archived:       rec.Archived,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

// Ensure FlowServiceImpl implements the interface
var _ primary.FlowService = (*FlowServiceImpl)(nil)
