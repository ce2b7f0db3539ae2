package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/ports/secondary"
)

// stubSyncService records enqueued mutations without sending anything.
type stubSyncService struct {
	mu       sync.Mutex
	enqueued []primary.EnqueueRequest
}

func (s *stubSyncService) Enqueue(_ context.Context, req primary.EnqueueRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, req)
	return fmt.Sprintf("q-%d", len(s.enqueued)), nil
}

func (s *stubSyncService) Flush(context.Context) error { return nil }

func (s *stubSyncService) Status(context.Context, string) (string, error) {
	return secondary.MutationDone, nil
}

func (s *stubSyncService) Summary(context.Context) (*primary.QueueSummary, error) {
	return &primary.QueueSummary{}, nil
}

func (s *stubSyncService) Failed(context.Context) ([]*primary.FailedMutation, error) {
	return nil, nil
}

func (s *stubSyncService) SignalOnline() {}

func (s *stubSyncService) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubSyncService) requests() []primary.EnqueueRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]primary.EnqueueRequest, len(s.enqueued))
	copy(out, s.enqueued)
	return out
}

// mockQueueStore is an in-memory QueueStore for engine tests. All methods
// are safe for concurrent use; events records every state transition in
// order so tests can assert the lifecycle of a mutation.
type mockQueueStore struct {
	mu      sync.Mutex
	records map[string]*secondary.MutationRecord
	order   []string
	events  []string
}

func newMockQueueStore() *mockQueueStore {
	return &mockQueueStore{records: make(map[string]*secondary.MutationRecord)}
}

func (m *mockQueueStore) Append(_ context.Context, rec *secondary.MutationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	m.order = append(m.order, rec.ID)
	m.events = append(m.events, rec.ID+":pending")
	return nil
}

func (m *mockQueueStore) GetByID(_ context.Context, id string) (*secondary.MutationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *mockQueueStore) ListPending(_ context.Context, dueBy string, _ func(id, reason string)) ([]*secondary.MutationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.MutationRecord
	for _, id := range m.order {
		rec, ok := m.records[id]
		if !ok || rec.Status != secondary.MutationPending {
			continue
		}
		if rec.NextAttemptAt != "" && rec.NextAttemptAt > dueBy {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockQueueStore) MarkInFlight(_ context.Context, id string) error {
	return m.setStatus(id, secondary.MutationInFlight)
}

func (m *mockQueueStore) MarkPending(_ context.Context, id string, attempts int, nextAttemptAt, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("mutation not found: %s", id)
	}
	rec.Status = secondary.MutationPending
	rec.Attempts = attempts
	rec.NextAttemptAt = nextAttemptAt
	rec.LastError = lastError
	m.events = append(m.events, id+":pending")
	return nil
}

func (m *mockQueueStore) MarkFailed(_ context.Context, id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("mutation not found: %s", id)
	}
	rec.Status = secondary.MutationFailed
	rec.LastError = lastError
	m.events = append(m.events, id+":failed")
	return nil
}

func (m *mockQueueStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	m.events = append(m.events, id+":deleted")
	return nil
}

func (m *mockQueueStore) ReleaseInFlight(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.records {
		if rec.Status == secondary.MutationInFlight {
			rec.Status = secondary.MutationPending
			n++
		}
	}
	return n, nil
}

func (m *mockQueueStore) CountByStatus(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, rec := range m.records {
		counts[rec.Status]++
	}
	return counts, nil
}

func (m *mockQueueStore) ListFailed(_ context.Context) ([]*secondary.MutationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.MutationRecord
	for _, id := range m.order {
		rec, ok := m.records[id]
		if !ok || rec.Status != secondary.MutationFailed {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockQueueStore) setStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("mutation not found: %s", id)
	}
	rec.Status = status
	m.events = append(m.events, id+":"+status)
	return nil
}

func (m *mockQueueStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockQueueStore) eventLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	copy(out, m.events)
	return out
}

// stubTransport records every send and answers via the respond function,
// which receives the 1-based call number for that idempotency key.
type stubTransport struct {
	mu      sync.Mutex
	calls   []secondary.SendRequest
	perKey  map[string]int
	respond func(call int, req secondary.SendRequest) (*secondary.SendResult, error)
}

func newStubTransport(respond func(call int, req secondary.SendRequest) (*secondary.SendResult, error)) *stubTransport {
	return &stubTransport{perKey: make(map[string]int), respond: respond}
}

func (t *stubTransport) Send(_ context.Context, req secondary.SendRequest) (*secondary.SendResult, error) {
	t.mu.Lock()
	t.calls = append(t.calls, req)
	t.perKey[req.IdempotencyKey]++
	call := t.perKey[req.IdempotencyKey]
	t.mu.Unlock()
	if t.respond == nil {
		return &secondary.SendResult{}, nil
	}
	return t.respond(call, req)
}

func (t *stubTransport) sentIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.calls))
	for _, c := range t.calls {
		out = append(out, c.EntityID)
	}
	return out
}

func (t *stubTransport) sentKeys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.calls))
	for _, c := range t.calls {
		out = append(out, c.IdempotencyKey)
	}
	return out
}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// mockActivityLog records sync events for assertion.
type mockActivityLog struct {
	mu     sync.Mutex
	syncs  []string
	writes []string
}

func (m *mockActivityLog) LogCreate(_ context.Context, entityType, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "create:"+entityType+":"+entityID)
	return nil
}

func (m *mockActivityLog) LogUpdate(_ context.Context, entityType, entityID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "update:"+entityType+":"+entityID)
	return nil
}

func (m *mockActivityLog) LogDelete(_ context.Context, entityType, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "delete:"+entityType+":"+entityID)
	return nil
}

func (m *mockActivityLog) LogSync(_ context.Context, _, entityID, event, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs = append(m.syncs, event+":"+entityID)
	return nil
}

func (m *mockActivityLog) Recent(_ context.Context, _ int) ([]*secondary.ActivityRecord, error) {
	return nil, nil
}

func (m *mockActivityLog) syncEvents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.syncs))
	copy(out, m.syncs)
	return out
}

// mockFlowRepo is an in-memory FlowRepository.
type mockFlowRepo struct {
	mu    sync.Mutex
	flows map[string]*secondary.FlowRecord
	order []string
}

func newMockFlowRepo() *mockFlowRepo {
	return &mockFlowRepo{flows: make(map[string]*secondary.FlowRecord)}
}

func (m *mockFlowRepo) Create(_ context.Context, flow *secondary.FlowRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *flow
	m.flows[flow.ID] = &cp
	m.order = append(m.order, flow.ID)
	return nil
}

func (m *mockFlowRepo) GetByID(_ context.Context, id string) (*secondary.FlowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.flows[id]
	if !ok {
		return nil, fmt.Errorf("flow not found: %s", id)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockFlowRepo) Update(_ context.Context, flow *secondary.FlowRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flows[flow.ID]; !ok {
		return fmt.Errorf("flow not found: %s", flow.ID)
	}
	cp := *flow
	m.flows[flow.ID] = &cp
	return nil
}

func (m *mockFlowRepo) SetArchived(_ context.Context, id string, archived bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.flows[id]
	if !ok {
		return fmt.Errorf("flow not found: %s", id)
	}
	rec.Archived = archived
	return nil
}

func (m *mockFlowRepo) List(_ context.Context, filters secondary.FlowFilters) ([]*secondary.FlowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.FlowRecord
	for _, id := range m.order {
		rec := m.flows[id]
		if rec.Archived && !filters.IncludeArchived {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

// mockEntryRepo is an in-memory EntryRepository keyed by flow ID and date.
type mockEntryRepo struct {
	mu      sync.Mutex
	entries map[string]*secondary.EntryRecord
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[string]*secondary.EntryRecord)}
}

func entryKey(flowID, date string) string {
	return flowID + "|" + date
}

func (m *mockEntryRepo) Upsert(_ context.Context, entry *secondary.EntryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entryKey(entry.FlowID, entry.Date)] = &cp
	return nil
}

func (m *mockEntryRepo) GetByFlowAndDate(_ context.Context, flowID, date string) (*secondary.EntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.entries[entryKey(flowID, date)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *mockEntryRepo) ListByDate(_ context.Context, date string) ([]*secondary.EntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.EntryRecord
	for _, rec := range m.entries {
		if rec.Date == date {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) ListRange(_ context.Context, flowID, from, to string) ([]*secondary.EntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.EntryRecord
	for _, rec := range m.entries {
		if rec.FlowID == flowID && rec.Date >= from && rec.Date <= to {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) Delete(_ context.Context, flowID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entryKey(flowID, date))
	return nil
}

// mockScheduleRepo is an in-memory ScheduleRepository.
type mockScheduleRepo struct {
	mu    sync.Mutex
	items map[string]*secondary.ScheduleRecord
	order []string
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{items: make(map[string]*secondary.ScheduleRecord)}
}

func (m *mockScheduleRepo) Create(_ context.Context, sched *secondary.ScheduleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sched
	m.items[sched.ID] = &cp
	m.order = append(m.order, sched.ID)
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*secondary.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("schedule not found: %s", id)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockScheduleRepo) List(_ context.Context, filters secondary.ScheduleFilters) ([]*secondary.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ScheduleRecord
	for _, id := range m.order {
		rec := m.items[id]
		if filters.FlowID != "" && rec.FlowID != filters.FlowID {
			continue
		}
		if filters.EnabledOnly && !rec.Enabled {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockScheduleRepo) SetEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}
	rec.Enabled = enabled
	return nil
}

func (m *mockScheduleRepo) MarkTriggered(_ context.Context, id, firedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return fmt.Errorf("schedule not found: %s", id)
	}
	rec.LastTriggeredAt = firedAt
	rec.TriggerCount++
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// mockNotifier records delivered notifications.
type mockNotifier struct {
	mu    sync.Mutex
	fired []secondary.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n secondary.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fired = append(m.fired, n)
	return nil
}

func (m *mockNotifier) firedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fired)
}

// Interface assertions for the test doubles.
var (
	_ primary.SyncService          = (*stubSyncService)(nil)
	_ secondary.QueueStore         = (*mockQueueStore)(nil)
	_ secondary.Transport          = (*stubTransport)(nil)
	_ secondary.ActivityLog        = (*mockActivityLog)(nil)
	_ secondary.FlowRepository     = (*mockFlowRepo)(nil)
	_ secondary.EntryRepository    = (*mockEntryRepo)(nil)
	_ secondary.ScheduleRepository = (*mockScheduleRepo)(nil)
	_ secondary.Notifier           = (*mockNotifier)(nil)
)
