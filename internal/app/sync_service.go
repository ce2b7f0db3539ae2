package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/example/flowtrack/internal/core/queue"
	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/ports/secondary"
)

// SyncOptions tunes the engine. Zero values fall back to defaults except
// BaseBackoff, which may legitimately be zero (tests retry immediately).
type SyncOptions struct {
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	SendTimeout  time.Duration
	Workers      int
	TickInterval time.Duration
}

// DefaultSyncOptions returns the production tuning.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		MaxAttempts:  8,
		BaseBackoff:  500 * time.Millisecond,
		MaxBackoff:   5 * time.Minute,
		SendTimeout:  15 * time.Second,
		Workers:      4,
		TickInterval: 30 * time.Second,
	}
}

// SyncEngine implements primary.SyncService: a durable, idempotent,
// retrying mutation queue.
//
// The queue store is the single serialization point for queue state.
// Mutations for the same entity form a lane and are sent strictly in
// enqueue order; lanes run concurrently up to the worker limit. Flush is
// single-flight: a concurrent call marks the running flush to make another
// pass instead of racing it.
type SyncEngine struct {
	store     secondary.QueueStore
	transport secondary.Transport
	log       secondary.ActivityLog
	opts      SyncOptions
	now       func() time.Time

	mu       sync.Mutex
	flushing bool
	again    bool

	// wake carries enqueue kicks and online signals to the run loop.
	// Buffered size 1: signals coalesce but at least one delivery is
	// guaranteed for any burst.
	wake chan struct{}

	loaded atomic.Bool
}

// NewSyncEngine creates the engine. log may be nil.
func NewSyncEngine(store secondary.QueueStore, transport secondary.Transport, log secondary.ActivityLog, opts SyncOptions) *SyncEngine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 30 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Minute
	}

	return &SyncEngine{
		store:     store,
		transport: transport,
		log:       log,
		opts:      opts,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

// Load releases records stranded in_flight by a previous process. Safe to
// call more than once; the store is the source of truth, so a second load
// finds nothing to do.
func (s *SyncEngine) Load(ctx context.Context) error {
	if !s.loaded.CompareAndSwap(false, true) {
		return nil
	}
	n, err := s.store.ReleaseInFlight(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload queue: %w", err)
	}
	if n > 0 {
		s.logSync(ctx, "queue", "", "reloaded", fmt.Sprintf("%d in-flight records released", n))
	}
	return nil
}

// Enqueue durably persists a mutation and schedules a flush attempt. The
// idempotency key is derived once here, so every later re-send carries the
// same key.
func (s *SyncEngine) Enqueue(ctx context.Context, req primary.EnqueueRequest) (string, error) {
	switch req.Operation {
	case secondary.OpCreate, secondary.OpUpdate, secondary.OpDelete:
	default:
		return "", fmt.Errorf("unknown operation %q", req.Operation)
	}
	switch req.EntityType {
	case secondary.EntityFlow, secondary.EntityEntry:
	default:
		return "", fmt.Errorf("unknown entity type %q", req.EntityType)
	}
	if req.EntityID == "" {
		return "", fmt.Errorf("entity id is required")
	}

	nonce := req.Nonce
	if nonce == "" {
		nonce = uuid.NewString()
	}

	rec := &secondary.MutationRecord{
		ID:             uuid.NewString(),
		EntityType:     req.EntityType,
		EntityID:       req.EntityID,
		Operation:      req.Operation,
		Payload:        string(req.Payload),
		IdempotencyKey: queue.IdempotencyKey(req.Operation, req.EntityType, req.EntityID, nonce),
		Status:         secondary.MutationPending,
		EnqueuedAt:     s.now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to persist mutation: %w", err)
	}

	s.kick()
	return rec.ID, nil
}

// Flush drains eligible records. Single-flight: the losing caller returns
// immediately after marking the winner to run another pass, so nothing
// enqueued during a flush is lost or double-sent.
func (s *SyncEngine) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.flushing {
		s.again = true
		s.mu.Unlock()
		return nil
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	for {
		processed, err := s.flushPass(ctx)
		if err != nil {
			return err
		}

		s.mu.Lock()
		again := s.again
		s.again = false
		s.mu.Unlock()

		if processed == 0 && !again {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// flushPass sends one batch: the eligible pending records grouped into
// per-entity lanes, lanes dispatched to the worker pool. Returns the number
// of records acted on.
func (s *SyncEngine) flushPass(ctx context.Context) (int, error) {
	dueBy := s.now().UTC().Format(time.RFC3339)
	records, err := s.store.ListPending(ctx, dueBy, func(id, reason string) {
		s.logSync(ctx, "queue", id, "skipped", reason)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list pending mutations: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	// Group into lanes preserving enqueue order within each lane.
	lanes := make(map[string][]*secondary.MutationRecord)
	var order []string
	for _, rec := range records {
		laneID := rec.EntityType + "/" + rec.EntityID
		if _, ok := lanes[laneID]; !ok {
			order = append(order, laneID)
		}
		lanes[laneID] = append(lanes[laneID], rec)
	}

	sem := make(chan struct{}, s.opts.Workers)
	var wg sync.WaitGroup
	var processed atomic.Int64

	for _, laneID := range order {
		lane := lanes[laneID]
		wg.Add(1)
		sem <- struct{}{}
		go func(lane []*secondary.MutationRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			for _, rec := range lane {
				acted, stop := s.sendOne(ctx, rec)
				processed.Add(int64(acted))
				if stop {
					return
				}
			}
		}(lane)
	}

	wg.Wait()
	return int(processed.Load()), nil
}

// sendOne delivers a single record. The second return value stops the lane:
// a transient failure must not let a younger mutation for the same entity
// overtake the one that failed.
func (s *SyncEngine) sendOne(ctx context.Context, rec *secondary.MutationRecord) (int, bool) {
	if err := s.store.MarkInFlight(ctx, rec.ID); err != nil {
		return 0, true
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	result, err := s.transport.Send(sendCtx, secondary.SendRequest{
		Operation:      rec.Operation,
		EntityType:     rec.EntityType,
		EntityID:       rec.EntityID,
		Payload:        []byte(rec.Payload),
		IdempotencyKey: rec.IdempotencyKey,
	})
	cancel()

	if err == nil {
		event := "sent"
		if result != nil && result.Replayed {
			event = "replayed"
		}
		s.logSync(ctx, rec.EntityType, rec.EntityID, event, "")
		if err := s.store.Delete(ctx, rec.ID); err != nil {
			return 1, true
		}
		return 1, false
	}

	if classifySendError(err) == queue.ClassPermanent {
		_ = s.store.MarkFailed(ctx, rec.ID, err.Error())
		s.logSync(ctx, rec.EntityType, rec.EntityID, "rejected", err.Error())
		// Terminal: the record no longer gates the lane. Later
		// mutations for the entity proceed; the user resolves the
		// failure from the surfaced list.
		return 1, false
	}

	attempts := rec.Attempts + 1
	if attempts >= s.opts.MaxAttempts {
		_ = s.store.MarkFailed(ctx, rec.ID, err.Error())
		s.logSync(ctx, rec.EntityType, rec.EntityID, "exhausted", err.Error())
		return 1, false
	}

	delay := queue.Backoff(attempts, s.opts.BaseBackoff, s.opts.MaxBackoff)
	next := s.now().Add(delay).UTC().Format(time.RFC3339)
	_ = s.store.MarkPending(ctx, rec.ID, attempts, next, err.Error())
	return 1, true
}

// classifySendError maps a transport error to a retry class. Errors
// carrying a status code classify by code; anything else (timeout, reset,
// no remote) is transient.
func classifySendError(err error) queue.Class {
	var sendErr *secondary.SendError
	if errors.As(err, &sendErr) {
		return queue.ClassifyStatus(sendErr.StatusCode)
	}
	return queue.ClassTransient
}

// Status reports a mutation's state. A record absent from the store was
// confirmed by the remote side and deleted, so it reports done.
func (s *SyncEngine) Status(ctx context.Context, queueID string) (string, error) {
	rec, err := s.store.GetByID(ctx, queueID)
	if err != nil {
		return "", fmt.Errorf("failed to read mutation: %w", err)
	}
	if rec == nil {
		return secondary.MutationDone, nil
	}
	return rec.Status, nil
}

// Summary returns queue depth by status.
func (s *SyncEngine) Summary(ctx context.Context) (*primary.QueueSummary, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue: %w", err)
	}
	return &primary.QueueSummary{
		Pending:  counts[secondary.MutationPending],
		InFlight: counts[secondary.MutationInFlight],
		Failed:   counts[secondary.MutationFailed],
	}, nil
}

// Failed returns terminal failures awaiting manual resolution.
func (s *SyncEngine) Failed(ctx context.Context) ([]*primary.FailedMutation, error) {
	records, err := s.store.ListFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}

	failed := make([]*primary.FailedMutation, 0, len(records))
	for _, rec := range records {
		failed = append(failed, &primary.FailedMutation{
			QueueID:    rec.ID,
			Operation:  rec.Operation,
			EntityType: rec.EntityType,
			EntityID:   rec.EntityID,
			Attempts:   rec.Attempts,
			LastError:  rec.LastError,
			EnqueuedAt: rec.EnqueuedAt,
		})
	}
	return failed, nil
}

// SignalOnline wakes the run loop. Non-blocking: a signal while one is
// already queued coalesces with it.
func (s *SyncEngine) SignalOnline() {
	s.kick()
}

func (s *SyncEngine) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives flushes until ctx is done: one pass per tick interval, plus
// one whenever a wake signal (enqueue or connectivity restored) arrives.
func (s *SyncEngine) Run(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-s.wake:
		}

		if err := s.Flush(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logSync(ctx, "queue", "", "flush_error", err.Error())
		}
	}
}

func (s *SyncEngine) logSync(ctx context.Context, entityType, entityID, event, detail string) {
	if s.log == nil {
		return
	}
	// Advisory: a log write failure must not fail the sync operation.
	_ = s.log.LogSync(ctx, entityType, entityID, event, detail)
}

// Ensure SyncEngine implements the interface
var _ primary.SyncService = (*SyncEngine)(nil)
