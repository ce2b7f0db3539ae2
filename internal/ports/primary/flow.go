// Package primary defines the primary ports (driving interfaces) for the
// application: the operations the presentation layer calls into the core.
package primary

import (
	"context"
	"time"

	"github.com/example/flowtrack/internal/core/recurrence"
)

// Flow is a tracked recurring habit as exposed to callers.
type Flow struct {
	ID             string
	Title          string
	Rule           recurrence.Rule
	ActivationDate *time.Time
	Archived       bool
	CreatedAt      string
	UpdatedAt      string
}

// CreateFlowRequest contains parameters for creating a flow.
type CreateFlowRequest struct {
	Title          string
	Rule           recurrence.Rule
	ActivationDate *time.Time
}

// UpdateFlowRequest contains parameters for updating a flow. Title is
// updated when non-empty; Rule replaces the active rule when non-nil.
// Replacing the rule does not retroactively change recorded entries.
type UpdateFlowRequest struct {
	FlowID         string
	Title          string
	Rule           *recurrence.Rule
	ActivationDate *time.Time
}

// FlowService defines the primary port for flow operations. Every local
// write is also enqueued for the remote store.
type FlowService interface {
	// CreateFlow creates a new flow and enqueues the create mutation.
	CreateFlow(ctx context.Context, req CreateFlowRequest) (*Flow, error)

	// GetFlow retrieves a flow by ID.
	GetFlow(ctx context.Context, flowID string) (*Flow, error)

	// ListFlows lists flows, optionally including archived ones.
	ListFlows(ctx context.Context, includeArchived bool) ([]*Flow, error)

	// UpdateFlow updates a flow and enqueues the update mutation.
	UpdateFlow(ctx context.Context, req UpdateFlowRequest) (*Flow, error)

	// ArchiveFlow archives a flow and enqueues the update mutation.
	ArchiveFlow(ctx context.Context, flowID string) error

	// IsDue reports whether the flow is due on the given calendar date.
	IsDue(ctx context.Context, flowID string, date time.Time) (bool, error)
}
