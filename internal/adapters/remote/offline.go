package remote

import (
	"context"
	"errors"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// ErrOffline is returned by the offline transport. It carries no status
// code, so the engine classifies it transient: mutations stay queued until
// a remote is configured and connectivity is signalled.
var ErrOffline = errors.New("no remote configured")

// OfflineTransport is the transport used when no remote URL is configured.
// The client keeps working; every write accumulates in the durable queue.
type OfflineTransport struct{}

// NewOfflineTransport creates the no-remote transport.
func NewOfflineTransport() *OfflineTransport {
	return &OfflineTransport{}
}

// Send always fails transiently.
func (t *OfflineTransport) Send(ctx context.Context, req secondary.SendRequest) (*secondary.SendResult, error) {
	return nil, ErrOffline
}

// Ensure OfflineTransport implements the interface
var _ secondary.Transport = (*OfflineTransport)(nil)
