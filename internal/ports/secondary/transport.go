package secondary

import (
	"context"
	"fmt"
)

// SendRequest carries one mutation to the remote store.
type SendRequest struct {
	Operation      string
	EntityType     string
	EntityID       string
	Payload        []byte
	IdempotencyKey string
}

// SendResult reports a successful application. Replayed is set when the
// remote side recognized the idempotency key and returned the original
// result instead of applying the mutation again.
type SendResult struct {
	Replayed bool
}

// Transport defines the secondary port to the remote store. The server is
// contracted to treat a repeated idempotency key as a no-op returning the
// prior result; that contract, not client-side deduplication, is what turns
// at-least-once delivery into exactly-once application.
type Transport interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
}

// SendError is a transport failure that carried an HTTP-style status code.
// Failures without a code (timeouts, connection resets) surface as plain
// wrapped errors and are classified transient.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote rejected with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote rejected with status %d", e.StatusCode)
}
