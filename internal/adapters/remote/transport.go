// Package remote contains the HTTP adapter for the sync transport.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// replayHeader is set by the server when it recognized the idempotency key
// and returned the original result instead of applying the mutation again.
const replayHeader = "Idempotent-Replay"

// HTTPTransport implements secondary.Transport against the remote sync API.
// Every request carries its mutation's idempotency key; the server is
// contracted to collapse repeated keys into the prior result.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport creates a transport for the given base URL. The timeout
// bounds the whole request; the engine additionally applies its own
// per-send context deadline.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type sendBody struct {
	Operation string          `json:"operation"`
	EntityID  string          `json:"entity_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Send delivers one mutation. Non-2xx responses surface as *SendError so
// the engine can classify them by status code; transport-level failures
// (timeouts, resets) surface as plain wrapped errors.
func (t *HTTPTransport) Send(ctx context.Context, req secondary.SendRequest) (*secondary.SendResult, error) {
	body := sendBody{
		Operation: req.Operation,
		EntityID:  req.EntityID,
	}
	if len(req.Payload) > 0 {
		body.Payload = json.RawMessage(req.Payload)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mutation: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sync/%s", t.baseURL, req.EntityType)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send mutation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &secondary.SendResult{
			Replayed: resp.Header.Get(replayHeader) == "true",
		}, nil
	}

	// Bounded read: error bodies are short diagnostics, not payloads.
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, &secondary.SendError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(msg)),
	}
}

// Ensure HTTPTransport implements the interface
var _ secondary.Transport = (*HTTPTransport)(nil)
