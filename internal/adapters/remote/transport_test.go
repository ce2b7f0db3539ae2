package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/flowtrack/internal/adapters/remote"
	"github.com/example/flowtrack/internal/ports/secondary"
)

func sendReq() secondary.SendRequest {
	return secondary.SendRequest{
		Operation:      "create",
		EntityType:     "flow",
		EntityID:       "FLOW-001",
		Payload:        []byte(`{"title":"Run"}`),
		IdempotencyKey: "key-abc",
	}
}

func TestHTTPTransport_SendCarriesIdempotencyKey(t *testing.T) {
	var gotKey, gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := remote.NewHTTPTransport(server.URL, 5*time.Second)
	result, err := transport.Send(context.Background(), sendReq())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Replayed {
		t.Error("fresh apply must not report replayed")
	}

	if gotKey != "key-abc" {
		t.Errorf("expected idempotency key header, got %q", gotKey)
	}
	if gotPath != "/v1/sync/flow" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotBody["operation"] != "create" || gotBody["entity_id"] != "FLOW-001" {
		t.Errorf("unexpected body: %v", gotBody)
	}
}

func TestHTTPTransport_ReplayHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Idempotent-Replay", "true")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := remote.NewHTTPTransport(server.URL, 5*time.Second)
	result, err := transport.Send(context.Background(), sendReq())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !result.Replayed {
		t.Error("expected replay reported as success with Replayed set")
	}
}

func TestHTTPTransport_ErrorCarriesStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "title required", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	transport := remote.NewHTTPTransport(server.URL, 5*time.Second)
	_, err := transport.Send(context.Background(), sendReq())
	if err == nil {
		t.Fatal("expected error")
	}

	var sendErr *secondary.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *SendError, got %T", err)
	}
	if sendErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", sendErr.StatusCode)
	}
	if sendErr.Body != "title required" {
		t.Errorf("expected body preserved, got %q", sendErr.Body)
	}
}

func TestHTTPTransport_NetworkErrorIsPlain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	transport := remote.NewHTTPTransport(server.URL, time.Second)
	_, err := transport.Send(context.Background(), sendReq())
	if err == nil {
		t.Fatal("expected error")
	}

	var sendErr *secondary.SendError
	if errors.As(err, &sendErr) {
		t.Error("network failure must not carry a status code")
	}
}

func TestOfflineTransport(t *testing.T) {
	transport := remote.NewOfflineTransport()
	_, err := transport.Send(context.Background(), sendReq())
	if !errors.Is(err, remote.ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
}
