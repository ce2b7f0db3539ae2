// Package queue contains the pure decision logic of the sync queue:
// idempotency key derivation, retry backoff, and transport error
// classification. The stateful engine lives in internal/app.
package queue

import (
	"crypto/sha256"
	"encoding/hex"
)

// IdempotencyKey derives the deterministic replay token for a mutation.
// The same (operation, entityType, entityID, nonce) tuple always yields the
// same key, so a re-send after a crash or timeout carries the token of the
// original attempt and the remote side can collapse it into a no-op.
func IdempotencyKey(operation, entityType, entityID, nonce string) string {
	sum := sha256.Sum256([]byte(operation + "|" + entityType + "|" + entityID + "|" + nonce))
	return hex.EncodeToString(sum[:])
}
