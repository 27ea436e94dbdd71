package model

import "time"

// IdempotencyRecord stores the outcome of a mutating request keyed by the
// client-supplied idempotency key.  Records are write-once: a conflicting
// concurrent create is rejected by the unique (property_id, idem_key)
// constraint, never overwritten.  Server-error outcomes are not recorded
// so the client can safely retry with the same key.
type IdempotencyRecord struct {
	ID           uint64    // idempotency_log.id
	PropertyID   uint64    // idempotency_log.property_id
	Key          string    // idempotency_log.idem_key
	Method       string    // idempotency_log.method
	Path         string    // idempotency_log.path
	StatusCode   int       // idempotency_log.status_code
	ResponseBody []byte    // idempotency_log.response_body
	CreatedAt    time.Time // idempotency_log.created_at
}
