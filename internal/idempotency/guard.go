// Package idempotency provides a generic exactly-once wrapper for
// mutating endpoints, keyed by a client-supplied idempotency key.
package idempotency

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lodgecore/pms/internal/model"
	"github.com/lodgecore/pms/internal/repository"
)

// ErrConflict signals a concurrent first use of the same key.  The
// caller should surface it as a retryable conflict; the stored response
// is never overwritten.
var ErrConflict = errors.New("idempotency key in concurrent use")

// Handler produces the response to guard.  It returns the HTTP status
// and the serialized body.
type Handler func(ctx context.Context) (int, []byte, error)

// Response is the guarded outcome.  Replayed is true when the response
// was served from the log without invoking the handler.
type Response struct {
	StatusCode int
	Body       []byte
	Replayed   bool
}

// Guard wraps mutating handlers with replay-safe exactly-once
// semantics.  Server-error responses are not recorded so clients can
// retry them with the same key.
type Guard struct {
	repo   *repository.IdempotencyRepo
	logger *zap.Logger
}

// NewGuard constructs an idempotency guard.
func NewGuard(repo *repository.IdempotencyRepo, logger *zap.Logger) *Guard {
	return &Guard{repo: repo, logger: logger}
}

// Do executes handler at most once per (property, key).  A repeated key
// returns the stored response verbatim.  An empty key disables the
// guard for callers that opt out of retry safety.
func (g *Guard) Do(ctx context.Context, propertyID uint64, key, method, path string, handler Handler) (*Response, error) {
	if key == "" {
		status, body, err := handler(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{StatusCode: status, Body: body}, nil
	}

	rec, err := g.repo.Get(ctx, propertyID, key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if rec != nil {
		g.logger.Debug("idempotent replay",
			zap.Uint64("property_id", propertyID),
			zap.String("key", key),
			zap.Int("status", rec.StatusCode))
		return &Response{StatusCode: rec.StatusCode, Body: rec.ResponseBody, Replayed: true}, nil
	}

	// Between the lookup above and the create below, a concurrent
	// request with the same key can also reach the handler.  The unique
	// (property, key) constraint settles the race: exactly one response
	// is recorded, the loser gets ErrConflict and its side effects are
	// its own handler's responsibility to keep idempotent.
	status, body, err := handler(ctx)
	if err != nil {
		return nil, err
	}
	if status < http.StatusInternalServerError {
		createErr := g.repo.Create(ctx, &model.IdempotencyRecord{
			PropertyID:   propertyID,
			Key:          key,
			Method:       method,
			Path:         path,
			StatusCode:   status,
			ResponseBody: body,
		})
		if errors.Is(createErr, repository.ErrConflict) {
			return nil, ErrConflict
		}
		if createErr != nil {
			return nil, createErr
		}
	}
	return &Response{StatusCode: status, Body: body}, nil
}
