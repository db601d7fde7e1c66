package idempotency

import (
	"context"
	"errors"
	"time"

	"refund-lifecycle-be/internal/pkg/logger"
)

// ErrInProgress is returned when another request holds the key and has not finished.
var ErrInProgress = errors.New("a request with this idempotency key is still in progress")

// DefaultTTL bounds how long a key is remembered.
const DefaultTTL = 24 * time.Hour

const pendingMarker = "__pending__"

// Store remembers which resource an idempotency key produced.
type Store interface {
	// Reserve claims key. It returns the committed value and false when the key was
	// already used, or ErrInProgress when it is reserved but not yet committed.
	Reserve(ctx context.Context, key string) (value string, reserved bool, err error)
	// Commit records the value produced for a reserved key.
	Commit(ctx context.Context, key, value string) error
	// Release forgets a reserved key after a failed request so it may be reused.
	Release(ctx context.Context, key string) error
}

// Do runs fn at most once per key and returns the value it produced.
// When the value cannot be committed the key is released, so a replay runs fn
// again instead of waiting out the TTL behind a pending marker.
func Do(ctx context.Context, s Store, log logger.ILogger, key string, fn func() (string, error)) (value string, replayed bool, err error) {
	existing, reserved, err := s.Reserve(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !reserved {
		return existing, true, nil
	}

	value, err = fn()
	if err != nil {
		release(ctx, s, log, key)
		return "", false, err
	}
	if err := s.Commit(ctx, key, value); err != nil {
		if err = s.Commit(ctx, key, value); err != nil {
			log.Error("IDEMPOTENCY", "Failed to commit idempotency key", map[string]interface{}{
				"key":   key,
				"value": value,
				"error": err.Error(),
			})
			release(ctx, s, log, key)
		}
	}
	return value, false, nil
}

func release(ctx context.Context, s Store, log logger.ILogger, key string) {
	if err := s.Release(ctx, key); err != nil {
		log.Error("IDEMPOTENCY", "Failed to release idempotency key", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
