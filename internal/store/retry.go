package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/lib/pq"
)

// serializationRetries bounds the busy-wait on lock contention spec §9
// asks for when multiple worker processes write concurrently.
const serializationRetries = 5

// isSerializationFailure reports whether err is Postgres SQLSTATE
// 40001 (serialization_failure), the class raised when two
// transactions under SERIALIZABLE isolation conflict.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001"
	}
	return false
}

// withSerializableRetry runs fn inside up to serializationRetries
// attempts, backing off with jitter between attempts whenever fn
// fails with a serialization conflict. fn is expected to run its own
// transaction and must be safe to re-run from scratch.
func withSerializableRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < serializationRetries; attempt++ {
		err = fn()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		backoff := time.Duration(attempt+1) * 10 * time.Millisecond
		backoff += time.Duration(rand.Intn(10)) * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
