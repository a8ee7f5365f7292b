// Package artifact archives the captured stdout of non-Accepted
// cases for later inspection. It is additive: judging correctness
// never depends on archiving succeeding. Adapted from the teacher's
// internal/storage object-storage clients, repointed from
// testcase-bundle storage (removed along with the static problem
// model it served) to judge-output archiving.
package artifact

import (
	"context"
	"io"
)

// ObjectStorage defines the common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}
