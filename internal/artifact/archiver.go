package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
)

// maxArchivedBytes caps how much of a case's captured stdout is kept,
// so a runaway program's output doesn't balloon object storage.
const maxArchivedBytes = 64 * 1024

// Archiver captures the stdout of a non-Accepted case for later
// inspection. Implementations must never make judging fail: callers
// log a failed archive and move on.
type Archiver interface {
	ArchiveCaseOutput(ctx context.Context, jobID uint32, caseIndex int, stdoutPath string) error
}

// ObjectArchiver is the standard Archiver, backed by any ObjectStorage.
type ObjectArchiver struct {
	storage ObjectStorage
}

// NewObjectArchiver wraps storage as an Archiver, ensuring its bucket
// exists up front.
func NewObjectArchiver(ctx context.Context, storage ObjectStorage) (*ObjectArchiver, error) {
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return &ObjectArchiver{storage: storage}, nil
}

// ArchiveCaseOutput uploads up to maxArchivedBytes of stdoutPath under
// a key namespaced by job and case.
func (a *ObjectArchiver) ArchiveCaseOutput(ctx context.Context, jobID uint32, caseIndex int, stdoutPath string) error {
	f, err := os.Open(stdoutPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size > maxArchivedBytes {
		size = maxArchivedBytes
	}

	key := fmt.Sprintf("jobs/%d/cases/%d/stdout.txt", jobID, caseIndex)
	return a.storage.Put(ctx, key, io.LimitReader(f, size), size, "text/plain; charset=utf-8")
}
