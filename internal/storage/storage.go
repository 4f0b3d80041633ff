// Package storage spools uploaded source files between the intake API
// and the worker processes. Both must see the same backing store: local
// disk only works when they share a volume, S3-compatible storage works
// anywhere.
package storage

import (
	"context"
	"io"
)

// FileStore is the contract for spooling source files.
type FileStore interface {
	// Save streams a file into the store under the given name and
	// returns the reference to record on the job.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Open returns a reader for a previously saved file reference.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
