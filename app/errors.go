package app

import (
	"context"
	"errors"
)

var (
	// ErrConfiguration is returned before any scanning starts: bad roots,
	// non-positive batch size or worker count, unknown hash mode, or a
	// datastore that cannot be reached at schema-ensure time.
	ErrConfiguration = errors.New("configuration error")

	// ErrAccess is a per-file metadata failure. The file is skipped and
	// counted; the run continues.
	ErrAccess = errors.New("access error")

	// ErrRead is a per-file hashing failure mid-read. The whole record is
	// dropped and counted; the run continues.
	ErrRead = errors.New("read error")

	// ErrConnectivity is a transient datastore failure. Batch writes are
	// retried with backoff before it escalates to fatal.
	ErrConnectivity = errors.New("connectivity error")

	// ErrSchema is a fatal target-schema mismatch. No further batches are
	// attempted.
	ErrSchema = errors.New("schema error")

	// ErrFailFast wraps the first batch failure when fail-fast mode aborts
	// the run.
	ErrFailFast = errors.New("fail-fast abort")
)

// Exit codes per fatal category.
const (
	ExitOK            = 0
	ExitFailed        = 1
	ExitConfiguration = 2
	ExitConnectivity  = 3
	ExitSchema        = 4
	ExitFailFast      = 5
)

// ExitCode maps a run error to the process exit status. Per-file skips are
// not failures of the run and never reach here.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrFailFast):
		return ExitFailFast
	case errors.Is(err, ErrSchema):
		return ExitSchema
	case errors.Is(err, ErrConnectivity):
		return ExitConnectivity
	default:
		return ExitFailed
	}
}

// isCanceled reports whether err stems from a graceful cancellation rather
// than a real failure.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
