package downloader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is used by backends for ids they do not know. The
	// Cancel/Archive contract swallows it.
	ErrNotFound = errors.New("download not found in backend")
	// ErrUnknownBackend is returned by New for unregistered names.
	ErrUnknownBackend = errors.New("unknown downloader backend")
)

// BackendError wraps a failure of a download backend.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Wrap returns err as a *BackendError, or nil if err is nil. Errors that are
// already BackendErrors are returned unchanged.
func Wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Backend: backend, Op: op, Err: err}
}

// IsBackendError reports whether err came from a backend.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
