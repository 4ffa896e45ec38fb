package common

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the upload and download services. Handlers map
// them to HTTP statuses, callers match them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrGone               = errors.New("gone")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrPayloadTooLarge    = errors.New("payload too large for direct upload, use an upload session")
	ErrServiceUnavailable = errors.New("service unavailable: no active storage nodes")
	ErrStorageUnavailable = errors.New("storage temporarily unavailable, retry later")
	ErrCorruptChunk       = errors.New("reassembled data does not match recorded size")
)

// ChunksMissingError is returned when a session is completed before every
// chunk has been received.
type ChunksMissingError struct {
	Expected int
	Actual   int
}

func (e *ChunksMissingError) Error() string {
	return fmt.Sprintf("%d of %d chunks missing", e.Expected-e.Actual, e.Expected)
}

// Missing number of chunks still to be uploaded
func (e *ChunksMissingError) Missing() int {
	return e.Expected - e.Actual
}

// TransportError wraps the last failure after the retry budget of a blob
// transfer is spent.
type TransportError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrStorageUnavailable.
func (e *TransportError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
