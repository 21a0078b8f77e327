package draftlib

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrSessionHalted = errors.New("editing session is halted and must be reloaded")
	ErrNoDocument    = errors.New("document has not been created yet")
	ErrSaveInFlight  = errors.New("a save attempt is already in flight")

	ErrTaskNotFound  = errors.New("upload task not found")
	ErrTaskNotFailed = errors.New("only failed upload tasks can be retried")
	ErrTaskBusy      = errors.New("upload task is already being processed")
	ErrTaskActive    = errors.New("upload task is currently being processed and cannot be removed")

	ErrScanInProgress = errors.New("a scan is already in progress")

	ErrDraftNotFound = errors.New("no fallback draft stored for this document")
)

// SaveErrorKind mirrors the save endpoint's failure taxonomy.
type SaveErrorKind string

const (
	SaveErrStale        SaveErrorKind = "StaleEdit"
	SaveErrUnauthorized SaveErrorKind = "Unauthorized"
	SaveErrTooLarge     SaveErrorKind = "TooLarge"
	SaveErrNetwork      SaveErrorKind = "NetworkError"
	SaveErrInternal     SaveErrorKind = "InternalError"
)

// SaveError is a classified failure returned by a save endpoint.
type SaveError struct {
	Kind    SaveErrorKind
	Message string
}

func (e *SaveError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("save failed: %s", e.Kind)
	}
	return fmt.Sprintf("save failed: %s: %s", e.Kind, e.Message)
}

// ClassifySaveError maps an arbitrary error from a SaveFunc onto the
// endpoint taxonomy. Unknown errors are treated as internal so they are
// retried by the normal dirty/timer mechanism rather than halting the
// session.
func ClassifySaveError(err error) SaveErrorKind {
	if err == nil {
		return ""
	}
	var se *SaveError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return SaveErrNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return SaveErrNetwork
	}
	return SaveErrInternal
}

// UploadError is a non-success HTTP outcome from an upload endpoint.
// Message carries the server-supplied message when one was present.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upload failed with status %d", e.StatusCode)
}
