package domain

import (
	"errors"
	"fmt"
)

// FailureMessage is shown for every failed submission regardless of cause.
const FailureMessage = "Failed to generate critique"

const (
	DefaultMaxWidth = 800
	DefaultQuality  = 0.8
)

var (
	ErrDecode            = errors.New("image could not be decoded")
	ErrUnsupportedMedia  = errors.New("file is not an image")
	ErrNetwork           = errors.New("analysis service unreachable")
	ErrRequest           = errors.New("analysis request rejected")
	ErrMalformedResponse = errors.New("malformed analysis response")

	ErrNoImage            = errors.New("no image selected")
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrQuotaExceeded      = errors.New("daily submission limit reached")

	ErrSendingReplyFailed = errors.New("failed to send reply")
)

// RequestError reports a non-success status from a reachable analysis service.
type RequestError struct {
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrRequest, e.StatusCode)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequest
}
