package generation

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the provider answers with a structurally
// valid but textless response that was not flagged as blocked.
var ErrEmptyResponse = errors.New("empty response from model")

// BlockedError is returned when the provider suppressed the response under
// its content-safety policy.
type BlockedError struct {
	// Reason is the provider's block reason code, e.g. "SAFETY".
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("response blocked by safety filters: %s", e.Reason)
}

// retryableError marks transport-level failures worth retrying.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// isRetryableError reports whether the error is a transient failure.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
