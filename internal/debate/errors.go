// Package debate implements the round orchestration and convergence-control
// engine: retrying outbound calls, driving tool-call negotiations, validating
// structured agent output, executing rounds under a strategy, and deciding
// when a debate has converged and may stop early.
package debate

import (
	"fmt"
)

// ErrorKind classifies a failed outbound call. Classification happens once,
// at the HTTP boundary that produced the failure; the retry policy only
// consults the resulting tag.
type ErrorKind string

const (
	ErrKindRateLimited ErrorKind = "rate_limited"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindNetwork     ErrorKind = "network"
	ErrKindAuth        ErrorKind = "auth"
	ErrKindBadRequest  ErrorKind = "bad_request"
	ErrKindOther       ErrorKind = "other"
)

// CallError is a classified failure from an outbound call. Retryable reflects
// the classifier's judgment for the kind; the retry policy may override it via
// an explicit allow-list.
type CallError struct {
	Kind      ErrorKind
	Retryable bool
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewCallError wraps err with a classification tag. Rate limits, timeouts and
// network failures are retryable by default; auth and bad-request failures
// are not.
func NewCallError(kind ErrorKind, err error) *CallError {
	retryable := false
	switch kind {
	case ErrKindRateLimited, ErrKindTimeout, ErrKindNetwork:
		retryable = true
	}
	return &CallError{
		Kind:      kind,
		Retryable: retryable,
		Err:       err,
	}
}
