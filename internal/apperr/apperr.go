package apperr

import (
	"errors"
	"fmt"
)

// Sentinels for the error taxonomy the handlers map onto HTTP statuses.
var (
	// ErrNotFound covers missing profiles, universities and cached fits.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument covers malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientCredits is always surfaced with the remaining
	// balance attached, never degraded to a free computation.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrUpstreamUnavailable covers search/embedding backends that are
	// down or timed out. Raw transport errors never cross this package.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// InsufficientCredits carries the remaining balance so the caller can show
// an actionable message instead of a generic failure.
type InsufficientCredits struct {
	CreditType string
	Requested  int
	Remaining  int
}

func (e *InsufficientCredits) Error() string {
	return fmt.Sprintf(
		"insufficient %s credits: requested=%d remaining=%d",
		e.CreditType,
		e.Requested,
		e.Remaining,
	)
}

func (e *InsufficientCredits) Unwrap() error { return ErrInsufficientCredits }
