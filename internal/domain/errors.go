package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("rejected by provider")
	ErrProvider        = errors.New("provider error")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrNothingMigrated = errors.New("no tracks could be migrated")
)

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindRateLimited
	KindNotFound
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindRateLimited:
		return ErrRateLimited
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	default:
		return ErrProvider
	}
}

// KindFromStatus maps an HTTP status code returned by a provider.
func KindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity, http.StatusPreconditionFailed:
		return KindValidation
	default:
		return KindUnknown
	}
}

// ProviderError is returned by every catalog adapter call that fails on the
// provider side.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Kind.sentinel() }

// NewProviderError builds a ProviderError from an HTTP status.
func NewProviderError(provider string, status int, message string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Kind:       KindFromStatus(status),
		StatusCode: status,
		Message:    message,
	}
}

// KindOf extracts the ErrorKind of err, KindUnknown if it has none.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	}
	return KindUnknown
}

// WriteError reports a mutation the destination provider rejected.
// Pending lists the requested IDs that were not written when the failure
// happened part way through a request. A nil Pending means nothing was
// written.
type WriteError struct {
	Op      string
	Err     error
	Pending []string
}

func (e *WriteError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

// UnwrittenIDs returns the IDs of ids that err reports as not written. Every
// ID counts as unwritten unless err is a WriteError carrying Pending.
func UnwrittenIDs(err error, ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	var we *WriteError
	if errors.As(err, &we) && we.Pending != nil {
		for _, id := range we.Pending {
			out[id] = true
		}
		return out
	}
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
