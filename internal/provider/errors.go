package provider

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for upstream providers.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryBadData        Category = "bad_data"
	CategoryAuth           Category = "auth"
	CategoryOutage         Category = "outage"
	CategoryNotFound       Category = "not_found"
	CategoryRateLimited    Category = "rate_limited"
	CategoryQuotaExhausted Category = "quota_exhausted"
	CategoryInternal       Category = "internal"
)

// Error reports that a provider could not supply data. Callers treat every
// Error as a non-fatal "source unavailable" condition.
type Error struct {
	Category   Category
	Provider   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError builds an Error; timeouts, outages and rate limiting are retryable.
func NewError(category Category, provider, message string, underlying error) *Error {
	retryable := category == CategoryTimeout ||
		category == CategoryOutage ||
		category == CategoryRateLimited

	return &Error{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// CategoryOf extracts the category from err, defaulting to internal.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}

// IsUnavailable reports whether err came from a provider.
func IsUnavailable(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
