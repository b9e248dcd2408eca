package app

import (
	"fmt"
	"net/http"
)

// DomainError is an error the HTTP layer reports as-is: Status and Code go
// into the response envelope, Details is attached when non-nil.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// badRequest rejects caller input to Build or Open, such as a blank address
// or an unreadable export.
func badRequest(code string, err error) *DomainError {
	return domainError(http.StatusBadRequest, code, err.Error(), nil)
}
