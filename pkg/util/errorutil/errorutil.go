package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewInvalidTransaction reports a transaction the ledger refused to mine.
func NewInvalidTransaction(err error) error {
	return &DomainError{
		Code:       "INVALID_TRANSACTION",
		Message:    err.Error(),
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewContractError maps an (err uN) result of the ticket endpoints.
func NewContractError(code uint64, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	details["contract_code"] = code
	switch code {
	case 100:
		return NewDomainError("NOT_AUTHORIZED", "not authorized", http.StatusForbidden, details)
	case 101:
		return NewDomainError("NOT_FOUND", "ticket not found", http.StatusNotFound, details)
	case 102:
		return NewDomainError("INVALID_STATUS", "invalid status", http.StatusBadRequest, details)
	case 103:
		return NewDomainError("VALIDATION_FAILED", "invalid input", http.StatusBadRequest, details)
	default:
		return NewDomainError("CONTRACT_ERROR", fmt.Sprintf("contract returned u%d", code), http.StatusUnprocessableEntity, details)
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError returns the DomainError carried by err, or an internal
// error when there is none.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}
