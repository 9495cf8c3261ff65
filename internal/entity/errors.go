package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind classifies engine errors for callers. Concurrency errors are
// safe to retry by reissuing the command; seat-set conflicts are not.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindBusinessRule ErrorKind = "business_rule"
	KindConcurrency  ErrorKind = "concurrency"
)

// DomainError carries the error kind, a human-readable message and, for
// seat-set conflicts, the identifiers of the seats that could not be
// transitioned.
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	SeatIDs []int64   `json:"seat_ids,omitempty"`
}

func (e *DomainError) Error() string {
	if len(e.SeatIDs) == 0 {
		return e.Message
	}
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return e.Message + " (seats: " + strings.Join(ids, ", ") + ")"
}

func NewValidationError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(message string, seatIDs ...int64) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message, SeatIDs: seatIDs}
}

func NewBusinessRuleError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

func NewConcurrencyError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindConcurrency, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind from err, unwrapping as needed. Sentinel
// repository errors map onto the taxonomy; anything else is reported as an
// empty kind so transport can treat it as an internal failure.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrSeatNotFound),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrLayoutNotFound):
		return KindNotFound
	case errors.Is(err, ErrPaymentAlreadyVoid):
		return KindBusinessRule
	case errors.Is(err, ErrConcurrentUpdate):
		return KindConcurrency
	}
	return ""
}

var (
	// Repository sentinels
	ErrSeatNotFound    = errors.New("event seat not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrLayoutNotFound  = errors.New("venue layout not found")

	// ErrPaymentAlreadyVoid is returned when a conditional void matches no
	// row because the payment is no longer completed.
	ErrPaymentAlreadyVoid = errors.New("payment already void")

	// ErrConcurrentUpdate is returned when an optimistic version check
	// matches no rows.
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)
