package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMessage(t *testing.T) {
	err := NewConflictError("seats are not available for holding", 12, 34, 56)
	assert.Equal(t, "seats are not available for holding (seats: 12, 34, 56)", err.Error())

	plain := NewBusinessRuleError("booking %s is already cancelled", "BK-000001")
	assert.Equal(t, "booking BK-000001 is already cancelled", plain.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{name: "validation", err: NewValidationError("bad input"), kind: KindValidation},
		{name: "conflict", err: NewConflictError("taken", 1), kind: KindConflict},
		{name: "business rule", err: NewBusinessRuleError("overpaid"), kind: KindBusinessRule},
		{name: "concurrency", err: NewConcurrencyError("retry"), kind: KindConcurrency},
		{name: "wrapped domain error", err: fmt.Errorf("context: %w", NewNotFoundError("gone")), kind: KindNotFound},
		{name: "seat sentinel", err: ErrSeatNotFound, kind: KindNotFound},
		{name: "wrapped booking sentinel", err: fmt.Errorf("load: %w", ErrBookingNotFound), kind: KindNotFound},
		{name: "version mismatch sentinel", err: ErrConcurrentUpdate, kind: KindConcurrency},
		{name: "unknown error", err: fmt.Errorf("disk on fire"), kind: ErrorKind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}
