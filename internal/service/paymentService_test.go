package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

func TestRecordPaymentValidation(t *testing.T) {
	s := &paymentService{logger: logrus.New()}

	tests := []struct {
		name    string
		req     *RecordPaymentRequest
		wantErr string
	}{
		{
			name:    "zero amount",
			req:     &RecordPaymentRequest{BookingID: 1, Amount: 0, Method: "cash"},
			wantErr: "payment amount must be positive",
		},
		{
			name:    "negative amount",
			req:     &RecordPaymentRequest{BookingID: 1, Amount: -25, Method: "cash"},
			wantErr: "payment amount must be positive",
		},
		{
			name:    "missing method",
			req:     &RecordPaymentRequest{BookingID: 1, Amount: 25},
			wantErr: "payment method is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RecordPayment(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Equal(t, entity.KindValidation, entity.KindOf(err))
		})
	}
}
