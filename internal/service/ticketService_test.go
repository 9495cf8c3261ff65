package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

func TestCreateTicketsFromSeatsValidation(t *testing.T) {
	s := &ticketService{logger: logrus.New()}
	negative := -5.0

	tests := []struct {
		name    string
		req     *CreateTicketsRequest
		wantErr string
	}{
		{
			name:    "empty seat set",
			req:     &CreateTicketsRequest{SeatIDs: nil},
			wantErr: "seat_ids must not be empty",
		},
		{
			name:    "duplicate seats",
			req:     &CreateTicketsRequest{SeatIDs: []int64{4, 4}},
			wantErr: "duplicate seat id 4",
		},
		{
			name:    "negative price",
			req:     &CreateTicketsRequest{SeatIDs: []int64{1}, Price: &negative},
			wantErr: "ticket price cannot be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTicketsFromSeats(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, entity.KindValidation, entity.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSeatSet(t *testing.T) {
	assert.Error(t, validateSeatSet(nil))
	assert.Error(t, validateSeatSet([]int64{1, 2, 1}))
	assert.NoError(t, validateSeatSet([]int64{1, 2, 3}))
}
