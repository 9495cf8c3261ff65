package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name             string
		items            []BookingItem
		discountType     DiscountType
		discountValue    float64
		taxRate          float64
		expectedSubtotal float64
		expectedDiscount float64
		expectedTax      float64
		expectedTotal    float64
	}{
		{
			name: "two seats with percentage discount and tax",
			items: []BookingItem{
				{TotalPrice: 50},
				{TotalPrice: 50},
			},
			discountType:     DiscountTypePercentage,
			discountValue:    0,
			taxRate:          0.10,
			expectedSubtotal: 100,
			expectedDiscount: 0,
			expectedTax:      10,
			expectedTotal:    110,
		},
		{
			name: "percentage discount applies before tax",
			items: []BookingItem{
				{TotalPrice: 100},
			},
			discountType:     DiscountTypePercentage,
			discountValue:    10,
			taxRate:          0.10,
			expectedSubtotal: 100,
			expectedDiscount: 10,
			expectedTax:      9,
			expectedTotal:    99,
		},
		{
			name: "fixed discount",
			items: []BookingItem{
				{TotalPrice: 75.50},
				{TotalPrice: 24.50},
			},
			discountType:     DiscountTypeAmount,
			discountValue:    20,
			taxRate:          0,
			expectedSubtotal: 100,
			expectedDiscount: 20,
			expectedTax:      0,
			expectedTotal:    80,
		},
		{
			name: "discount larger than subtotal is clamped",
			items: []BookingItem{
				{TotalPrice: 30},
			},
			discountType:     DiscountTypeAmount,
			discountValue:    500,
			taxRate:          0.10,
			expectedSubtotal: 30,
			expectedDiscount: 30,
			expectedTax:      0,
			expectedTotal:    0,
		},
		{
			name:             "empty booking",
			items:            nil,
			discountType:     DiscountTypeAmount,
			discountValue:    0,
			taxRate:          0.10,
			expectedSubtotal: 0,
			expectedDiscount: 0,
			expectedTax:      0,
			expectedTotal:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{
				Items:         tt.items,
				DiscountType:  tt.discountType,
				DiscountValue: tt.discountValue,
				TaxRate:       tt.taxRate,
			}
			b.ComputeTotals()

			assert.InDelta(t, tt.expectedSubtotal, b.SubtotalAmount, MoneyEpsilon)
			assert.InDelta(t, tt.expectedDiscount, b.DiscountAmount, MoneyEpsilon)
			assert.InDelta(t, tt.expectedTax, b.TaxAmount, MoneyEpsilon)
			assert.InDelta(t, tt.expectedTotal, b.TotalAmount, MoneyEpsilon)
			assert.InDelta(t, tt.expectedTotal, b.DueBalance, MoneyEpsilon)
			assert.Equal(t, PaymentStateUnpaid, b.PaymentState)
		})
	}
}

func TestApplyPayment(t *testing.T) {
	b := &Booking{
		Items:        []BookingItem{{TotalPrice: 50}, {TotalPrice: 50}},
		DiscountType: DiscountTypeAmount,
		TaxRate:      0.10,
	}
	b.ComputeTotals()
	assert.InDelta(t, 110, b.DueBalance, MoneyEpsilon)

	b.ApplyPayment(60)
	assert.InDelta(t, 50, b.DueBalance, MoneyEpsilon)
	assert.Equal(t, PaymentStatePartiallyPaid, b.PaymentState)

	b.ApplyPayment(50)
	assert.Zero(t, b.DueBalance)
	assert.Equal(t, PaymentStatePaid, b.PaymentState)
}

func TestApplyPaymentSnapsResidualToZero(t *testing.T) {
	b := &Booking{
		Items: []BookingItem{{TotalPrice: 10.01}},
	}
	b.ComputeTotals()

	b.ApplyPayment(10.009)
	assert.Zero(t, b.DueBalance)
	assert.Equal(t, PaymentStatePaid, b.PaymentState)
}

func TestSyncBalance(t *testing.T) {
	b := &Booking{
		Items:   []BookingItem{{TotalPrice: 60}, {TotalPrice: 50}},
		TaxRate: 0,
	}
	b.ComputeTotals()
	assert.InDelta(t, 110, b.TotalAmount, MoneyEpsilon)

	// Payments of 60 and 50 completed, then the 60 is voided.
	b.SyncBalance(110)
	assert.InDelta(t, 0, b.DueBalance, MoneyEpsilon)
	assert.Equal(t, PaymentStatePaid, b.PaymentState)

	b.SyncBalance(50)
	assert.InDelta(t, 60, b.DueBalance, MoneyEpsilon)
	assert.Equal(t, PaymentStatePartiallyPaid, b.PaymentState)

	// Syncing again from the same ledger total changes nothing.
	b.SyncBalance(50)
	assert.InDelta(t, 60, b.DueBalance, MoneyEpsilon)

	// A ledger that somehow exceeds the total still clamps due at zero,
	// and an empty ledger clamps at the total.
	b.SyncBalance(200)
	assert.InDelta(t, 0, b.DueBalance, MoneyEpsilon)
	b.SyncBalance(0)
	assert.InDelta(t, 110, b.DueBalance, MoneyEpsilon)
	assert.Equal(t, PaymentStateUnpaid, b.PaymentState)
}
