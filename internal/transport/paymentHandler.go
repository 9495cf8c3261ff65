package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/seat-settlement/internal/service"
	"github.com/ds124wfegd/seat-settlement/internal/transport/middleware"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	bookingID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.BookingID = bookingID

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, payment)
}

func (h *PaymentHandler) GetBookingPayments(c *gin.Context) {
	bookingID, ok := paramID(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.GetBookingPayments(c.Request.Context(), middleware.TenantID(c), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, payments)
}

func (h *PaymentHandler) VoidPayment(c *gin.Context) {
	paymentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.paymentService.VoidPayment(c.Request.Context(), middleware.TenantID(c), paymentID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"voided": true})
}
