package transport

import (
	"strconv"

	"github.com/gin-gonic/gin"

	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
	"github.com/ds124wfegd/seat-settlement/internal/service"
	"github.com/ds124wfegd/seat-settlement/internal/transport/middleware"
)

type BookingHandler struct {
	bookingService    service.BookingService
	settlementService service.SettlementService
}

func NewBookingHandler(bookingService service.BookingService, settlementService service.SettlementService) *BookingHandler {
	return &BookingHandler{
		bookingService:    bookingService,
		settlementService: settlementService,
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func (h *BookingHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)

	booking, err := h.settlementService.Checkout(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, booking)
}

func (h *BookingHandler) GetBookingByNumber(c *gin.Context) {
	number := c.Param("number")

	booking, err := h.bookingService.GetBookingByNumber(c.Request.Context(), middleware.TenantID(c), number)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, booking)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.BookingID = id

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, booking)
}

func (h *BookingHandler) SearchBookings(c *gin.Context) {
	filter := &repository.BookingFilter{
		Number:       c.Query("number"),
		Status:       entity.BookingStatus(c.Query("status")),
		PaymentState: entity.PaymentState(c.Query("payment_status")),
	}
	filter.EventID, _ = strconv.ParseInt(c.Query("event_id"), 10, 64)
	filter.CustomerID, _ = strconv.ParseInt(c.Query("customer_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookingService.SearchBookings(c.Request.Context(), middleware.TenantID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, bookings, gin.H{"limit": filter.Limit, "offset": filter.Offset})
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	if err := h.settlementService.CancelBooking(c.Request.Context(), middleware.TenantID(c), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"cancelled": true})
}
