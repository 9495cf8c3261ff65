package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/seat-settlement/internal/service"
	"github.com/ds124wfegd/seat-settlement/internal/transport/middleware"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) CreateTicketsFromSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.CreateTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	tickets, err := h.ticketService.CreateTicketsFromSeats(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"created": len(tickets), "tickets": tickets})
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, ticket)
}

func (h *TicketHandler) GetBookingTickets(c *gin.Context) {
	bookingID, ok := paramID(c, "id")
	if !ok {
		return
	}

	tickets, err := h.ticketService.GetBookingTickets(c.Request.Context(), middleware.TenantID(c), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tickets)
}

func (h *TicketHandler) GetEventTickets(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	tickets, err := h.ticketService.GetEventTickets(c.Request.Context(), middleware.TenantID(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tickets)
}

func (h *TicketHandler) GetTicketQR(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))

	png, err := h.ticketService.TicketQRCode(c.Request.Context(), middleware.TenantID(c), id, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
