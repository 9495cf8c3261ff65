package transport

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/seat-settlement/internal/service"
	"github.com/ds124wfegd/seat-settlement/internal/transport/middleware"
)

type SeatHandler struct {
	seatService service.EventSeatService
}

func NewSeatHandler(seatService service.EventSeatService) *SeatHandler {
	return &SeatHandler{seatService: seatService}
}

func (h *SeatHandler) InitializeSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.InitializeSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	seats, err := h.seatService.InitializeSeats(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"created": len(seats), "seats": seats})
}

func (h *SeatHandler) ImportBrokerSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.ImportBrokerSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	seats, err := h.seatService.ImportBrokerSeats(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"imported": len(seats), "seats": seats})
}

func (h *SeatHandler) GetSeat(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	seat, err := h.seatService.GetSeat(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, seat)
}

func (h *SeatHandler) ListSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	seats, total, err := h.seatService.ListSeats(c.Request.Context(), middleware.TenantID(c), eventID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, seats, gin.H{"total": total, "limit": limit, "offset": offset})
}

func (h *SeatHandler) HoldSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.HoldSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	seats, err := h.seatService.HoldSeats(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, seats)
}

func (h *SeatHandler) ReleaseHolds(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.ReleaseHoldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	if err := h.seatService.ReleaseHolds(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"released": true})
}

func (h *SeatHandler) BlockSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.BlockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	if err := h.seatService.BlockSeats(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"blocked": true})
}

func (h *SeatHandler) UnblockSeats(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	var req service.UnblockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	req.TenantID = middleware.TenantID(c)
	req.EventID = eventID

	if err := h.seatService.UnblockSeats(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"unblocked": true})
}

func (h *SeatHandler) GetStatistics(c *gin.Context) {
	eventID, ok := paramID(c, "event_id")
	if !ok {
		return
	}

	stats, err := h.seatService.GetStatistics(c.Request.Context(), middleware.TenantID(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
