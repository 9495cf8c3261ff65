package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Kind    string  `json:"kind,omitempty"`
	SeatIDs []int64 `json:"seat_ids,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

func respondList(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data, Meta: meta})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: message})
}

// respondError maps the error taxonomy onto HTTP statuses. Seat-set
// conflicts carry the offending seat IDs in the body.
func respondError(c *gin.Context, err error) {
	resp := ErrorResponse{Success: false, Error: err.Error()}

	var de *entity.DomainError
	if errors.As(err, &de) {
		resp.Kind = string(de.Kind)
		resp.SeatIDs = de.SeatIDs
	} else if kind := entity.KindOf(err); kind != "" {
		resp.Kind = string(kind)
	}

	var status int
	switch entity.KindOf(err) {
	case entity.KindValidation:
		status = http.StatusBadRequest
	case entity.KindNotFound:
		status = http.StatusNotFound
	case entity.KindConflict, entity.KindConcurrency:
		status = http.StatusConflict
	case entity.KindBusinessRule:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
		resp.Error = "internal server error"
	}

	c.JSON(status, resp)
}
