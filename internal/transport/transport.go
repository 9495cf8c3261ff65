package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/seat-settlement/internal/transport/middleware"
)

func InitRoutes(
	seatHandler *SeatHandler,
	bookingHandler *BookingHandler,
	paymentHandler *PaymentHandler,
	ticketHandler *TicketHandler,
) *gin.Engine {

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	api := router.Group("/api/v1")
	api.Use(middleware.Tenant())
	{
		events := api.Group("/events/:event_id")
		{
			events.GET("/seats", seatHandler.ListSeats)
			events.POST("/seats/initialize", seatHandler.InitializeSeats)
			events.POST("/seats/import-broker", seatHandler.ImportBrokerSeats)
			events.POST("/seats/hold", seatHandler.HoldSeats)
			events.POST("/seats/unhold", seatHandler.ReleaseHolds)
			events.POST("/seats/block", seatHandler.BlockSeats)
			events.POST("/seats/unblock", seatHandler.UnblockSeats)
			events.GET("/seats/statistics", seatHandler.GetStatistics)
			events.POST("/tickets/from-seats", ticketHandler.CreateTicketsFromSeats)
			events.GET("/tickets", ticketHandler.GetEventTickets)
		}

		seats := api.Group("/seats")
		{
			seats.GET("/:id", seatHandler.GetSeat)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.Checkout)
			bookings.GET("", bookingHandler.SearchBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.PUT("/:id", bookingHandler.UpdateBooking)
			bookings.DELETE("/:id", bookingHandler.CancelBooking)
			bookings.GET("/number/:number", bookingHandler.GetBookingByNumber)
			bookings.POST("/:id/payments", paymentHandler.RecordPayment)
			bookings.GET("/:id/payments", paymentHandler.GetBookingPayments)
			bookings.GET("/:id/tickets", ticketHandler.GetBookingTickets)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/:id/void", paymentHandler.VoidPayment)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("/:id", ticketHandler.GetTicket)
			tickets.GET("/:id/qr", ticketHandler.GetTicketQR)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
