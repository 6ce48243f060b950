package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "greentrain/internal/config"
	h "greentrain/internal/http/handlers"
	"greentrain/internal/http/middleware"
	"greentrain/internal/notify"
	"greentrain/internal/repositories"
	"greentrain/internal/services"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	cache := intconfig.NewRedisClient(env)
	var publisher notify.Publisher = notify.NopPublisher{}
	if env.AMQPURL != "" {
		publisher = notify.AMQPPublisher{URL: env.AMQPURL}
	}

	h.Setup(h.Deps{
		Trains:    repositories.TrainRepository{DB: intconfig.DB, Cache: cache},
		Tickets:   repositories.TicketRepository{DB: intconfig.DB},
		Users:     repositories.UserRepository{DB: intconfig.DB},
		Notifier:  publisher,
		Clock:     services.SystemClock{},
		JWTSecret: []byte(env.JWTSecret),
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	auth := middleware.RequireAuth([]byte(env.JWTSecret))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)

		trains := api.Group("/trains")
		trains.GET("", h.ListTrains)
		trains.GET("/:id", h.GetTrain)
		trains.GET("/:id/service-dates", h.GetServiceDates)
		trains.GET("/:id/next-service-date", h.GetNextServiceDate)
		trains.GET("/:id/sales-status", h.GetSalesStatus)

		api.POST("/bookings", auth, h.CreateBooking)

		tickets := api.Group("/tickets", auth)
		tickets.GET("", h.ListMyTickets)
		tickets.GET("/active", h.ListActiveTrips)
		tickets.GET("/current-train", h.GetCurrentTrain)
		tickets.GET("/:id", h.GetTicket)
		tickets.GET("/:id/neighbors", h.GetSeatNeighbors)
		tickets.GET("/:id/e-ticket", h.GetTicketETicketPDF)
		tickets.POST("/:id/pay", h.PayTicket)
		tickets.POST("/:id/cancel", h.CancelTicket)
		tickets.POST("/:id/check-in", h.CheckInTicket)
		tickets.POST("/:id/board", h.BoardTicket)
		tickets.POST("/:id/complete", h.CompleteTicket)
		tickets.POST("/:id/refund", h.RefundTicket)
		tickets.POST("/:id/verify-pnr", h.VerifyTicketPNR)

		api.GET("/rooms/parse", h.ParseRoom)
	}

	h.SetRouter(r)
	return r
}
