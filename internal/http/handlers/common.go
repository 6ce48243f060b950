package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greentrain/internal/http/middleware"
	"greentrain/internal/notify"
	"greentrain/internal/repositories"
	"greentrain/internal/services"
)

// Deps carries the wired infrastructure handlers need. Set once at
// startup via Setup.
type Deps struct {
	Trains    services.TrainCatalog
	Tickets   services.TicketStore
	Users     repositories.UserRepository
	Notifier  notify.Publisher
	Clock     services.Clock
	JWTSecret []byte
}

var deps Deps

// Setup injects the dependency set used by all handlers.
func Setup(d Deps) { deps = d }

func bookingSvc(c *gin.Context) services.BookingService {
	return services.BookingService{
		Trains:    deps.Trains,
		Tickets:   deps.Tickets,
		Notifier:  deps.Notifier,
		Clock:     deps.Clock,
		RequestID: middleware.GetRequestID(c),
	}
}

func ticketSvc(c *gin.Context) services.TicketService {
	return services.TicketService{
		Tickets:   deps.Tickets,
		RequestID: middleware.GetRequestID(c),
	}
}

func docsSvc(c *gin.Context) services.DocsService {
	return services.DocsService{
		Tickets:   deps.Tickets,
		RequestID: middleware.GetRequestID(c),
	}
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}
