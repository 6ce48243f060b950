package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greentrain/internal/domain/models"
	"greentrain/internal/http/middleware"
	"greentrain/internal/services"
)

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	var req services.BookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.UserID = middleware.GetUserID(c)

	ticket, err := bookingSvc(c).Book(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

// GET /api/tickets
func ListMyTickets(c *gin.Context) {
	tickets, err := ticketSvc(c).ListMine(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// GET /api/tickets/:id
func GetTicket(c *gin.Context) {
	ticket, err := ticketSvc(c).Get(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// GET /api/tickets/active
func ListActiveTrips(c *gin.Context) {
	tickets, err := ticketSvc(c).ActiveTrips(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// GET /api/tickets/current-train
func GetCurrentTrain(c *gin.Context) {
	ticket, ok, err := ticketSvc(c).CurrentTrain(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ticket": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// GET /api/tickets/:id/neighbors
func GetSeatNeighbors(c *gin.Context) {
	neighbors, err := ticketSvc(c).SeatNeighbors(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"neighbors": neighbors})
}

func transitionHandler(fn func(services.TicketService, string, string) (models.Ticket, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket, err := fn(ticketSvc(c), c.Param("id"), middleware.GetUserID(c))
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ticket": ticket})
	}
}

// The lifecycle endpoints under /api/tickets/:id.
var (
	PayTicket      = transitionHandler(services.TicketService.Pay)
	CancelTicket   = transitionHandler(services.TicketService.Cancel)
	CheckInTicket  = transitionHandler(services.TicketService.CheckIn)
	BoardTicket    = transitionHandler(services.TicketService.Board)
	CompleteTicket = transitionHandler(services.TicketService.Complete)
	RefundTicket   = transitionHandler(services.TicketService.Refund)
)

type verifyPNRRequest struct {
	PNRCode string `json:"pnr_code"`
}

// POST /api/tickets/:id/verify-pnr
func VerifyTicketPNR(c *gin.Context) {
	var req verifyPNRRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ticket, err := ticketSvc(c).VerifyPNR(c.Param("id"), req.PNRCode)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "ticket": ticket})
}
