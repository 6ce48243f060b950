package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"greentrain/internal/http/middleware"
)

// GET /api/tickets/:id/e-ticket
func GetTicketETicketPDF(c *gin.Context) {
	pdfBytes, filename, err := docsSvc(c).GenerateETicket(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
