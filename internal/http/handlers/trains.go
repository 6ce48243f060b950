package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GET /api/trains
func ListTrains(c *gin.Context) {
	trains, err := deps.Trains.ListActive()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trains": trains})
}

// GET /api/trains/:id
func GetTrain(c *gin.Context) {
	train, err := deps.Trains.GetByID(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"train": train})
}

// GET /api/trains/:id/service-dates?start=YYYY-MM-DD&end=YYYY-MM-DD
func GetServiceDates(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		RespondError(c, http.StatusBadRequest, "start and end query params are required", nil)
		return
	}
	dates, err := bookingSvc(c).ServiceDates(c.Param("id"), start, end)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_dates": dates})
}

// GET /api/trains/:id/next-service-date?from=YYYY-MM-DD
func GetNextServiceDate(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		RespondError(c, http.StatusBadRequest, "from query param is required", nil)
		return
	}
	next, ok, err := bookingSvc(c).NextServiceDate(c.Param("id"), from)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"next_service_date": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_service_date": next})
}

// GET /api/trains/:id/sales-status?date=YYYY-MM-DD&from_station_index=0
func GetSalesStatus(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		RespondError(c, http.StatusBadRequest, "date query param is required", nil)
		return
	}
	fromIdx, err := strconv.Atoi(c.DefaultQuery("from_station_index", "0"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "from_station_index must be a number", err)
		return
	}
	probe, err := bookingSvc(c).ProbeSales(c.Param("id"), date, fromIdx)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, probe)
}
