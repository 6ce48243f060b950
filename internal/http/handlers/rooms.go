package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greentrain/internal/rooms"
)

// GET /api/rooms/parse?room_id=...
func ParseRoom(c *gin.Context) {
	roomID := c.Query("room_id")
	if roomID == "" {
		RespondError(c, http.StatusBadRequest, "room_id query param is required", nil)
		return
	}
	info, ok := rooms.Parse(roomID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": rooms.IsValid(roomID), "room": info})
}
