package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/voyago/travel-booking/internal/middleware"
	"github.com/voyago/travel-booking/internal/services"
)

// WebSocketHandler streams the caller's trip booking events.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		services.HandleWebSocket(hub, c.Writer, c.Request, user.UserID)
	}
}
