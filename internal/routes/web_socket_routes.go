package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_portal/internal/controllers"
)

// WebSocketRoutes mounts the streaming endpoint; it authenticates via the token query parameter.
func WebSocketRoutes(r *gin.Engine, wc *controllers.WebSocketController) {
	ws := r.Group("/ws")
	{
		ws.GET("/location", wc.HandleLocation)
	}
}
