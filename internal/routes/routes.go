package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet_portal/internal/controllers"
)

// Handlers groups the controllers mounted by SetupRouter.
type Handlers struct {
	Auth      *controllers.AuthController
	Driver    *controllers.DriverController
	Tracking  *controllers.TrackingController
	Vehicle   *controllers.VehicleController
	WebSocket *controllers.WebSocketController
}

// SetupRouter builds the engine. Middlewares run before every route, ahead of recovery.
func SetupRouter(h Handlers, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares...)
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	AuthRoutes(r, h.Auth)
	DriverRoutes(r, h.Driver)
	AdminRoutes(r, h.Tracking, h.Vehicle)
	WebSocketRoutes(r, h.WebSocket)

	return r
}
