package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_portal/internal/controllers"
	"fleet_portal/internal/middleware"
	"fleet_portal/internal/models"
)

func DriverRoutes(r *gin.Engine, dc *controllers.DriverController) {
	driver := r.Group("/driver")
	driver.Use(middleware.RequireAuthWithRole(models.RoleDriver))
	{
		driver.POST("/shifts", dc.StartShift)
		driver.POST("/shifts/end", dc.EndShift)
		driver.POST("/locations", dc.PostLocation)
	}
}
