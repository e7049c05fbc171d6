package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_portal/internal/controllers"
	"fleet_portal/internal/middleware"
	"fleet_portal/internal/models"
)

func AdminRoutes(r *gin.Engine, tc *controllers.TrackingController, vc *controllers.VehicleController) {
	admin := r.Group("/admin/tracking")
	admin.Use(middleware.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/drivers", tc.ListDrivers)
		admin.GET("/drivers/:id", tc.GetDriver)
		admin.GET("/drivers/:id/trail", tc.GetDriverTrail)
		admin.GET("/alerts", tc.ListAlerts)
		admin.GET("/map", tc.LiveMap)
	}

	vehicles := r.Group("/admin/vehicles")
	vehicles.Use(middleware.RequireAuthWithRole(models.RoleAdmin))
	{
		vehicles.POST("", vc.CreateVehicle)
		vehicles.GET("", vc.ListVehicles)
		vehicles.PATCH("/:id/service", vc.SetServiceStatus)
	}
}
