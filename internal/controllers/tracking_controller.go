package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet_portal/internal/tracking"
)

// TrackingController serves the admin live-tracking views.
type TrackingController struct {
	Service *tracking.Service
	Clock   Clock
}

func NewTrackingController(svc *tracking.Service, clock Clock) *TrackingController {
	return &TrackingController{Service: svc, Clock: clock}
}

// ListDrivers returns the live board: every driver on an active shift with their status.
// @Router /admin/tracking/drivers [get]
func (t *TrackingController) ListDrivers(c *gin.Context) {
	board, err := t.Service.Board(c.Request.Context(), t.Clock.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// GetDriver returns the info panel for one driver.
// @Router /admin/tracking/drivers/{id} [get]
func (t *TrackingController) GetDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := t.Service.Driver(c.Request.Context(), id, t.Clock.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetDriverTrail returns the driver's recent path as a GeoJSON feature.
// @Router /admin/tracking/drivers/{id}/trail [get]
func (t *TrackingController) GetDriverTrail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	feature, err := t.Service.Trail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

// ListAlerts returns stationary drivers, longest stop first.
// @Router /admin/tracking/alerts [get]
func (t *TrackingController) ListAlerts(c *gin.Context) {
	alerts, err := t.Service.Alerts(c.Request.Context(), t.Clock.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// LiveMap returns every tracked driver as a GeoJSON FeatureCollection.
// @Router /admin/tracking/map [get]
func (t *TrackingController) LiveMap(c *gin.Context) {
	fc, err := t.Service.LiveMap(c.Request.Context(), t.Clock.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}
