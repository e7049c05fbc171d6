package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_portal/internal/middleware"
	"fleet_portal/internal/models"
	"fleet_portal/internal/store"
	"fleet_portal/internal/tracking"
)

type startShiftInput struct {
	VehicleID *uint `json:"vehicle_id"`
}

// DriverController handles the driver app's shift and location endpoints.
type DriverController struct {
	Store    store.TrackingStore
	Vehicles store.VehicleStore
	Service  *tracking.Service
	Clock    Clock
}

func NewDriverController(st store.TrackingStore, vehicles store.VehicleStore, svc *tracking.Service, clock Clock) *DriverController {
	return &DriverController{Store: st, Vehicles: vehicles, Service: svc, Clock: clock}
}

// currentDriver resolves the driver profile of the authenticated user.
func (d *DriverController) currentDriver(c *gin.Context) (*models.Driver, bool) {
	driver, err := d.Store.FindDriverByUserID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Driver profile not found for this user."})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return driver, true
}

// StartShift opens a shift for the calling driver.
// @Router /driver/shifts [post]
func (d *DriverController) StartShift(c *gin.Context) {
	var input startShiftInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	driver, ok := d.currentDriver(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := d.Store.ActiveShiftForDriver(ctx, driver.ID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Driver already has an active shift."})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}

	if input.VehicleID != nil {
		vehicle, err := d.Vehicles.FindVehicle(ctx, *input.VehicleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found."})
				return
			}
			respondError(c, err)
			return
		}
		if !vehicle.InService {
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle is out of service."})
			return
		}
	}

	shift := &models.Shift{
		DriverID:  driver.ID,
		VehicleID: input.VehicleID,
		Status:    models.ShiftActive,
		StartedAt: d.Clock.now(),
	}
	if err := d.Store.StartShift(ctx, shift); err != nil {
		respondError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"driver_id": driver.ID, "shift_id": shift.ID}).Info("Shift started.")
	c.JSON(http.StatusCreated, shift)
}

// EndShift completes the calling driver's active shift.
// @Router /driver/shifts/end [post]
func (d *DriverController) EndShift(c *gin.Context) {
	driver, ok := d.currentDriver(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	active, err := d.Store.ActiveShiftForDriver(ctx, driver.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, tracking.ErrNoActiveShift)
			return
		}
		respondError(c, err)
		return
	}
	ended, err := d.Store.EndShift(ctx, active.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"driver_id": driver.ID, "shift_id": ended.ID}).Info("Shift ended.")
	c.JSON(http.StatusOK, ended)
}

// PostLocation records one fix from the calling driver.
// @Router /driver/locations [post]
func (d *DriverController) PostLocation(c *gin.Context) {
	var input tracking.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	driver, ok := d.currentDriver(c)
	if !ok {
		return
	}
	view, err := d.Service.Ingest(c.Request.Context(), driver.ID, input, d.Clock.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}
