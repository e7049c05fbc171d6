package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleet_portal/internal/models"
	"fleet_portal/internal/store"
)

type createVehicleInput struct {
	Registration string `json:"registration" binding:"required"`
	Type         string `json:"type"`
	InService    *bool  `json:"in_service"` // defaults to true
}

type serviceStatusPayload struct {
	InService *bool `json:"in_service" binding:"required"`
}

// VehicleController manages the fleet register for admins.
type VehicleController struct {
	Vehicles store.VehicleStore
}

func NewVehicleController(vehicles store.VehicleStore) *VehicleController {
	return &VehicleController{Vehicles: vehicles}
}

// CreateVehicle registers a vehicle.
// @Router /admin/vehicles [post]
func (v *VehicleController) CreateVehicle(c *gin.Context) {
	var input createVehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return
	}

	vehicle := &models.Vehicle{
		Registration: strings.ToUpper(strings.TrimSpace(input.Registration)),
		Type:         input.Type,
		InService:    input.InService == nil || *input.InService,
	}
	if err := v.Vehicles.CreateVehicle(c.Request.Context(), vehicle); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle registration already exists"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

// ListVehicles returns the whole fleet.
// @Router /admin/vehicles [get]
func (v *VehicleController) ListVehicles(c *gin.Context) {
	vehicles, err := v.Vehicles.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// SetServiceStatus takes a vehicle in or out of service.
// @Router /admin/vehicles/{id}/service [patch]
func (v *VehicleController) SetServiceStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var payload serviceStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vehicle, err := v.Vehicles.SetVehicleInService(c.Request.Context(), id, *payload.InService)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}
