package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"fleet_portal/internal/controllers"
	"fleet_portal/internal/store"
	"fleet_portal/internal/tracking"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	st := store.NewMemory()
	hub := tracking.NewHub(8)
	t.Cleanup(hub.Close)
	svc := tracking.NewService(st, hub)
	clock := controllers.Clock(time.Now)
	return SetupRouter(Handlers{
		Auth:      controllers.NewAuthController(st, false),
		Driver:    controllers.NewDriverController(st, st, svc, clock),
		Tracking:  controllers.NewTrackingController(svc, clock),
		Vehicle:   controllers.NewVehicleController(st),
		WebSocket: controllers.NewWebSocketController(st, svc, hub, clock, nil),
	})
}

func TestSetupRouter_Routes(t *testing.T) {
	r := newRouter(t)

	got := map[string]bool{}
	for _, ri := range r.Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /auth/signup",
		"POST /auth/login",
		"POST /driver/shifts",
		"POST /driver/shifts/end",
		"POST /driver/locations",
		"GET /admin/tracking/drivers",
		"GET /admin/tracking/drivers/:id",
		"GET /admin/tracking/drivers/:id/trail",
		"GET /admin/tracking/alerts",
		"GET /admin/tracking/map",
		"POST /admin/vehicles",
		"GET /admin/vehicles",
		"PATCH /admin/vehicles/:id/service",
		"GET /ws/location",
	} {
		assert.True(t, got[want], want)
	}
}

func TestSetupRouter_Healthz(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSetupRouter_RecoversFromPanics(t *testing.T) {
	r := newRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
