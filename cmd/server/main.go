package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_portal/internal/config"
	"fleet_portal/internal/controllers"
	"fleet_portal/internal/ingest"
	"fleet_portal/internal/logger"
	"fleet_portal/internal/middleware"
	"fleet_portal/internal/routes"
	"fleet_portal/internal/store"
	"fleet_portal/internal/tracking"
)

// backend is what the server needs from a store.
type backend interface {
	store.UserStore
	store.VehicleStore
	store.TrackingStore
}

func openStore(s config.Settings) (backend, error) {
	if s.Store == "memory" {
		logrus.Warn("Using in-memory store; data is lost on restart.")
		return store.NewMemory(), nil
	}
	db, err := config.InitDB(s)
	if err != nil {
		return nil, err
	}
	logrus.Info("Database connection established.")
	return store.NewGormStore(db), nil
}

func main() {
	settings := config.Load()

	// Initialize structured logging to file
	out := logger.Setup(settings.LogFile, settings.LogLevel)
	middleware.SetSecret(settings.JWTSecret)

	st, err := openStore(settings)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open store.")
	}

	hub := tracking.NewHub(256)
	svc := tracking.NewService(st, hub)
	clock := controllers.Clock(func() time.Time { return time.Now().UTC() })

	if settings.MQTTBroker != "" {
		sub, err := ingest.NewSubscriber(ingest.Config{
			Broker:   settings.MQTTBroker,
			Topic:    settings.MQTTTopic,
			Username: settings.MQTTUsername,
			Password: settings.MQTTPassword,
		}, svc, clock)
		if err != nil {
			logrus.WithError(err).Fatal("Invalid MQTT configuration.")
		}
		if err := sub.Start(); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to MQTT broker.")
		}
		defer sub.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(routes.Handlers{
		Auth:      controllers.NewAuthController(st, settings.AllowAdminSignup),
		Driver:    controllers.NewDriverController(st, st, svc, clock),
		Tracking:  controllers.NewTrackingController(svc, clock),
		Vehicle:   controllers.NewVehicleController(st),
		WebSocket: controllers.NewWebSocketController(st, svc, hub, clock, settings.CORSOrigins),
	},
		// Request logging middleware
		ginlog.SetLogger(
			ginlog.WithWriter(out),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/healthz"}),
		),
	)

	// Wrap with CORS
	srv := &http.Server{
		Addr:              "0.0.0.0:" + settings.Port,
		Handler:           middleware.EnableCORS(r, settings.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Server running at :%s", settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed.")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shut down.")
	}
	hub.Close()
}
