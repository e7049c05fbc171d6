package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fleet_portal/internal/middleware"
	"fleet_portal/internal/models"
	"fleet_portal/internal/store"
	"fleet_portal/internal/tracking"
)

const wsWriteWait = 10 * time.Second

var errWSRole = errors.New("unauthorized role for WebSocket connection")

// wsConn serialises writes to a websocket; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(v)
}

// WebSocketController streams driver fixes in and board updates out over /ws/location.
type WebSocketController struct {
	Store   store.TrackingStore
	Service *tracking.Service
	Hub     *tracking.Hub
	Clock   Clock

	upgrader websocket.Upgrader
}

// NewWebSocketController builds the controller. An empty allowedOrigins accepts any origin.
func NewWebSocketController(st store.TrackingStore, svc *tracking.Service, hub *tracking.Hub, clock Clock, allowedOrigins []string) *WebSocketController {
	return &WebSocketController{
		Store:   st,
		Service: svc,
		Hub:     hub,
		Clock:   clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.OriginAllowed(allowed, origin)
	}
}

// authenticate validates the token query parameter and resolves the driver
// profile for driver connections.
func (w *WebSocketController) authenticate(c *gin.Context) (*middleware.Claims, *models.Driver, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return nil, nil, errors.New("missing authentication token")
	}
	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}

	switch claims.Role {
	case models.RoleDriver:
		driver, err := w.Store.FindDriverByUserID(c.Request.Context(), claims.UserID)
		if err != nil {
			return claims, nil, fmt.Errorf("driver profile not found for user ID %d: %w", claims.UserID, err)
		}
		return claims, driver, nil
	case models.RoleAdmin:
		return claims, nil, nil
	default:
		return claims, nil, errWSRole
	}
}

// HandleLocation authenticates the caller and then either ingests the
// driver's fixes or streams board updates to an admin.
// @Router /ws/location [get]
// @Param token query string true "JWT token for authentication"
func (w *WebSocketController) HandleLocation(c *gin.Context) {
	claims, driver, authErr := w.authenticate(c)
	if authErr != nil {
		status := http.StatusUnauthorized
		if errors.Is(authErr, errWSRole) || errors.Is(authErr, store.ErrNotFound) {
			status = http.StatusForbidden
		}
		logrus.WithError(authErr).Warn("WebSocket connection attempt failed.")
		c.JSON(status, gin.H{"error": authErr.Error()})
		return
	}

	conn, err := w.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()
	ws := &wsConn{conn: conn}

	if claims.Role == models.RoleDriver {
		w.driverLoop(c, ws, driver.ID)
		return
	}
	w.monitorLoop(c, ws, claims.UserID)
}

func (w *WebSocketController) driverLoop(c *gin.Context, ws *wsConn, driverID uint) {
	log := logrus.WithFields(logrus.Fields{"driver_id": driverID, "conn_ptr": fmt.Sprintf("%p", ws.conn)})
	log.Info("Driver WebSocket connection established.")
	defer log.Info("Driver WebSocket connection closed.")

	for {
		messageType, p, err := ws.conn.ReadMessage()
		if err != nil {
			logReadError(log, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var input tracking.LocationInput
		if err := json.Unmarshal(p, &input); err != nil {
			_ = ws.WriteJSON(gin.H{"error": "Invalid location data format. Check timestamp format."})
			continue
		}
		view, err := w.Service.Ingest(c.Request.Context(), driverID, input, w.Clock.now())
		if err != nil {
			if !errors.Is(err, tracking.ErrNoActiveShift) {
				log.WithError(err).Warn("Rejected driver location.")
			}
			_ = ws.WriteJSON(gin.H{"error": err.Error()})
			continue
		}
		if err := ws.WriteJSON(gin.H{"type": "ack", "driver": view}); err != nil {
			log.WithError(err).Info("Failed to acknowledge driver location.")
			return
		}
	}
}

func (w *WebSocketController) monitorLoop(c *gin.Context, ws *wsConn, userID uint) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "conn_ptr": fmt.Sprintf("%p", ws.conn)})
	log.Info("Monitor WebSocket connection established.")
	defer log.Info("Monitor WebSocket connection closed.")

	// Registered before the snapshot so no update falls between the two.
	w.Hub.Register(ws)
	defer w.Hub.Unregister(ws)

	board, err := w.Service.Board(c.Request.Context(), w.Clock.now())
	if err != nil {
		log.WithError(err).Error("Failed to build initial board for monitor.")
		return
	}
	if err := ws.WriteJSON(gin.H{"type": "board", "board": board}); err != nil {
		return
	}
	for {
		if _, _, err := ws.conn.ReadMessage(); err != nil {
			logReadError(log, err)
			return
		}
		log.Debug("Monitor sent unexpected message. Ignoring.")
	}
}

func logReadError(log *logrus.Entry, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		log.Info("WebSocket closed by peer.")
		return
	}
	log.WithError(err).Warn("Error reading WebSocket message.")
}
