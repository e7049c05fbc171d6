package tracking

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Subscriber receives hub updates. Websocket connections satisfy it.
type Subscriber interface {
	WriteJSON(v interface{}) error
}

// Hub fans driver updates out to every registered monitor.
type Hub struct {
	clients   map[Subscriber]bool
	broadcast chan Update
	mu        sync.Mutex
	closed    bool
	done      chan struct{}
}

// NewHub creates a hub with the given broadcast buffer and starts its loop.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 100
	}
	h := &Hub{
		clients:   make(map[Subscriber]bool),
		broadcast: make(chan Update, buffer),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for msg := range h.broadcast {
		for _, sub := range h.snapshot() {
			if err := sub.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"driver_id": msg.Driver.DriverID,
					"conn_ptr":  fmt.Sprintf("%p", sub),
				}).Info("Failed to deliver update, unregistering monitor.")
				h.Unregister(sub)
			}
		}
	}
}

func (h *Hub) snapshot() []Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]Subscriber, 0, len(h.clients))
	for s := range h.clients {
		subs = append(subs, s)
	}
	return subs
}

// Register adds a monitor.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sub] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", sub)).Info("Monitor registered with hub.")
}

// Unregister removes a monitor; unknown subscribers are ignored.
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[sub]; !ok {
		return
	}
	delete(h.clients, sub)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", sub)).Info("Monitor unregistered from hub.")
}

// Subscribers reports how many monitors are registered.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues u for delivery. It never blocks: when the buffer is full the
// update is dropped, and after Close it is ignored.
func (h *Hub) Publish(u Update) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	select {
	case h.broadcast <- u:
		return true
	default:
		logrus.WithField("driver_id", u.Driver.DriverID).Warn("Hub broadcast channel full, dropping update.")
		return false
	}
}

// Close stops the broadcast loop after draining queued updates.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.broadcast)
	h.mu.Unlock()
	<-h.done
}
