// Package ws pushes newly created escalation alerts to connected dashboard
// clients over WebSocket. There is a single feed: every connected client sees
// every alert.
package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

// Event is one frame on the alert feed.
type Event struct {
	Type      string                  `json:"type"`
	Alert     *models.EscalationAlert `json:"alert"`
	Timestamp int64                   `json:"timestamp"`
}

// Hub fans alert events out to all connected clients. A client that cannot
// keep up (full send buffer) is dropped rather than stalling the feed.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan *Event
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an alert feed hub. Run must be started for it to deliver.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *Event, 64),
		logger:     logger,
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for cl := range h.clients {
				close(cl.send)
				delete(h.clients, cl)
			}
			h.mu.Unlock()
			return

		case cl := <-h.register:
			h.mu.Lock()
			h.clients[cl] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("dashboard client connected", "clients", h.ClientCount())

		case cl := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[cl]; ok {
				delete(h.clients, cl)
				close(cl.send)
			}
			h.mu.Unlock()
			h.logger.Info("dashboard client disconnected", "clients", h.ClientCount())

		case event := <-h.broadcast:
			h.mu.Lock()
			for cl := range h.clients {
				select {
				case cl.send <- event:
				default:
					delete(h.clients, cl)
					close(cl.send)
					h.logger.Warn("dropping slow dashboard client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyAlert queues an alert for broadcast. It never blocks: if the feed is
// saturated the event is dropped, and the dashboard picks the alert up from
// the queue listing instead.
func (h *Hub) NotifyAlert(alert *models.EscalationAlert) {
	event := &Event{
		Type:      "alert.created",
		Alert:     alert,
		Timestamp: time.Now().Unix(),
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("alert feed saturated, event dropped", "alert_id", alert.AlertID)
	}
}

type client struct {
	conn *websocket.Conn
	send chan *Event
}
