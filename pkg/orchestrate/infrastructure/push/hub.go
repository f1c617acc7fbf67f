// Package push streams job progress and completion reports to websocket
// clients, the live transport behind progress bars in the organizer UI.
package push

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// frame is the wire envelope for every push message.
type frame struct {
	Type string `json:"type"` // "progress" or "report"
	Data any    `json:"data"`
}

// Hub manages websocket connections and broadcasts job events to them.
// It implements port.ProgressListener and port.CompletionListener.
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	upgrader  websocket.Upgrader
}

// NewHub creates a new websocket Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	h.addClient(conn)
}

func (h *Hub) addClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	logger.Infof("Push client connected. Total clients: %d", total)

	// Drain reads until the client goes away.
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	delete(h.clients, conn)
	total := len(h.clients)
	h.clientsMu.Unlock()
	conn.Close()

	logger.Infof("Push client disconnected. Total clients: %d", total)
}

// broadcast sends one frame to every connected client. A failed write drops
// the client; the next snapshot reaches the survivors.
func (h *Hub) broadcast(f frame) {
	h.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(f); err != nil {
			logger.Warnf("Failed to push update, dropping client: %v", err)
			h.removeClient(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.clientsMu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// OnProgress implements port.ProgressListener.
func (h *Hub) OnProgress(ctx context.Context, jobExecution *model.JobExecution, snapshot model.ProgressSnapshot) {
	h.broadcast(frame{Type: "progress", Data: snapshot})
}

// OnJobReport implements port.CompletionListener.
func (h *Hub) OnJobReport(ctx context.Context, jobExecution *model.JobExecution, report model.JobReport) {
	h.broadcast(frame{Type: "report", Data: report})
}
