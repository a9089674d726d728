// Package ws pushes refresh notifications to society members with open
// websocket connections.
package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/outly-dev/outly/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub tracks open connections per society.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*websocket.Conn]bool)}
}

// BroadcastRefresh tells every connection watching the society to re-fetch.
func (h *Hub) BroadcastRefresh(societyID uint, message string) {
	h.mu.RLock()
	clients := h.clients[societyID]

	if len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	conns := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":       "refresh",
			"message":    message,
			"society_id": societyID,
		})

		if err != nil {
			slog.Warn("broadcast failed, dropping connection", "society_id", societyID, "error", err)
			h.remove(societyID, conn)
			conn.Close()
		}
	}
}

func (h *Hub) add(societyID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[societyID] == nil {
		h.clients[societyID] = make(map[*websocket.Conn]bool)
	}
	h.clients[societyID][conn] = true
}

func (h *Hub) remove(societyID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[societyID]; exists {
		delete(clients, conn)

		if len(clients) == 0 {
			delete(h.clients, societyID)
		}
	}
}

// Serve upgrades the request and pumps the connection until the client goes
// away. The caller must have already authorized access to the society.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, societyID uint) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "society_id", societyID, "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.add(societyID, conn)

	defer func() {
		h.remove(societyID, conn)
		conn.Close()
		slog.Debug("websocket closed", "society_id", societyID)
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	err = conn.WriteJSON(map[string]interface{}{
		"type":       "connected",
		"society_id": societyID,
	})

	if err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "society_id", societyID, "error", err)
			}
			break
		}
	}
}
