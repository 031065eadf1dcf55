// Package websocket provides the push channel used to tell connected
// clients that the board changed and a re-render is needed.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"datalens/internal/infrastructure"
	"datalens/internal/metrics"
)

// Message type constants
const (
	TypeConnection  = "connection"
	TypeBoardUpdate = "board:update"
	TypeError       = "error"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex

	logger *slog.Logger

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start starts the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			metrics.WebSocketClients.Set(float64(count))

			h.logger.Info("client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			// Greet the newly connected client
			connMsg := map[string]interface{}{
				"type": TypeConnection,
				"data": map[string]interface{}{
					"status":    "connected",
					"client_id": client.id,
				},
				"timestamp": time.Now().Format(time.RFC3339),
			}
			if jsonData, err := json.Marshal(connMsg); err == nil {
				select {
				case client.send <- jsonData:
				default:
					h.logger.Warn("failed to send connection message - client buffer full",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				metrics.WebSocketClients.Set(float64(count))

				h.logger.Info("client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			// Copy to avoid holding the lock during sends
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
					metrics.WebSocketMessages.WithLabelValues("sent").Inc()
				default:
					// Client's send channel is full, evict it
					metrics.WebSocketMessages.WithLabelValues("dropped").Inc()
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
					h.mu.Unlock()

					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

// Broadcast sends a typed message to all connected clients. This is the
// board's Notifier interface.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	message := map[string]interface{}{
		"type":      messageType,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
