// Package websocket provides the live board feed over WebSocket.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lllypuk/taskboard/internal/domain/id"
)

// Hub tracks connected clients and the boards they follow. Broadcasts fan
// out on the caller's goroutine; Client.Send never blocks.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[id.ID]map[*Client]struct{}
	stop    chan struct{}
}

// HubOption configures the Hub.
type HubOption func(*Hub)

// WithHubLogger sets the logger. A nil logger keeps the default.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates a stopped hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:  slog.Default(),
		clients: make(map[*Client]struct{}),
		rooms:   make(map[id.ID]map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run accepts clients until ctx is done or Stop is called, then closes every
// connection. A second concurrent Run returns immediately.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	if h.stop != nil {
		h.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	h.stop = stop
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "websocket hub started")

	select {
	case <-ctx.Done():
	case <-stop:
	}

	h.mu.Lock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[id.ID]map[*Client]struct{})
	h.stop = nil
	h.mu.Unlock()

	h.logger.Info("websocket hub stopped")
}

// Stop ends Run. It is a no-op on a stopped hub.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop == nil {
		return
	}
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stop != nil
}

// Register adds the client to the rooms of the boards it follows. Clients
// registered on a stopped hub are closed.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.stop == nil {
		h.mu.Unlock()
		client.Close()
		return
	}
	h.clients[client] = struct{}{}
	for _, boardID := range client.BoardIDs() {
		h.enter(client, boardID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("client registered",
		slog.String("user_id", client.UserID().String()),
		slog.Int("total_clients", total),
	)
}

// Unregister removes the client from every room and closes it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	if known {
		for _, boardID := range client.BoardIDs() {
			h.leave(client, boardID)
		}
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	client.Close()
	if known {
		h.logger.Debug("client unregistered",
			slog.String("user_id", client.UserID().String()),
			slog.Int("total_clients", total),
		)
	}
}

// JoinBoard makes a registered client follow boardID.
func (h *Hub) JoinBoard(client *Client, boardID id.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	h.enter(client, boardID)
	client.follow(boardID, true)
}

// LeaveBoard stops the client following boardID.
func (h *Hub) LeaveBoard(client *Client, boardID id.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(client, boardID)
	client.follow(boardID, false)
}

// enter and leave require h.mu.
func (h *Hub) enter(client *Client, boardID id.ID) {
	room, ok := h.rooms[boardID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[boardID] = room
	}
	room[client] = struct{}{}
}

func (h *Hub) leave(client *Client, boardID id.ID) {
	room, ok := h.rooms[boardID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, boardID)
	}
}

// BroadcastToBoard sends message to every follower of boardID. Followers
// whose buffer is full are disconnected.
func (h *Hub) BroadcastToBoard(boardID id.ID, message []byte) {
	h.mu.RLock()
	followers := make([]*Client, 0, len(h.rooms[boardID]))
	for client := range h.rooms[boardID] {
		followers = append(followers, client)
	}
	h.mu.RUnlock()

	for _, client := range followers {
		if client.Send(message) {
			continue
		}
		h.logger.Warn("dropping slow websocket client",
			slog.String("user_id", client.UserID().String()),
			slog.String("board_id", boardID.String()),
		)
		h.Unregister(client)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BoardCount returns the number of boards with at least one follower.
func (h *Hub) BoardCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsOnBoard returns the number of followers of boardID.
func (h *Hub) ClientsOnBoard(boardID id.ID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[boardID])
}
