package notifications

import (
	"context"
	"errors"
	"sync"

	"picfeed/internal/middleware"
	"picfeed/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub maps a user ID to that user's open websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	log        *observability.WSLogger
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
		log:   observability.NewWSLogger("notification hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID. It fails when a connection limit is reached.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	h.log.LogConnect(context.Background(), userID)
	return client, nil
}

func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		middleware.ActiveWebSockets.Dec()
		client.closeSend()
		h.log.LogDisconnect(context.Background(), client.UserID, "client closed")
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to all connections of userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[userID] {
		c.TrySend(data)
	}
}

// ConnectionCount returns the number of open connections of userID.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring forwards every message published through n to the matching local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every client's send queue; each write pump then sends a
// close frame and closes its connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.conns {
		for client := range clients {
			client.closeSend()
			middleware.ActiveWebSockets.Dec()
			h.log.LogDisconnect(ctx, userID, "server shutdown")
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
