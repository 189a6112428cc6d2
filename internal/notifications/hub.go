package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"sudonet/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerChannel = 5000
	maxTotalConns      = 10000
)

var (
	ErrHubClosed          = errors.New("feed hub is shut down")
	ErrChannelLimit       = errors.New("channel connection limit reached")
	ErrServerLimitReached = errors.New("server connection limit reached")
)

// FeedHub maps a realtime channel name to its websocket subscribers.
type FeedHub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewFeedHub creates an empty hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{
		conns: make(map[string]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *FeedHub) Name() string { return "feed hub" }

// Register adds a connection following channel.
func (h *FeedHub) Register(channel string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerLimitReached
	}

	m, ok := h.conns[channel]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[channel] = m
	}
	if len(m) >= maxConnsPerChannel {
		return nil, ErrChannelLimit
	}

	client := NewClient(h, conn, channel)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send queue. Safe to call twice.
func (h *FeedHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.Channel]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	middleware.ActiveWebSockets.Dec()
	if len(m) == 0 {
		delete(h.conns, client.Channel)
	}
}

// Broadcast queues message for every subscriber of channel.
func (h *FeedHub) Broadcast(channel string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns[channel] {
		if c.TrySend(message) {
			delivered++
		}
	}
	return delivered
}

// Count returns the number of subscribers on channel.
func (h *FeedHub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[channel])
}

// StartWiring forwards every realtime event from n to the matching subscribers.
func (h *FeedHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, func(redisChannel, payload string) {
		channel, ok := ChannelName(redisChannel)
		if !ok {
			log.Printf("invalid realtime channel: %s", redisChannel)
			return
		}
		h.Broadcast(channel, []byte(payload))
	})
}

// Shutdown closes every subscriber's queue; each write pump then sends a
// close frame and drops its connection.
func (h *FeedHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			middleware.ActiveWebSockets.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
