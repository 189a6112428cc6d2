package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"sudonet/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketFeedRequiresUpgrade(t *testing.T) {
	_, app := newTestServer(t)
	status, _ := do(t, app, request{method: http.MethodGet, path: "/api/ws/feed"})
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestWebSocketFeedReceivesPostChanges(t *testing.T) {
	s, app := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.feedHub.StartWiring(ctx, s.notifier))
	t.Cleanup(func() {
		cancel()
		_ = s.feedHub.Shutdown(context.Background())
		_ = app.Shutdown()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws/feed", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	assert.Eventually(t, func() bool {
		return s.feedHub.Count(notifications.PostsChannel) == 1
	}, 2*time.Second, 10*time.Millisecond)

	post := createPost(t, app, "Broadcast")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string `json:"type"`
		Payload struct {
			Table string `json:"table"`
			Event string `json:"event"`
			ID    string `json:"id"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, notifications.EventPostsChanged, event.Type)
	assert.Equal(t, "posts", event.Payload.Table)
	assert.Equal(t, post.ID, event.Payload.ID)
}
