package server

import (
	"log"

	"sudonet/internal/models"
	"sudonet/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// requireUpgrade rejects plain HTTP requests on websocket routes.
func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return models.RespondWithError(c, fiber.StatusUpgradeRequired,
		models.NewValidationError("WebSocket upgrade required"))
}

// WebSocketFeedHandler handles GET /api/ws/feed. Every change to the posts
// table is forwarded as a JSON event; clients re-fetch the feed on each one.
func (s *Server) WebSocketFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.feedHub.Register(notifications.PostsChannel, conn)
		if err != nil {
			log.Printf("WebSocket feed: register failed: %v", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
