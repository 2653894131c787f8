package handler

import (
	"context"

	"go-utang-ledger/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// TokenResolver validates a bare session token.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) string
}

type WSHandler struct {
	hub      *ws.Hub
	sessions TokenResolver
}

func NewWSHandler(hub *ws.Hub, sessions TokenResolver) *WSHandler {
	return &WSHandler{hub: hub, sessions: sessions}
}

// Register mounts GET /ws?token=<jwt>.
func (h *WSHandler) Register(app fiber.Router) {
	app.Use("/ws", h.Upgrade)
	app.Get("/ws", websocket.New(h.Serve))
}

// Upgrade only lets authenticated websocket handshakes through. Browsers
// cannot set headers on a websocket, so the token comes as a query param.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	userID := h.sessions.ResolveToken(c.UserContext(), c.Query("token"))
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	c.Locals("user_id", userID)
	return c.Next()
}

func (h *WSHandler) Serve(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	client := &ws.Client{Conn: c, UserID: userID}
	h.hub.Register <- client
	defer func() { h.hub.Unregister <- client }()

	for {
		// Keep alive loop
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
