package handlers

import (
	"errors"
	"strings"

	eventws "github.com/Darshan-chovatiya/nexus-backend/internal/websocket"
	"github.com/Darshan-chovatiya/nexus-backend/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// FeedHandler upgrades authenticated clients onto the event hub so they hear
// about bookings and scans involving their account as they happen.
type FeedHandler struct {
	hub       *eventws.Hub
	jwtSecret string
}

func NewFeedHandler(hub *eventws.Hub, jwtSecret string) *FeedHandler {
	return &FeedHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *FeedHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return errorJSON(c, fiber.StatusUpgradeRequired, codeBadRequest, "WebSocket upgrade required")
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid or expired token")
	}

	c.Locals("account_id", claims.AccountID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *FeedHandler) HandleWebSocket(conn *websocket.Conn) {
	accountID, _ := conn.Locals("account_id").(string)
	client := eventws.NewClient(h.hub, conn, strings.ToLower(accountID))

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *FeedHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	claims, err := utils.ValidateToken(tokenString, h.jwtSecret)
	if err != nil {
		return nil, err
	}
	if !utils.IsAccountID(claims.AccountID) {
		return nil, errors.New("invalid account id")
	}
	return claims, nil
}
