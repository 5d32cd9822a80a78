package server

import (
	"encoding/json"

	"picfeed/internal/middleware"
	"picfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IssueWSTicket returns a short-lived single-use ticket for opening /api/ws
// @Summary Issue websocket ticket
// @Description Browsers cannot set headers on websocket requests; pass the ticket as ?ticket=
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response
// @Failure 503 {object} models.Response
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.wsTickets.Issue(c.UserContext(), currentUserID(c))
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "websocket ticket not issued", "error", err)
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewBusinessError(models.CodeInternal, "Realtime notifications are unavailable"))
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Ticket issued", fiber.Map{
		"ticket":     ticket,
		"expires_in": int(s.wsTickets.TTL().Seconds()),
	})
}

// WebsocketUpgrade rejects plain HTTP requests to the websocket route.
func (s *Server) WebsocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.hub == nil {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewBusinessError(models.CodeInternal, "Realtime notifications are disabled"))
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
}

// WebsocketHandler streams the caller's follow, like and comment notifications.
// @Summary Notification stream
// @Tags realtime
// @Security BearerAuth
// @Param ticket query string false "Ticket from /ws/ticket"
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected", "user_id", uid, "error", err)
			msg, _ := json.Marshal(fiber.Map{"type": "error", "payload": fiber.Map{"error": err.Error()}})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
