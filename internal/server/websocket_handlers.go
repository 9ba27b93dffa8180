package server

import (
	"encoding/json"

	"cinelog/internal/middleware"
	"cinelog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws to the activity stream. It must run
// after the Required guard.
// @Summary Activity stream
// @Description Websocket carrying review_created, review_liked and comment_created events
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 101
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(s.serveActivityStream)

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.Status(fiber.StatusUpgradeRequired).JSON(models.ErrorResponse{
				Message: "Websocket upgrade required",
			})
		}
		if !s.activityEnabled(middleware.ViewerID(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Activity stream is disabled"))
		}
		return upgrade(c)
	}
}

func (s *Server) serveActivityStream(conn *websocket.Conn) {
	uid, ok := conn.Locals(middleware.LocalUserID).(uint)
	if !ok || uid == 0 {
		_ = conn.Close()
		return
	}

	client, err := s.hub.Register(uid, conn)
	if err != nil {
		middleware.Logger.Warn("websocket registration refused", "user_id", uid, "error", err)
		msg, _ := json.Marshal(fiber.Map{"error": err.Error()})
		_ = conn.WriteMessage(websocket.TextMessage, msg)
		_ = conn.Close()
		return
	}
	defer s.hub.UnregisterClient(client)

	middleware.Logger.Debug("websocket connected", "user_id", uid, "connections", s.hub.Connections(uid))

	go client.WritePump()
	client.ReadPump()
}
