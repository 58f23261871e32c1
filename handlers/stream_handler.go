package handlers

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/services"
)

// StreamServer runs one subscriber until it disconnects
type StreamServer interface {
	Serve(ctx context.Context, conn services.StreamConn) error
}

type StreamHandler struct {
	Publisher StreamServer
}

func NewStreamHandler(publisher StreamServer) *StreamHandler {
	return &StreamHandler{Publisher: publisher}
}

// RequireUpgrade rejects plain HTTP requests on the stream route
func (h *StreamHandler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "websocket upgrade required",
	})
}

// Stream upgrades the connection and hands it to the publisher
func (h *StreamHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		caller, ok := conn.Locals(callerLocalsKey).(models.Caller)
		if !ok {
			caller = models.Caller{ID: models.AnonymousCaller}
		}
		ctx := models.WithCaller(context.Background(), caller)

		if err := h.Publisher.Serve(ctx, conn); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "StreamHandler",
				"caller":    caller.ID,
			}).WithError(err).Warn("Stream ended with write failure")
		}
	})
}
