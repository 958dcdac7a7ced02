package handlers

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/scan"
	"github.com/keywordpulse/backend/pkg/logger"
)

// WebSocketHandler streams scan progress to the client: one "progress"
// frame per pipeline update, then a single "complete" frame with the
// full result.
type WebSocketHandler struct {
	service *scan.Service
}

func NewWebSocketHandler(service *scan.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type    string       `json:"type"`
			Request scan.Request `json:"request"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "search" {
			continue
		}

		logger.Info("Processing WebSocket search", zap.Strings("keywords", msg.Request.Keywords))

		if err := h.streamScan(c, msg.Request); err != nil {
			logger.Error("Failed to stream scan", zap.Error(err))
			h.sendError(c, err.Error())
		}
	}
}

func (h *WebSocketHandler) streamScan(c *websocket.Conn, req scan.Request) error {
	ctx := context.Background()

	h.sendFrame(c, map[string]interface{}{
		"type":   "status",
		"status": "started",
	})

	result, err := h.service.Run(ctx, req, func(p scan.Progress) {
		h.sendFrame(c, map[string]interface{}{
			"type":     "progress",
			"stage":    p.Stage,
			"accepted": p.Accepted,
			"scored":   p.Scored,
		})
	})
	if err != nil {
		return err
	}

	return h.sendFrame(c, map[string]interface{}{
		"type":       "complete",
		"run_id":     result.RunID,
		"items":      result.Items,
		"stats":      result.Stats,
		"partial":    result.Partial,
		"reason":     result.Reason,
		"elapsed_ms": result.Elapsed.Milliseconds(),
	})
}

func (h *WebSocketHandler) sendFrame(c *websocket.Conn, frame map[string]interface{}) error {
	c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.WriteJSON(frame)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	h.sendFrame(c, map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
