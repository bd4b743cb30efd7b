package server

import (
	"io"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type heartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// handleEventStream relays change events for the viewer over server-sent events.
// Admin viewers receive every owner's events.
func (h *httpHandler) handleEventStream(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	ctx := c.Request.Context()
	stream, cleanup := h.hub.Subscribe(ctx, viewer.UserID, viewer.IsAdmin())
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.logger.Debug("event stream opened", zap.String("user_id", viewer.UserID), zap.Bool("admin", viewer.IsAdmin()))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-ticker.C:
			c.SSEvent(notify.EventHeartbeat, heartbeatPayload{Timestamp: h.now().UTC()})
			return true
		}
	})
	h.logger.Debug("event stream closed", zap.String("user_id", viewer.UserID))
}
