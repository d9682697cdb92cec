package console

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval is how often an idle event stream sends a heartbeat.
var heartbeatInterval = 15 * time.Second

// events streams "analytics" and "chat" events carrying the full state
// whenever either controller changes.
func (h *handlers) events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	analyticsCh, unsubAnalytics := h.analytics.Subscribe()
	defer unsubAnalytics()
	chatCh, unsubChat := h.chat.Subscribe()
	defer unsubChat()

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		case <-analyticsCh:
			writeSSE(c.Writer, "analytics", h.analyticsView())
		case <-chatCh:
			writeSSE(c.Writer, "chat", h.chatView())
		}
		c.Writer.Flush()
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
