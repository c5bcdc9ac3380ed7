package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"shiptrack/internal/broadcast"
)

const sseHeartbeatInterval = 15 * time.Second

// EventsHandler streams delivery events to clients over Server-Sent Events.
type EventsHandler struct {
	broadcaster *broadcast.RedisBroadcaster
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(broadcaster *broadcast.RedisBroadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster}
}

// StreamOrderEvents handles GET /v1/orders/:orderNo/events. It relays the
// order's Pub/Sub channel as an SSE stream until the client disconnects.
func (h *EventsHandler) StreamOrderEvents(c *gin.Context) {
	h.stream(c, c.Param("orderNo"))
}

// StreamAllEvents handles GET /v1/events. Firehose stream for dashboards.
func (h *EventsHandler) StreamAllEvents(c *gin.Context) {
	h.stream(c, "")
}

func (h *EventsHandler) stream(c *gin.Context, orderNo string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	sub := h.broadcaster.Subscribe(c.Request.Context(), orderNo)
	defer sub.Close()

	fmt.Fprintf(c.Writer, "event: heartbeat\ndata: {\"ts\":%q}\n\n", time.Now().Format(time.RFC3339))
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	messages := sub.Channel()
	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, "event: heartbeat\ndata: {\"ts\":%q}\n\n", time.Now().Format(time.RFC3339))
			c.Writer.Flush()
		case msg, ok := <-messages:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: delivery\ndata: %s\n\n", msg.Payload)
			c.Writer.Flush()
		}
	}
}
