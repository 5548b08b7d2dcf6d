package stream

import (
	"fmt"
	"net/http"
	"time"

	"trip-planner/internal/errors"

	"github.com/gin-gonic/gin"
)

// keepAliveInterval is how long an idle stream waits before emitting a
// keep-alive comment so intermediaries see the connection as live.
const keepAliveInterval = 30 * time.Second

// SnapshotSource produces the current pair of full snapshots for a
// freshly connected viewer.
type SnapshotSource interface {
	Snapshots() (itinerary any, packing any, err error)
}

// Handler serves the SSE endpoint.
type Handler struct {
	hub    *Hub
	source SnapshotSource
}

func NewHandler(hub *Hub, source SnapshotSource) *Handler {
	return &Handler{hub: hub, source: source}
}

// Stream subscribes the caller and relays snapshots until the client
// disconnects or the subscription is evicted.
func (h *Handler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Error(errors.Internal(fmt.Errorf("streaming unsupported")))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	itinerary, packing, err := h.source.Snapshots()
	if err != nil {
		// Headers already went out; the viewer reconnects and retries.
		return
	}
	h.hub.SendTo(sub, KindItinerary, itinerary)
	h.hub.SendTo(sub, KindPacking, packing)

	keepAlive := time.NewTimer(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case msg, open := <-sub.Messages():
			if !open {
				// Evicted as a slow consumer.
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", msg)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}

		if !keepAlive.Stop() {
			select {
			case <-keepAlive.C:
			default:
			}
		}
		keepAlive.Reset(keepAliveInterval)
	}
}
