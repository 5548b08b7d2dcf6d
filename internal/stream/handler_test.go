package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct{}

func (stubSource) Snapshots() (any, any, error) {
	return gin.H{"days": []any{}}, gin.H{"items": []any{}}, nil
}

func TestStream_InitialSnapshotPairThenLiveUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	handler := NewHandler(hub, stubSource{})

	router := gin.New()
	router.GET("/stream", handler.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond, "viewer should be subscribed")

	hub.Publish(KindItinerary, gin.H{"days": []any{"updated"}})

	// Let the loop drain the buffered messages before disconnecting.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not exit on disconnect")
	}

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `"type":"data"`)
	assert.Contains(t, body, `"type":"packing"`)
	assert.GreaterOrEqual(t, strings.Count(body, "data: "), 3, "two initial snapshots plus one live update")

	assert.Equal(t, 0, hub.SubscriberCount(), "disconnect must unsubscribe")
}
