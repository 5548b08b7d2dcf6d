package stream

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvPayload(t *testing.T, sub *Subscription) envelope {
	t.Helper()
	select {
	case raw, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed unexpectedly")
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return envelope{}
	}
}

func TestPublish_ReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish(KindItinerary, map[string]any{"days": []any{}})

	for _, sub := range []*Subscription{a, b} {
		env := recvPayload(t, sub)
		assert.Equal(t, KindItinerary, env.Type)
	}
}

func TestPublish_FIFOPerSubscription(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()

	for i := range 10 {
		hub.Publish(KindPacking, map[string]any{"seq": i})
	}

	for i := range 10 {
		env := recvPayload(t, sub)
		data := env.Data.(map[string]any)
		assert.Equal(t, float64(i), data["seq"])
	}
}

func TestPublish_SlowConsumerEvictedWithoutBlocking(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	// Fill both buffers, then drain only fast.
	for i := 0; i < subscriptionBuffer; i++ {
		hub.Publish(KindItinerary, map[string]any{"seq": i})
	}
	for i := 0; i < subscriptionBuffer; i++ {
		recvPayload(t, fast)
	}

	// The next publish overflows slow; it must be evicted, not waited on.
	hub.Publish(KindItinerary, map[string]any{"seq": subscriptionBuffer})

	assert.Equal(t, 1, hub.SubscriberCount(), "slow subscriber must be evicted")

	env := recvPayload(t, fast)
	assert.Equal(t, KindItinerary, env.Type, "fast subscriber still receives after eviction")

	// The evicted channel holds its backlog and then closes.
	drained := 0
	for range slow.Messages() {
		drained++
	}
	assert.Equal(t, subscriptionBuffer, drained)
}

func TestSlowConsumerEviction_ClosesChannel(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe()

	for i := 0; i < subscriptionBuffer+1; i++ {
		hub.Publish(KindItinerary, fmt.Sprintf("m%d", i))
	}

	// Drain; the channel must end closed.
	for i := 0; i < subscriptionBuffer; i++ {
		<-slow.Messages()
	}
	_, ok := <-slow.Messages()
	assert.False(t, ok, "evicted subscription channel must be closed")
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // no panic, no effect

	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestSendTo_OnlyTargetsOneSubscription(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.SendTo(a, KindPacking, map[string]any{"items": []any{}})

	env := recvPayload(t, a)
	assert.Equal(t, KindPacking, env.Type)

	select {
	case <-b.Messages():
		t.Fatal("SendTo must not reach other subscriptions")
	default:
	}
}
