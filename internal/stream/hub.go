// Package stream maintains the set of live viewers and pushes a fresh
// snapshot to each of them after every committed change.
package stream

import (
	"encoding/json"
	"log"
	"sync"
)

// Snapshot kinds on the wire. The frontend switches on the "type" field.
const (
	KindItinerary = "data"
	KindPacking   = "packing"
)

// subscriptionBuffer bounds how many pending messages a viewer may lag
// behind before it is considered dead.
const subscriptionBuffer = 200

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Subscription is one viewer's ephemeral channel within the hub.
type Subscription struct {
	ch     chan []byte
	closed bool // guarded by the hub mutex
}

// Messages returns the viewer's FIFO delivery channel. It is closed
// when the subscription is removed.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

// Hub owns the subscriber set. All iteration happens inside the hub;
// callers only subscribe, unsubscribe and publish.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new viewer with an empty buffer.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan []byte, subscriptionBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a viewer and closes its channel. Removing twice
// is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	h.dropLocked(sub)
	h.mu.Unlock()
}

// Publish serializes the snapshot once and enqueues it to every live
// subscription. A subscription whose buffer is full is dropped rather
// than blocked on: a slow viewer must never delay the others.
func (h *Hub) Publish(kind string, data any) {
	payload, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		log.Printf("Could not encode %s snapshot: %v", kind, err)
		return
	}

	h.mu.Lock()
	for sub := range h.subs {
		select {
		case sub.ch <- payload:
		default:
			log.Println("Subscriber buffer full, dropping subscription")
			h.dropLocked(sub)
		}
	}
	h.mu.Unlock()
}

// SendTo enqueues a snapshot to a single subscription, used for the
// initial full snapshots a viewer gets right after connecting.
func (h *Hub) SendTo(sub *Subscription, kind string, data any) {
	payload, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		log.Printf("Could not encode %s snapshot: %v", kind, err)
		return
	}

	h.mu.Lock()
	if !sub.closed {
		select {
		case sub.ch <- payload:
		default:
			h.dropLocked(sub)
		}
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) dropLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	delete(h.subs, sub)
	sub.closed = true
	close(sub.ch)
}
