// Package notify fans record change events out to the dashboards that display them.
package notify

import (
	"context"
	"sync"
	"time"
)

const (
	// EventStatusChanged reports records whose status changed.
	EventStatusChanged = "status-change"
	// EventRecordsRemoved reports deleted records.
	EventRecordsRemoved = "records-removed"
	// EventHeartbeat keeps idle streams open.
	EventHeartbeat = "heartbeat"

	// adminTopic receives every owner's events.
	adminTopic = "*"

	defaultBufferSize = 16
)

// Event is one change notification.
type Event struct {
	OwnerID   string    `json:"owner_id"`
	Type      string    `json:"type"`
	Entity    string    `json:"entity"`
	RecordIDs []string  `json:"record_ids"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub delivers events to subscribers of the event owner and to admin subscribers. Slow
// subscribers miss events instead of blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan Event
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  defaultBufferSize,
	}
}

// Subscribe registers a stream for userID, or for every owner when admin is true. The
// subscription ends when ctx is done or the returned cleanup runs.
func (h *Hub) Subscribe(ctx context.Context, userID string, admin bool) (<-chan Event, func()) {
	if userID == "" {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	topic := userID
	if admin {
		topic = adminTopic
	}
	sub := &subscriber{
		id:     h.nextSequence(),
		stream: make(chan Event, h.bufferSize),
	}
	h.register(topic, sub)
	done := make(chan struct{})
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(done)
			h.unregister(topic, sub.id)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()
	return sub.stream, cleanup
}

// Publish delivers event without blocking.
func (h *Hub) Publish(event Event) {
	if event.OwnerID == "" || event.Type == "" {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subscribers[event.OwnerID])+len(h.subscribers[adminTopic]))
	for _, sub := range h.subscribers[event.OwnerID] {
		targets = append(targets, sub)
	}
	for _, sub := range h.subscribers[adminTopic] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.stream <- event:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

func (h *Hub) nextSequence() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return h.nextID
}

func (h *Hub) register(topic string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[topic]; !ok {
		h.subscribers[topic] = make(map[int64]*subscriber)
	}
	h.subscribers[topic][sub.id] = sub
}

func (h *Hub) unregister(topic string, subscriberID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subscribers[topic]
	if subs == nil {
		return
	}
	delete(subs, subscriberID)
	if len(subs) == 0 {
		delete(h.subscribers, topic)
	}
}
