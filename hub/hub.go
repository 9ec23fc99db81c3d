// Package hub fans live call and table events out to connected dashboards.
package hub

import (
	"sync"
	"sync/atomic"

	"github.com/softex1/tably-paket1/utils"
)

// Event types
const (
	EventCallCreated  = "call_created"
	EventCallResolved = "call_resolved"
	EventTableCreated = "table_created"
	EventTableUpdated = "table_updated"
	EventTableDeleted = "table_deleted"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Subscriber receives messages on a bounded channel. When the channel is
// full, new messages for this subscriber are dropped.
type Subscriber struct {
	ch      chan Message
	role    string
	dropped atomic.Int64
}

func (s *Subscriber) C() <-chan Message { return s.ch }

func (s *Subscriber) Role() string { return s.role }

// Dropped reports how many messages this subscriber missed.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	onDrop func()
}

// NewHub creates a hub whose subscribers buffer up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// OnDrop registers a callback invoked for every dropped message.
func (h *Hub) OnDrop(fn func()) {
	h.mu.Lock()
	h.onDrop = fn
	h.mu.Unlock()
}

func (h *Hub) Subscribe(role string) *Subscriber {
	s := &Subscriber{ch: make(chan Message, h.buffer), role: role}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	utils.InfoLogger.Debugf("hub: %s subscribed (%d total)", role, h.Count())
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// Publish delivers msg to every subscriber without blocking.
func (h *Hub) Publish(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- msg:
		default:
			s.dropped.Add(1)
			if h.onDrop != nil {
				h.onDrop()
			}
			utils.InfoLogger.Warnf("hub: dropped %s for slow %s subscriber", msg.Event, s.role)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}
