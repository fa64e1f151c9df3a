// Package push fans out events from the dashboard's publish/subscribe socket
// to in-process subscribers. The hub is the transport boundary: a socket
// reader publishes decoded frames into it, and the session orchestrator
// subscribes without knowing where frames come from.
package push

import (
	"sync"

	"aipm/internal/types"
)

type subscriber struct {
	id int
	ch chan types.PushEvent
}

type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers a new subscriber. The cancel func removes it and
// closes its channel.
func (h *Hub) Subscribe() (<-chan types.PushEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan types.PushEvent, 256)
	h.subs[id] = &subscriber{id: id, ch: ch}
	cancel := func() {
		h.mu.Lock()
		sub, ok := h.subs[id]
		if ok {
			delete(h.subs, id)
		}
		h.mu.Unlock()
		if ok {
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber. Slow subscribers drop
// events rather than block the publisher.
func (h *Hub) Publish(event types.PushEvent) {
	if event.Name == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
		}
	}
}
