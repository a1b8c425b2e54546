// Package feed notifies listeners that the order collection changed.
// Listeners re-read and regroup on each event; they never receive diffs.
package feed

import (
	"sync"
	"time"
)

type Event struct {
	Kind    string    `json:"kind"` // insert, update, replace, delete
	OrderID string    `json:"orderId,omitempty"`
	At      time.Time `json:"at"`
}

type Subscriber interface {
	Subscribe(onChange func(Event)) (unsubscribe func())
}

type Publisher interface {
	Publish(Event)
}

const subscriberBuffer = 16

type subscription struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// Hub fans events out to subscribers. Each subscriber has its own goroutine
// and a buffer of subscriberBuffer events; while the buffer is full, newly
// published events are dropped for that subscriber. Listeners re-read on
// every event, so the queued ones already cause a refresh.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

func (h *Hub) Subscribe(onChange func(Event)) func() {
	s := &subscription{
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case ev := <-s.ch:
				onChange(ev)
			}
		}
	}()

	return func() {
		h.mu.Lock()
		delete(h.subs, s)
		h.mu.Unlock()
		s.stop()
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close stops every subscription. Later Subscribe calls return a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		s.stop()
		delete(h.subs, s)
	}
}
