package pipeline

import (
	"sync"
	"time"
)

// Event records one pipeline state transition.
type Event struct {
	ItemID   string    `json:"itemId,omitempty"`
	ItemName string    `json:"itemName"`
	Step     Step      `json:"step"`
	Detail   string    `json:"detail,omitempty"`
	Time     time.Time `json:"time"`
}

// Notifier receives pipeline state transitions. Implementations must
// be safe for concurrent use and must not block.
type Notifier interface {
	Notify(Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}

// MemoryNotifier keeps the most recent events in a fixed-size ring,
// serving the notifications endpoint.
type MemoryNotifier struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewMemoryNotifier creates a ring holding up to capacity events.
func NewMemoryNotifier(capacity int) *MemoryNotifier {
	if capacity < 1 {
		capacity = 100
	}
	return &MemoryNotifier{events: make([]Event, capacity)}
}

// Notify records the event, evicting the oldest when full.
func (n *MemoryNotifier) Notify(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events[n.next] = e
	n.next = (n.next + 1) % len(n.events)
	if n.next == 0 {
		n.full = true
	}
}

// Recent returns the stored events, oldest first.
func (n *MemoryNotifier) Recent() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.full {
		out := make([]Event, n.next)
		copy(out, n.events[:n.next])
		return out
	}

	out := make([]Event, 0, len(n.events))
	out = append(out, n.events[n.next:]...)
	out = append(out, n.events[:n.next]...)
	return out
}
