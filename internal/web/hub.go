package web

import (
	"sync"
	"time"

	"gnssrx/internal/gnss"
)

// Event is one decoded message or stream anomaly as sent to websocket
// clients.
type Event struct {
	Time     time.Time    `json:"time"`
	Protocol string       `json:"protocol"`
	Key      string       `json:"key,omitempty"`
	Message  gnss.Message `json:"message,omitempty"`
	Kind     string       `json:"error_kind,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Hub fans decoded output out to any listeners. It is a gnss.Sink; slow
// subscribers lose events rather than stall the parser.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	clock  gnss.Clock
}

func NewHub(clock gnss.Clock) *Hub {
	if clock == nil {
		clock = gnss.SystemClock
	}
	return &Hub{subs: make(map[int]chan Event), clock: clock}
}

func (h *Hub) Subscribe(buffer int) (int, <-chan Event) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) Frame(gnss.Protocol, []byte) {}

func (h *Hub) Message(m gnss.Message) {
	h.Publish(Event{Time: h.clock(), Protocol: m.Protocol().String(), Key: m.Key(), Message: m})
}

func (h *Hub) Error(err *gnss.ParseError) {
	h.Publish(Event{
		Time:     h.clock(),
		Protocol: err.Protocol.String(),
		Key:      err.Key,
		Kind:     err.Kind.String(),
		Error:    err.Error(),
	})
}
