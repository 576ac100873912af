package hub

import (
	"context"
	"log/slog"
)

// Subscriber is a single client receiving broadcasts from the Hub.
type Subscriber struct {
	// Send is a buffered channel of outbound messages. The Hub closes it on unregister.
	Send chan []byte
}

// NewSubscriber creates a subscriber with a send buffer of size n.
func NewSubscriber(n int) *Subscriber {
	return &Subscriber{Send: make(chan []byte, n)}
}

// Hub maintains the set of active subscribers and broadcasts messages to them.
// All state is owned by the Run goroutine.
type Hub struct {
	subscribers map[*Subscriber]bool

	// Broadcast delivers a message to every subscriber.
	Broadcast chan []byte

	// Register adds a subscriber.
	Register chan *Subscriber

	// Unregister removes a subscriber and closes its Send channel.
	Unregister chan *Subscriber

	logger *slog.Logger
}

// NewHub creates and returns a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Broadcast:   make(chan []byte),
		Register:    make(chan *Subscriber),
		Unregister:  make(chan *Subscriber),
		subscribers: make(map[*Subscriber]bool),
		logger:      logger,
	}
}

// Run processes registrations and broadcasts until ctx is done. It must run in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for s := range h.subscribers {
				close(s.Send)
				delete(h.subscribers, s)
			}
			h.logger.Debug("Hub stopped")
			return

		case s := <-h.Register:
			h.subscribers[s] = true
			h.logger.Info("New subscriber registered", "total_subscribers", len(h.subscribers))

		case s := <-h.Unregister:
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.Send)
				h.logger.Info("Subscriber unregistered", "total_subscribers", len(h.subscribers))
			}

		case message := <-h.Broadcast:
			h.logger.Debug("Broadcasting message", "recipient_count", len(h.subscribers))
			for s := range h.subscribers {
				// A full buffer means the client is stuck; drop it.
				select {
				case s.Send <- message:
				default:
					close(s.Send)
					delete(h.subscribers, s)
					h.logger.Warn("Unregistering slow subscriber", "total_subscribers", len(h.subscribers))
				}
			}
		}
	}
}
