package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nfrund/kpiboard/internal/hub"
	"github.com/nfrund/kpiboard/internal/pubsub"
)

// Bridge forwards bus events to every connected browser.
type Bridge struct {
	sub    pubsub.Subscriber
	hub    *hub.Hub
	logger *slog.Logger
}

// NewBridge creates a bridge from sub to h.
func NewBridge(sub pubsub.Subscriber, h *hub.Hub, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{sub: sub, hub: h, logger: logger}
}

// Forward subscribes to topics and broadcasts each message as an event envelope
// until ctx is done.
func (b *Bridge) Forward(ctx context.Context, topics ...string) error {
	for _, topic := range topics {
		if err := b.sub.Subscribe(ctx, topic, b.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	b.logger.Info("WebSocket bridge forwarding topics", "topics", topics)
	return nil
}

func (b *Bridge) handle(ctx context.Context, msg pubsub.Message) error {
	payload := json.RawMessage(msg.Payload)
	if !json.Valid(payload) {
		return fmt.Errorf("topic %s: payload is not JSON", msg.Topic)
	}
	data, err := json.Marshal(NewEventMessage(msg.Topic, payload))
	if err != nil {
		return err
	}

	select {
	case b.hub.Broadcast <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
