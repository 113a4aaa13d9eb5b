package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

// Relay mirrors bus events onto a Redis channel so a detached viewer process
// can follow the carousel.
type Relay struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRelay(client *redis.Client, channel string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{client: client, channel: channel, logger: logger}
}

func (r *Relay) Publish(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Forward publishes every bus event until ctx ends.
func (r *Relay) Forward(ctx context.Context, bus *Bus) {
	ch, cancel := bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := r.Publish(ctx, e); err != nil {
				r.logger.Warn("relay publish failed", "type", e.Type, "err", err)
			}
		}
	}
}

// Listen delivers relayed events to fn until ctx ends.
func (r *Relay) Listen(ctx context.Context, fn func(domain.Event)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				r.logger.Warn("relay decode failed", "err", err)
				continue
			}
			fn(e)
		}
	}
}
