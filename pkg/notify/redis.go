package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// RedisBus publishes events on a Redis Pub/Sub channel so canvases in
// different processes stay in sync.
type RedisBus struct {
	client  redis.UniversalClient
	channel string
	owned   bool
	logger  *log.Logger
}

// NewRedisBus connects to url (redis://host:port/db) and verifies the
// connection. An empty channel uses [DefaultChannel].
func NewRedisBus(ctx context.Context, url, channel string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	b := NewRedisBusFromClient(client, channel, logger)
	b.owned = true
	return b, nil
}

// NewRedisBusFromClient uses an existing client. Close leaves it open.
func NewRedisBusFromClient(client redis.UniversalClient, channel string, logger *log.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &RedisBus{client: client, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, ev SizeChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan SizeChanged, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	out := make(chan SizeChanged, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev SizeChanged
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("ignoring malformed size event", "err", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the client if the bus created it.
func (b *RedisBus) Close() error {
	if b.owned {
		return b.client.Close()
	}
	return nil
}

var _ Bus = (*RedisBus)(nil)
