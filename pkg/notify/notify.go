// Package notify distributes bubble size changes between canvas owners.
//
// When a selection grows a bubble, the server persists the new size and
// publishes a [SizeChanged] event. Every subscribed canvas (including other
// server instances when the Redis bus is used) applies it as a replacement
// size.
package notify

import (
	"context"
	"errors"
)

// DefaultChannel is the Redis channel size events are published on.
const DefaultChannel = "coinbubbles:sizes"

// ErrClosed is returned when publishing to or subscribing on a closed bus.
var ErrClosed = errors.New("bus closed")

// SizeChanged reports the new base size of a bubble. Origin identifies the
// publishing instance so it can skip its own events.
type SizeChanged struct {
	ID       string  `json:"id"`
	BaseSize float64 `json:"baseSize"`
	Origin   string  `json:"origin,omitempty"`
}

// Bus fans size events out to subscribers.
type Bus interface {
	Publish(ctx context.Context, ev SizeChanged) error
	// Subscribe returns a channel of events. The channel is closed when ctx
	// is done or the bus is closed.
	Subscribe(ctx context.Context) (<-chan SizeChanged, error)
	Close() error
}
