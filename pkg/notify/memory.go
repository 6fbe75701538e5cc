package notify

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

const subscriberBuffer = 64

// MemoryBus delivers events to subscribers in the same process. Slow
// subscribers lose events rather than block publishers.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[int]chan SizeChanged
	next   int
	closed bool
	done   chan struct{}
	logger *log.Logger
}

// NewMemoryBus returns an open bus. A nil logger discards output.
func NewMemoryBus(logger *log.Logger) *MemoryBus {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &MemoryBus{subs: make(map[int]chan SizeChanged), done: make(chan struct{}), logger: logger}
}

func (b *MemoryBus) Publish(ctx context.Context, ev SizeChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping size event for slow subscriber", "subscriber", id, "id", ev.ID)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan SizeChanged, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	id := b.next
	b.next++
	ch := make(chan SizeChanged, subscriberBuffer)
	b.subs[id] = ch

	go func() {
		select {
		case <-ctx.Done():
			b.remove(id)
		case <-b.done:
		}
	}()
	return ch, nil
}

func (b *MemoryBus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Close closes every subscriber channel. Further calls are no-ops.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}

var _ Bus = (*MemoryBus)(nil)
