package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan SizeChanged) SizeChanged {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return SizeChanged{}
}

func TestMemoryBusFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus(nil)
	defer bus.Close()

	a, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	ev := SizeChanged{ID: "bitcoin", BaseSize: 60, Origin: "node-1"}
	require.NoError(t, bus.Publish(ctx, ev))

	assert.Equal(t, ev, receive(t, a))
	assert.Equal(t, ev, receive(t, b))
}

func TestMemoryBusUnsubscribeOnCancel(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing with no subscribers is fine.
	require.NoError(t, bus.Publish(context.Background(), SizeChanged{ID: "x", BaseSize: 1}))
}

func TestMemoryBusDropsForSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus(nil)
	defer bus.Close()
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	for i := range subscriberBuffer + 10 {
		require.NoError(t, bus.Publish(ctx, SizeChanged{ID: "a", BaseSize: float64(i)}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus(nil)
	ch, err := bus.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, bus.Publish(context.Background(), SizeChanged{}), ErrClosed)
	_, err = bus.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisBus(t *testing.T) {
	url := os.Getenv("COINBUBBLES_TEST_REDIS_URL")
	if url == "" {
		t.Skip("COINBUBBLES_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus, err := NewRedisBus(ctx, url, "coinbubbles:test:"+t.Name(), nil)
	require.NoError(t, err)
	defer bus.Close()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	ev := SizeChanged{ID: "ethereum", BaseSize: 70, Origin: "node-2"}
	require.NoError(t, bus.Publish(ctx, ev))
	assert.Equal(t, ev, receive(t, ch))
}
