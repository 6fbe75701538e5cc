package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopServerHooks{}
	s.OnApply(ctx, 3, 2, true, time.Millisecond, nil)
	s.OnClients(ctx, 1)
	s.OnBroadcast(ctx, 1, 512)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "coingecko")
	c.OnCacheMiss(ctx, "coingecko")
	c.OnCacheSet(ctx, "coingecko", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.coingecko.com", "/api/v3/search")
	h.OnResponse(ctx, "GET", "api.coingecko.com", "/api/v3/search", 200, time.Second)
	h.OnError(ctx, "GET", "api.coingecko.com", "/api/v3/search", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	counters := &Counters{}
	SetServerHooks(counters)
	SetCacheHooks(counters)
	SetHTTPHooks(counters)
	if Server() != ServerHooks(counters) || Cache() != CacheHooks(counters) || HTTP() != HTTPHooks(counters) {
		t.Error("Set*Hooks should register custom hooks")
	}

	Reset()
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset() should restore NoopServerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &Counters{}
	SetCacheHooks(custom)
	SetCacheHooks(nil)

	if Cache() != CacheHooks(custom) {
		t.Error("SetCacheHooks(nil) should be ignored")
	}
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	var c Counters

	c.OnApply(ctx, 2, 1, true, 2*time.Millisecond, nil)
	c.OnApply(ctx, 3, 20, false, 4*time.Millisecond, errors.New("boom"))
	c.OnClients(ctx, 4)
	c.OnBroadcast(ctx, 4, 100)
	c.OnBroadcast(ctx, 4, 50)
	c.OnCacheHit(ctx, "coingecko")
	c.OnCacheMiss(ctx, "coingecko")
	c.OnCacheMiss(ctx, "coingecko")
	c.OnCacheSet(ctx, "coingecko", 10)
	c.OnRequest(ctx, "GET", "h", "/")
	c.OnResponse(ctx, "GET", "h", "/", 200, time.Millisecond)
	c.OnError(ctx, "GET", "h", "/", errors.New("timeout"))

	got := c.Snapshot()
	want := Snapshot{
		Applies:       2,
		ApplyErrors:   1,
		BestEffort:    1,
		MeanApplyMS:   3,
		Bubbles:       3,
		Clients:       4,
		Broadcasts:    2,
		FrameBytes:    150,
		CacheHits:     1,
		CacheMisses:   2,
		CacheSets:     1,
		HTTPRequests:  1,
		HTTPResponses: 1,
		HTTPErrors:    1,
	}
	if got != want {
		t.Errorf("Snapshot() = %+v\nwant %+v", got, want)
	}
}

func TestCountersZeroValue(t *testing.T) {
	var c Counters
	if got := c.Snapshot(); got != (Snapshot{}) {
		t.Errorf("zero Snapshot() = %+v", got)
	}
}
