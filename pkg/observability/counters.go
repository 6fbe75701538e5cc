package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters implements every hook interface with atomic counters.
// The zero value is ready to use and safe for concurrent use.
type Counters struct {
	applies     atomic.Int64
	applyErrors atomic.Int64
	bestEffort  atomic.Int64
	applyNanos  atomic.Int64
	bubbles     atomic.Int64
	clients     atomic.Int64
	broadcasts  atomic.Int64
	frameBytes  atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	cacheSets   atomic.Int64
	requests    atomic.Int64
	responses   atomic.Int64
	httpErrors  atomic.Int64
}

// Snapshot is a point-in-time copy of [Counters].
type Snapshot struct {
	Applies       int64   `json:"applies"`
	ApplyErrors   int64   `json:"applyErrors"`
	BestEffort    int64   `json:"bestEffort"`
	MeanApplyMS   float64 `json:"meanApplyMs"`
	Bubbles       int64   `json:"bubbles"`
	Clients       int64   `json:"clients"`
	Broadcasts    int64   `json:"broadcasts"`
	FrameBytes    int64   `json:"frameBytes"`
	CacheHits     int64   `json:"cacheHits"`
	CacheMisses   int64   `json:"cacheMisses"`
	CacheSets     int64   `json:"cacheSets"`
	HTTPRequests  int64   `json:"httpRequests"`
	HTTPResponses int64   `json:"httpResponses"`
	HTTPErrors    int64   `json:"httpErrors"`
}

func (c *Counters) OnApply(_ context.Context, bubbles, _ int, converged bool, d time.Duration, err error) {
	c.applies.Add(1)
	c.applyNanos.Add(int64(d))
	c.bubbles.Store(int64(bubbles))
	if err != nil {
		c.applyErrors.Add(1)
	}
	if !converged {
		c.bestEffort.Add(1)
	}
}

func (c *Counters) OnClients(_ context.Context, n int) { c.clients.Store(int64(n)) }

func (c *Counters) OnBroadcast(_ context.Context, _, size int) {
	c.broadcasts.Add(1)
	c.frameBytes.Add(int64(size))
}

func (c *Counters) OnCacheHit(context.Context, string)      { c.cacheHits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string)     { c.cacheMisses.Add(1) }
func (c *Counters) OnCacheSet(context.Context, string, int) { c.cacheSets.Add(1) }

func (c *Counters) OnRequest(context.Context, string, string, string) { c.requests.Add(1) }

func (c *Counters) OnResponse(context.Context, string, string, string, int, time.Duration) {
	c.responses.Add(1)
}

func (c *Counters) OnError(context.Context, string, string, string, error) { c.httpErrors.Add(1) }

// Snapshot returns the current values.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Applies:       c.applies.Load(),
		ApplyErrors:   c.applyErrors.Load(),
		BestEffort:    c.bestEffort.Load(),
		Bubbles:       c.bubbles.Load(),
		Clients:       c.clients.Load(),
		Broadcasts:    c.broadcasts.Load(),
		FrameBytes:    c.frameBytes.Load(),
		CacheHits:     c.cacheHits.Load(),
		CacheMisses:   c.cacheMisses.Load(),
		CacheSets:     c.cacheSets.Load(),
		HTTPRequests:  c.requests.Load(),
		HTTPResponses: c.responses.Load(),
		HTTPErrors:    c.httpErrors.Load(),
	}
	if s.Applies > 0 {
		s.MeanApplyMS = float64(c.applyNanos.Load()) / float64(s.Applies) / float64(time.Millisecond)
	}
	return s
}

var (
	_ ServerHooks = (*Counters)(nil)
	_ CacheHooks  = (*Counters)(nil)
	_ HTTPHooks   = (*Counters)(nil)
)
