// Package cache provides the byte caches used by the directory clients.
//
// Three backends implement [Cache]:
//
//   - [FileCache] stores entries as JSON files, for the CLI.
//   - [RedisCache] stores entries in Redis, shared between server replicas.
//   - [NullCache] stores nothing.
//
// Keys are built by a [Keyer]; [ScopedKeyer] adds a prefix so several
// deployments can share one Redis database.
//
// The package also carries the retry helpers used by HTTP clients:
// wrap transient failures with [Retryable] and run the request through
// [RetryWithBackoff].
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache stores opaque byte values with an optional time to live.
// A zero ttl means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a raw HTTP response body.
	HTTPKey(namespace, key string) string
	// SearchKey keys the result of a directory search.
	SearchKey(source, query string) string
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// SearchKey hashes the normalized query so arbitrary input stays a safe key.
func (DefaultKeyer) SearchKey(source, query string) string {
	return hashKey("search", source, strings.ToLower(strings.TrimSpace(query)))
}

// ScopedKeyer prefixes every key produced by an inner keyer.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner uses [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) SearchKey(source, query string) string {
	return k.prefix + k.inner.SearchKey(source, query)
}
