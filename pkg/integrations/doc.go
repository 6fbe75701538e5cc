// Package integrations provides HTTP clients for market data APIs.
//
// The [Client] type carries the shared plumbing: JSON GET requests, response
// caching through [cache.Cache], retries with [cache.RetryWithBackoff] and
// client-side rate limiting with golang.org/x/time/rate. Each API lives in
// its own subpackage and embeds a Client:
//
//   - [coingecko]: coin search and market data
//
// # Client Pattern
//
//	c := coingecko.NewClient(backend, time.Hour)
//	items, err := c.Search(ctx, "bit")
//
// Errors wrap [ErrNotFound], [ErrNetwork] or [ErrRateLimited]; transient
// ones are additionally wrapped with [cache.Retryable].
//
// [coingecko]: github.com/matzehuels/coinbubbles/pkg/integrations/coingecko
// [cache.Cache]: github.com/matzehuels/coinbubbles/pkg/cache.Cache
// [cache.RetryWithBackoff]: github.com/matzehuels/coinbubbles/pkg/cache.RetryWithBackoff
// [cache.Retryable]: github.com/matzehuels/coinbubbles/pkg/cache.Retryable
package integrations
