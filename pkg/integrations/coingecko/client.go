// Package coingecko implements [directory.Directory] against the CoinGecko
// public API.
//
// A search issues two requests: /search?query= for candidate coins, then
// /coins/markets?ids= for price and market capitalisation of the first
// [DefaultLimit] candidates. Both responses are cached.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/coinbubbles/pkg/cache"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/integrations"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// DefaultLimit caps the number of search results.
	DefaultLimit = 10

	// APIKeyHeader carries a demo API key when one is configured.
	APIKeyHeader = "x-cg-demo-api-key"

	namespace = "coingecko"
)

// Config holds client settings. Zero fields take their defaults.
type Config struct {
	BaseURL  string
	APIKey   string
	Currency string
	Limit    int
	// RateLimit is the maximum number of requests per second; 0 disables it.
	RateLimit float64
}

// Client searches coins on CoinGecko.
//
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL  string
	currency string
	limit    int
}

// NewClient creates a client with default settings.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return NewClientWithConfig(backend, cacheTTL, Config{}, opts...)
}

// NewClientWithConfig creates a client from cfg.
func NewClientWithConfig(backend cache.Cache, cacheTTL time.Duration, cfg Config, opts ...integrations.Option) *Client {
	var headers map[string]string
	if cfg.APIKey != "" {
		headers = map[string]string{APIKeyHeader: cfg.APIKey}
	}
	if cfg.RateLimit > 0 {
		opts = append([]integrations.Option{integrations.WithRateLimit(cfg.RateLimit, 1)}, opts...)
	}
	c := &Client{
		Client:   integrations.NewClient(backend, namespace, cacheTTL, headers, opts...),
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		currency: strings.ToLower(cfg.Currency),
		limit:    cfg.Limit,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.currency == "" {
		c.currency = "usd"
	}
	if c.limit <= 0 {
		c.limit = DefaultLimit
	}
	return c
}

// Search returns coins matching query, best match first, with price and
// market data filled in when available. A blank query returns no items and
// makes no request.
func (c *Client) Search(ctx context.Context, query string) ([]directory.Item, error) {
	return c.search(ctx, query, false)
}

// Refresh is like Search but bypasses the cache.
func (c *Client) Refresh(ctx context.Context, query string) ([]directory.Item, error) {
	return c.search(ctx, query, true)
}

func (c *Client) search(ctx context.Context, query string, refresh bool) ([]directory.Item, error) {
	query = integrations.NormalizeQuery(query)
	if query == "" {
		return []directory.Item{}, nil
	}

	var found searchResponse
	key := c.Keyer().SearchKey(namespace, query)
	err := c.Cached(ctx, key, refresh, &found, func() error {
		return c.Get(ctx, fmt.Sprintf("%s/search?query=%s", c.baseURL, integrations.URLEncode(query)), &found)
	})
	if err != nil {
		return nil, fmt.Errorf("coingecko search %q: %w", query, err)
	}

	coins := found.Coins
	if len(coins) > c.limit {
		coins = coins[:c.limit]
	}
	items := make([]directory.Item, 0, len(coins))
	ids := make([]string, 0, len(coins))
	for _, coin := range coins {
		if coin.ID == "" {
			continue
		}
		items = append(items, directory.Item{
			ID:       coin.ID,
			Name:     coin.Name,
			Symbol:   integrations.NormalizeSymbol(coin.Symbol),
			ImageRef: firstNonEmpty(coin.Large, coin.Thumb),
		})
		ids = append(ids, coin.ID)
	}
	if len(ids) == 0 {
		return items, nil
	}

	markets, err := c.Markets(ctx, ids, refresh)
	if err != nil {
		// Candidates without prices are still selectable.
		c.Logger().Warn("market data unavailable", "query", query, "err", err)
		return items, nil
	}
	for i := range items {
		if m, ok := markets[items[i].ID]; ok {
			items[i].Price = m.CurrentPrice
			items[i].MarketCap = m.MarketCap
			if m.Image != "" {
				items[i].ImageRef = m.Image
			}
		}
	}
	return items, nil
}

// Market is the subset of /coins/markets fields used for bubbles.
type Market struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
}

// Markets fetches market data for ids, keyed by id.
func (c *Client) Markets(ctx context.Context, ids []string, refresh bool) (map[string]Market, error) {
	if len(ids) == 0 {
		return map[string]Market{}, nil
	}
	joined := strings.Join(ids, ",")
	url := fmt.Sprintf("%s/coins/markets?vs_currency=%s&ids=%s",
		c.baseURL, integrations.URLEncode(c.currency), integrations.URLEncode(joined))

	var list []Market
	key := c.Keyer().HTTPKey(namespace, "markets:"+c.currency+":"+joined)
	err := c.Cached(ctx, key, refresh, &list, func() error {
		return c.Get(ctx, url, &list)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: coingecko markets for %s", err, joined)
		}
		return nil, err
	}

	out := make(map[string]Market, len(list))
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

type searchResponse struct {
	Coins []searchCoin `json:"coins"`
}

type searchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ directory.Directory = (*Client)(nil)
