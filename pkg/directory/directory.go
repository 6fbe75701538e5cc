// Package directory defines the searchable catalogue of selectable items.
//
// The canvas only needs an id and display metadata for each bubble; a
// [Directory] turns a free-text query into candidate [Item] values. The
// CoinGecko client in package integrations/coingecko is the production
// implementation and [Static] serves tests, demos and offline use.
package directory

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/coinbubbles/pkg/bubble"
)

// Item is one selectable entry, such as a coin.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	ImageRef  string  `json:"image,omitempty"`
	Price     float64 `json:"price,omitempty"`
	MarketCap float64 `json:"marketCap,omitempty"`
}

// Metadata converts the item into the display attributes carried by a bubble.
func (it Item) Metadata() bubble.Metadata {
	return bubble.Metadata{
		Name:      it.Name,
		Symbol:    it.Symbol,
		ImageRef:  it.ImageRef,
		Price:     it.Price,
		MarketCap: it.MarketCap,
	}
}

// Directory searches items by free text.
type Directory interface {
	Search(ctx context.Context, query string) ([]Item, error)
}

// Static is an in-memory [Directory].
type Static struct {
	items []Item
}

// NewStatic returns a directory over a copy of items.
func NewStatic(items []Item) *Static {
	return &Static{items: slices.Clone(items)}
}

// Search returns the items whose id, name or symbol contains query,
// ignoring case, in insertion order. A blank query matches nothing.
func (s *Static) Search(ctx context.Context, query string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Item{}, nil
	}
	out := []Item{}
	for _, it := range s.items {
		if strings.Contains(strings.ToLower(it.ID), q) ||
			strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Symbol), q) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Lookup returns the item with the given id.
func (s *Static) Lookup(id string) (Item, bool) {
	i := slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		return Item{}, false
	}
	return s.items[i], true
}

// Items returns a copy of all items.
func (s *Static) Items() []Item { return slices.Clone(s.items) }

// Sample is a small fixed catalogue used by the demo commands and the
// offline server mode.
var Sample = []Item{
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Price: 67000, MarketCap: 1.32e12},
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", Price: 3500, MarketCap: 4.2e11},
	{ID: "tether", Name: "Tether", Symbol: "USDT", Price: 1, MarketCap: 1.1e11},
	{ID: "binancecoin", Name: "BNB", Symbol: "BNB", Price: 580, MarketCap: 8.5e10},
	{ID: "solana", Name: "Solana", Symbol: "SOL", Price: 150, MarketCap: 7e10},
	{ID: "usd-coin", Name: "USDC", Symbol: "USDC", Price: 1, MarketCap: 3.3e10},
	{ID: "ripple", Name: "XRP", Symbol: "XRP", Price: 0.52, MarketCap: 2.9e10},
	{ID: "dogecoin", Name: "Dogecoin", Symbol: "DOGE", Price: 0.15, MarketCap: 2.2e10},
	{ID: "cardano", Name: "Cardano", Symbol: "ADA", Price: 0.45, MarketCap: 1.6e10},
	{ID: "wrapped-bitcoin", Name: "Wrapped Bitcoin", Symbol: "WBTC", Price: 67000, MarketCap: 1e10},
}
