package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// PriceBook is an immutable-after-load price snapshot
type PriceBook struct {
	quotes map[entities.ItemID]entities.PriceQuote
}

// NewPriceBook creates a price book from quotes; later quotes for an item win
func NewPriceBook(quotes []entities.PriceQuote) *PriceBook {
	book := &PriceBook{quotes: make(map[entities.ItemID]entities.PriceQuote, len(quotes))}
	for _, quote := range quotes {
		book.SetQuote(quote)
	}
	return book
}

// Verify interface compliance
var _ repositories.PriceOracle = (*PriceBook)(nil)
var _ repositories.PriceSource = (*PriceBook)(nil)

// SetQuote stores a quote, dropping non-positive prices
func (b *PriceBook) SetQuote(quote entities.PriceQuote) {
	if quote.Item <= 0 {
		return
	}
	b.quotes[quote.Item] = entities.NewPriceQuote(quote.Item, quote.Market, quote.JobFeeBasis)
}

// MarketUnitPrice returns the market price used for buy decisions
func (b *PriceBook) MarketUnitPrice(item entities.ItemID) (decimal.Decimal, bool) {
	quote, ok := b.quotes[item]
	if !ok || !quote.Market.Valid {
		return decimal.Zero, false
	}
	return quote.Market.Decimal, true
}

// JobFeeBasisPrice returns the reference price used for job fee estimation
func (b *PriceBook) JobFeeBasisPrice(item entities.ItemID) (decimal.Decimal, bool) {
	quote, ok := b.quotes[item]
	if !ok || !quote.JobFeeBasis.Valid {
		return decimal.Zero, false
	}
	return quote.JobFeeBasis.Decimal, true
}

// LoadPrices returns every quote ordered by item id
func (b *PriceBook) LoadPrices(_ context.Context) ([]entities.PriceQuote, error) {
	quotes := make([]entities.PriceQuote, 0, len(b.quotes))
	for _, quote := range b.quotes {
		quotes = append(quotes, quote)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Item < quotes[j].Item })
	return quotes, nil
}

// Len returns the number of items with a quote
func (b *PriceBook) Len() int {
	return len(b.quotes)
}
