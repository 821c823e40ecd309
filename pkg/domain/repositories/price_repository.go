package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// PriceOracle answers price lookups against an immutable snapshot
type PriceOracle interface {
	MarketUnitPrice(item entities.ItemID) (decimal.Decimal, bool)
	JobFeeBasisPrice(item entities.ItemID) (decimal.Decimal, bool)
}

// PriceSource loads the current price quotes from a backing store
type PriceSource interface {
	LoadPrices(ctx context.Context) ([]entities.PriceQuote, error)
}
