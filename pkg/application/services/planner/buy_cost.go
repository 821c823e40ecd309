package planner

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/services/ledger"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// buyQuote is the cost of sourcing a quantity without building it: owned stock
// first at FIFO cost, the rest at market
type buyQuote struct {
	unitPrice     decimal.NullDecimal
	cost          decimal.NullDecimal
	effectiveUnit decimal.NullDecimal
	usage         *entities.InventoryUsage
	takeable      bool
}

func (r *run) quoteBuy(item entities.ItemID, quantity entities.Quantity) buyQuote {
	var quote buyQuote

	market, hasMarket := r.prices.MarketUnitPrice(item)
	if hasMarket {
		quote.unitPrice = decimal.NewNullDecimal(market)
	}
	qty := decimal.NewFromInt(int64(quantity))

	if !r.useFIFO {
		if hasMarket {
			quote.cost = decimal.NewNullDecimal(market.Mul(qty))
			quote.effectiveUnit = quote.unitPrice
		}
		return quote
	}

	onHand := r.inventory.OnHand(item)
	used := entities.MinQuantity(quantity, max(0, onHand))
	allocation := ledger.AllocateFIFOBreakdown(r.inventory.Lots(item), used)
	unknownCost := used - allocation.PricedQty
	buyNow := quantity - used

	quote.usage = &entities.InventoryUsage{
		OnHand:         onHand,
		Used:           used,
		FIFOPricedQty:  allocation.PricedQty,
		UnknownCostQty: unknownCost,
		FIFOCost:       allocation.TotalCost,
		BySource:       allocation.BySource,
		BuyNowQty:      buyNow,
	}

	atMarket := unknownCost + buyNow
	switch {
	case atMarket == 0:
		quote.cost = decimal.NewNullDecimal(allocation.TotalCost)
	case hasMarket:
		quote.cost = decimal.NewNullDecimal(allocation.TotalCost.Add(market.Mul(decimal.NewFromInt(int64(atMarket)))))
	}
	if !quote.cost.Valid {
		return quote
	}
	quote.effectiveUnit = decimal.NewNullDecimal(quote.cost.Decimal.Div(qty))

	// Taking is only worthwhile when the whole requirement comes out of
	// priced stock cheaper than the market would charge.
	quote.takeable = hasMarket &&
		used == quantity &&
		allocation.PricedQty == quantity &&
		quote.effectiveUnit.Decimal.LessThan(market)

	return quote
}

// recommendation is the buy-side recommendation for this quote
func (q buyQuote) recommendation() entities.Recommendation {
	switch {
	case !q.cost.Valid:
		return entities.Unresolved
	case q.usage != nil && q.usage.Used > 0 && q.usage.BuyNowQty > 0:
		return entities.TakeThenBuy
	default:
		return entities.Buy
	}
}
