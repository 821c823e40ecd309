package entities

import "github.com/shopspring/decimal"

// PriceQuote holds the two reference prices known for an item. Either may be empty.
type PriceQuote struct {
	Item        ItemID              `json:"item"`
	Market      decimal.NullDecimal `json:"market"`
	JobFeeBasis decimal.NullDecimal `json:"job_fee_basis"`
}

// NewPriceQuote creates a PriceQuote, dropping non-positive prices
func NewPriceQuote(item ItemID, market, jobFeeBasis decimal.NullDecimal) PriceQuote {
	if market.Valid && !market.Decimal.IsPositive() {
		market = decimal.NullDecimal{}
	}
	if jobFeeBasis.Valid && !jobFeeBasis.Decimal.IsPositive() {
		jobFeeBasis = decimal.NullDecimal{}
	}
	return PriceQuote{Item: item, Market: market, JobFeeBasis: jobFeeBasis}
}
