package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// Allocation is the FIFO pricing of a consumption request
type Allocation struct {
	TotalCost   decimal.Decimal
	PricedQty   entities.Quantity
	UnpricedQty entities.Quantity
	BySource    map[entities.Provenance]entities.SourceBucket
}

// AllocateFIFO walks lots oldest-first and returns the cost of the first
// quantity units together with how many units could be priced.
// PricedQty never exceeds quantity and equals it whenever the lots hold enough.
func AllocateFIFO(lots []entities.Lot, quantity entities.Quantity) (decimal.Decimal, entities.Quantity) {
	allocation := AllocateFIFOBreakdown(lots, quantity)
	return allocation.TotalCost, allocation.PricedQty
}

// AllocateFIFOBreakdown is AllocateFIFO with per-provenance buckets
func AllocateFIFOBreakdown(lots []entities.Lot, quantity entities.Quantity) Allocation {
	allocation := Allocation{
		TotalCost: decimal.Zero,
		BySource:  make(map[entities.Provenance]entities.SourceBucket),
	}
	if quantity <= 0 {
		return allocation
	}

	remaining := quantity
	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		if lot.Quantity <= 0 {
			continue
		}
		take := entities.MinQuantity(remaining, lot.Quantity)
		chunk := lot.UnitCost.Mul(decimal.NewFromInt(int64(take)))

		bucket := allocation.BySource[lot.Provenance]
		bucket.Quantity += take
		bucket.Cost = bucket.Cost.Add(chunk)
		allocation.BySource[lot.Provenance] = bucket

		allocation.TotalCost = allocation.TotalCost.Add(chunk)
		allocation.PricedQty += take
		remaining -= take
	}
	allocation.UnpricedQty = remaining
	return allocation
}
