package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provenance records how a lot of inventory was acquired
type Provenance int

const (
	ProvenanceUnknown Provenance = iota
	ProvenanceMarketBuy
	ProvenanceProductionBuild
	ProvenanceProductionCopy
	ProvenanceProductionInvention
)

// String method for Provenance enum
func (p Provenance) String() string {
	switch p {
	case ProvenanceMarketBuy:
		return "market_buy"
	case ProvenanceProductionBuild:
		return "production_build"
	case ProvenanceProductionCopy:
		return "production_copy"
	case ProvenanceProductionInvention:
		return "production_invention"
	default:
		return "unknown"
	}
}

// MarshalText renders the provenance as its string form
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ReferenceType names the kind of record a lot or cost basis points back to
type ReferenceType string

const (
	ReferenceNone              ReferenceType = ""
	ReferenceWalletTransaction ReferenceType = "wallet_transaction"
	ReferenceIndustryJob       ReferenceType = "industry_job"
)

// Lot is a priced batch of acquired or produced inventory. Lots are never
// mutated; partial consumption replaces a lot via WithQuantity.
type Lot struct {
	Quantity      Quantity        `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	AcquiredAt    *time.Time      `json:"acquired_at,omitempty"`
	Provenance    Provenance      `json:"provenance"`
	ReferenceType ReferenceType   `json:"reference_type,omitempty"`
	ReferenceID   int64           `json:"reference_id,omitempty"`
}

// NewLot creates a validated Lot
func NewLot(
	quantity Quantity,
	unitCost decimal.Decimal,
	acquiredAt *time.Time,
	provenance Provenance,
	referenceType ReferenceType,
	referenceID int64,
) (*Lot, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %d", quantity)
	}
	if !unitCost.IsPositive() {
		return nil, fmt.Errorf("unit cost must be positive, got %s", unitCost)
	}

	return &Lot{
		Quantity:      quantity,
		UnitCost:      unitCost,
		AcquiredAt:    acquiredAt,
		Provenance:    provenance,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
	}, nil
}

// WithQuantity returns a copy of the lot holding the given quantity
func (l Lot) WithQuantity(quantity Quantity) Lot {
	l.Quantity = quantity
	return l
}

// Cost returns quantity * unit cost
func (l Lot) Cost() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalQuantity sums the quantities of a lot sequence
func TotalQuantity(lots []Lot) Quantity {
	var total Quantity
	for _, lot := range lots {
		if lot.Quantity > 0 {
			total += lot.Quantity
		}
	}
	return total
}
