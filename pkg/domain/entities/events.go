package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a market buy or sell from an owner's wallet history.
// IsBuy is nil when the direction could not be determined upstream.
type Transaction struct {
	Item        ItemID              `json:"item"`
	Quantity    Quantity            `json:"quantity"`
	IsBuy       *bool               `json:"is_buy"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	Timestamp   *time.Time          `json:"timestamp,omitempty"`
	ReferenceID int64               `json:"reference_id"`
}

// Activity is the industry activity that produced a record's output
type Activity int

const (
	ActivityManufacturing Activity = iota
	ActivityCopying
	ActivityInvention
	ActivityReaction
)

// String method for Activity enum
func (a Activity) String() string {
	switch a {
	case ActivityManufacturing:
		return "manufacturing"
	case ActivityCopying:
		return "copying"
	case ActivityInvention:
		return "invention"
	case ActivityReaction:
		return "reaction"
	default:
		return "unknown"
	}
}

// ParseActivity parses an activity name; empty means manufacturing
func ParseActivity(s string) (Activity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manufacturing":
		return ActivityManufacturing, nil
	case "copying":
		return ActivityCopying, nil
	case "invention":
		return ActivityInvention, nil
	case "reaction":
		return ActivityReaction, nil
	default:
		return ActivityManufacturing, fmt.Errorf("invalid activity: %s (expected: manufacturing, copying, invention or reaction)", s)
	}
}

// Provenance maps a production activity onto the provenance of its output lots
func (a Activity) Provenance() Provenance {
	switch a {
	case ActivityManufacturing, ActivityReaction:
		return ProvenanceProductionBuild
	case ActivityCopying:
		return ProvenanceProductionCopy
	case ActivityInvention:
		return ProvenanceProductionInvention
	default:
		return ProvenanceUnknown
	}
}

// ProductionRecord is one industry job. UnitCost may be empty, in which case
// it is estimated from the recipe, RunCount and JobCost.
type ProductionRecord struct {
	ItemProduced     ItemID              `json:"item_produced"`
	QuantityProduced Quantity            `json:"quantity_produced"`
	UnitCost         decimal.NullDecimal `json:"unit_cost"`
	JobCost          decimal.NullDecimal `json:"job_cost"`
	RecipeID         RecipeID            `json:"recipe_id"`
	Runs             int64               `json:"runs"`
	Activity         Activity            `json:"activity"`
	Status           string              `json:"status"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	ReferenceID      int64               `json:"reference_id"`
}

var completedJobStatuses = map[string]bool{
	"delivered": true,
	"ready":     true,
	"completed": true,
}

// IsCompleted reports whether the job finished. An empty status is treated as completed.
func (r ProductionRecord) IsCompleted() bool {
	status := strings.ToLower(strings.TrimSpace(r.Status))
	return status == "" || completedJobStatuses[status]
}

// RunCount returns the number of runs, never less than one
func (r ProductionRecord) RunCount() int64 {
	if r.Runs < 1 {
		return 1
	}
	return r.Runs
}

// CostBasisSource names where a cost basis estimate came from
type CostBasisSource int

const (
	CostBasisUnknown CostBasisSource = iota
	CostBasisProductionBuild
	CostBasisMarketBuy
)

// String method for CostBasisSource enum
func (s CostBasisSource) String() string {
	switch s {
	case CostBasisProductionBuild:
		return "production_build"
	case CostBasisMarketBuy:
		return "market_buy"
	default:
		return "unknown"
	}
}

// MarshalText renders the source as its string form
func (s CostBasisSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CostBasisRecord answers "what did my current holdings of an item cost"
type CostBasisRecord struct {
	Owner         OwnerID             `json:"owner"`
	Item          ItemID              `json:"item"`
	Source        CostBasisSource     `json:"source"`
	UnitCost      decimal.NullDecimal `json:"unit_cost"`
	ReferenceType ReferenceType       `json:"reference_type,omitempty"`
	ReferenceID   int64               `json:"reference_id,omitempty"`
	AcquiredAt    *time.Time          `json:"acquired_at,omitempty"`
}
