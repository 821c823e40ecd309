package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// Modifiers are structure, rig and skill bonuses expressed as fractions in [0, 1]
type Modifiers struct {
	MaterialReduction float64 `json:"material_reduction" mapstructure:"material_reduction"`
	TimeReduction     float64 `json:"time_reduction" mapstructure:"time_reduction"`
	JobCostReduction  float64 `json:"job_cost_reduction" mapstructure:"job_cost_reduction"`
	SurchargeRate     float64 `json:"surcharge_rate" mapstructure:"surcharge_rate"`
}

// Clamped returns the modifiers with every fraction limited to [0, 1]
func (m Modifiers) Clamped() Modifiers {
	return Modifiers{
		MaterialReduction: clampFraction(m.MaterialReduction),
		TimeReduction:     clampFraction(m.TimeReduction),
		JobCostReduction:  clampFraction(m.JobCostReduction),
		SurchargeRate:     clampFraction(m.SurchargeRate),
	}
}

// CostIndices are the system cost indices of the installation location
type CostIndices struct {
	Manufacturing float64 `json:"manufacturing" mapstructure:"manufacturing"`
	Copying       float64 `json:"copying" mapstructure:"copying"`
	ResearchME    float64 `json:"research_me" mapstructure:"research_me"`
	ResearchTE    float64 `json:"research_te" mapstructure:"research_te"`
}

// Clamped returns the indices with negative values raised to zero
func (c CostIndices) Clamped() CostIndices {
	return CostIndices{
		Manufacturing: max(0, c.Manufacturing),
		Copying:       max(0, c.Copying),
		ResearchME:    max(0, c.ResearchME),
		ResearchTE:    max(0, c.ResearchTE),
	}
}

func clampFraction(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// PlanRequest is everything one planning call needs. Inventory and Prices are
// read-only snapshots owned by the caller for the duration of the call.
type PlanRequest struct {
	RequestID        string
	Requirements     []entities.MaterialRequirement
	Modifiers        Modifiers
	CostIndices      CostIndices
	Ownership        []entities.BlueprintOwnership
	MaxDepth         int
	UseFIFOInventory bool
	Inventory        repositories.InventorySnapshot
	Prices           repositories.PriceOracle
}

// PlanResult contains the complete output of a planning call
type PlanResult struct {
	RequestID          string               `json:"request_id"`
	Roots              []*entities.PlanNode `json:"roots"`
	TotalEffectiveCost decimal.Decimal      `json:"total_effective_cost"`
	TotalEffectiveTime time.Duration        `json:"total_effective_time"`
	UnknownCostRoots   int                  `json:"unknown_cost_roots"`
	NodeCount          int                  `json:"node_count"`
	CacheHits          int                  `json:"cache_hits"`
	CacheMisses        int                  `json:"cache_misses"`
	PlannedAt          time.Time            `json:"planned_at"`
	Warnings           []string             `json:"warnings,omitempty"`
}

// PlanCacheKey is used for memoizing subtree plans within one request
type PlanCacheKey struct {
	Item     entities.ItemID
	Quantity entities.Quantity
	Depth    int
	Path     string
}

// ValuationResult is the cost basis of everything an owner holds
type ValuationResult struct {
	RequestID    string                                `json:"request_id"`
	Owner        entities.OwnerID                      `json:"owner"`
	Records      []entities.CostBasisRecord            `json:"records"`
	OnHand       map[entities.ItemID]entities.Quantity `json:"on_hand"`
	TotalValue   decimal.Decimal                       `json:"total_value"`
	UnknownItems int                                   `json:"unknown_items"`
	ValuedAt     time.Time                             `json:"valued_at"`
}
