package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation represents the sourcing decision for a plan node
type Recommendation int

const (
	Unresolved Recommendation = iota
	Take
	Buy
	Build
	TakeThenBuy
)

// String method for Recommendation enum
func (r Recommendation) String() string {
	switch r {
	case Take:
		return "take"
	case Buy:
		return "buy"
	case Build:
		return "build"
	case TakeThenBuy:
		return "take_then_buy"
	default:
		return "unresolved"
	}
}

// MarshalText renders the recommendation as its string form
func (r Recommendation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Reason explains why a node terminated early or resolved partially
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMaxDepthReached
	ReasonCycleDetected
	ReasonReactionNotSupported
	ReasonNoBlueprintFound
	ReasonInvalidBlueprintOutput
	ReasonBuyPriceMissing
	ReasonInsufficientPriceData
)

// String method for Reason enum
func (r Reason) String() string {
	switch r {
	case ReasonMaxDepthReached:
		return "max_depth_reached"
	case ReasonCycleDetected:
		return "cycle_detected"
	case ReasonReactionNotSupported:
		return "reaction_not_supported"
	case ReasonNoBlueprintFound:
		return "no_blueprint_found"
	case ReasonInvalidBlueprintOutput:
		return "invalid_blueprint_output"
	case ReasonBuyPriceMissing:
		return "buy_price_missing"
	case ReasonInsufficientPriceData:
		return "insufficient_price_data"
	default:
		return ""
	}
}

// MarshalText renders the reason as its string form
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// NodeKind tags which variant of PlanNode is populated
type NodeKind int

const (
	// LeafNode never explored a recipe; Build and Children are empty
	LeafNode NodeKind = iota
	// ExpandedNode explored a recipe; Build is set and Children hold the inputs
	ExpandedNode
)

// String method for NodeKind enum
func (k NodeKind) String() string {
	if k == ExpandedNode {
		return "expanded"
	}
	return "leaf"
}

// MarshalText renders the kind as its string form
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SourceBucket is the quantity and cost consumed from lots of one provenance
type SourceBucket struct {
	Quantity Quantity        `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

// InventoryUsage describes how much owned stock a node would consume and at what cost
type InventoryUsage struct {
	OnHand         Quantity                    `json:"on_hand"`
	Used           Quantity                    `json:"used"`
	FIFOPricedQty  Quantity                    `json:"fifo_priced_qty"`
	UnknownCostQty Quantity                    `json:"unknown_cost_qty"`
	FIFOCost       decimal.Decimal             `json:"fifo_cost"`
	BySource       map[Provenance]SourceBucket `json:"by_source,omitempty"`
	BuyNowQty      Quantity                    `json:"buy_now_qty"`
}

// Efficiency records the material/time efficiency used for a build
type Efficiency struct {
	MaterialPct float64 `json:"material_pct"`
	TimePct     float64 `json:"time_pct"`
	Source      string  `json:"source"`
	OwnedIsCopy *bool   `json:"owned_is_copy,omitempty"`
	OwnedRuns   *int64  `json:"owned_runs,omitempty"`
}

// CopyOverhead estimates creating a blueprint copy with enough runs
type CopyOverhead struct {
	MaxRunsPerCopy int64               `json:"max_runs_per_copy"`
	CopyTime       time.Duration       `json:"copy_time"`
	CopyFee        decimal.NullDecimal `json:"copy_fee"`
}

// ResearchOverhead estimates ME/TE research of the original blueprint; informational only
type ResearchOverhead struct {
	METime time.Duration       `json:"me_time"`
	TETime time.Duration       `json:"te_time"`
	MEFee  decimal.NullDecimal `json:"me_fee"`
	TEFee  decimal.NullDecimal `json:"te_fee"`
}

// BuildDetail carries the build-side evaluation of an expanded node
type BuildDetail struct {
	RecipeID             RecipeID            `json:"recipe_id"`
	RecipeName           string              `json:"recipe_name,omitempty"`
	RunsNeeded           Quantity            `json:"runs_needed"`
	OutputQtyPerRun      Quantity            `json:"output_qty_per_run"`
	OutputTotal          Quantity            `json:"output_total"`
	Efficiency           Efficiency          `json:"efficiency"`
	ChildrenCost         decimal.NullDecimal `json:"children_cost"`
	JobFee               decimal.NullDecimal `json:"job_fee"`
	TotalBuildCost       decimal.NullDecimal `json:"total_build_cost"`
	ChildrenTime         *time.Duration      `json:"children_time,omitempty"`
	ManufacturingTime    time.Duration       `json:"manufacturing_time"`
	TotalBuildTime       *time.Duration      `json:"total_build_time,omitempty"`
	RecipeOwned          bool                `json:"recipe_owned"`
	RecipeBuyCost        decimal.NullDecimal `json:"recipe_buy_cost"`
	CopyOverhead         *CopyOverhead       `json:"copy_overhead,omitempty"`
	CopyOverheadIncluded bool                `json:"copy_overhead_included"`
	ResearchOverhead     *ResearchOverhead   `json:"research_overhead,omitempty"`
}

// PlanNode is one decision in a build-vs-buy tree. A node exclusively owns
// its children and is never mutated after the planner returns it.
type PlanNode struct {
	Kind                  NodeKind            `json:"kind"`
	Item                  ItemID              `json:"item"`
	RequiredQuantity      Quantity            `json:"required_quantity"`
	Depth                 int                 `json:"depth"`
	Recommendation        Recommendation      `json:"recommendation"`
	Reason                Reason              `json:"reason,omitempty"`
	BuyUnitPrice          decimal.NullDecimal `json:"buy_unit_price"`
	BuyCost               decimal.NullDecimal `json:"buy_cost"`
	BuyEffectiveUnitPrice decimal.NullDecimal `json:"buy_effective_unit_price"`
	Inventory             *InventoryUsage     `json:"inventory,omitempty"`
	EffectiveCost         decimal.NullDecimal `json:"effective_cost"`
	EffectiveTime         *time.Duration      `json:"effective_time,omitempty"`
	Savings               decimal.NullDecimal `json:"savings"`
	Build                 *BuildDetail        `json:"build,omitempty"`
	Children              []*PlanNode         `json:"children,omitempty"`
}

// IsLeaf reports whether the node never explored a recipe
func (n *PlanNode) IsLeaf() bool {
	return n.Kind == LeafNode
}

// Clone returns a deep copy of the node and its subtree
func (n *PlanNode) Clone() *PlanNode {
	if n == nil {
		return nil
	}
	clone := *n
	clone.EffectiveTime = clonePtr(n.EffectiveTime)
	if n.Inventory != nil {
		inv := *n.Inventory
		if n.Inventory.BySource != nil {
			inv.BySource = make(map[Provenance]SourceBucket, len(n.Inventory.BySource))
			for k, v := range n.Inventory.BySource {
				inv.BySource[k] = v
			}
		}
		clone.Inventory = &inv
	}
	if n.Build != nil {
		build := *n.Build
		build.ChildrenTime = clonePtr(n.Build.ChildrenTime)
		build.TotalBuildTime = clonePtr(n.Build.TotalBuildTime)
		build.Efficiency.OwnedIsCopy = clonePtr(n.Build.Efficiency.OwnedIsCopy)
		build.Efficiency.OwnedRuns = clonePtr(n.Build.Efficiency.OwnedRuns)
		if n.Build.CopyOverhead != nil {
			copyOverhead := *n.Build.CopyOverhead
			build.CopyOverhead = &copyOverhead
		}
		if n.Build.ResearchOverhead != nil {
			research := *n.Build.ResearchOverhead
			build.ResearchOverhead = &research
		}
		clone.Build = &build
	}
	if n.Children != nil {
		clone.Children = make([]*PlanNode, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Walk visits the node and every descendant depth-first, parents before children
func (n *PlanNode) Walk(visit func(node *PlanNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}
