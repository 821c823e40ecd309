package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

// ErrNoRequirements is returned when a plan request names nothing to plan
var ErrNoRequirements = errors.New("no material requirements")

const (
	// DefaultMaxDepth bounds recursion when a request does not set one
	DefaultMaxDepth = 3

	// Efficiency assumed for recipes without an ownership hint
	UnownedMEPercent = 10.0
	UnownedTEPercent = 20.0

	EfficiencyOwned   = "owned_blueprint"
	EfficiencyAssumed = "assumed_unowned"
)

// Planner decides, per item of a bill of materials, whether to take it from
// stock, buy it or build it. A Planner holds no per-request state and may
// serve concurrent Plan calls.
type Planner struct {
	catalog         repositories.RecipeCatalog
	logger          logr.Logger
	defaultMaxDepth int
	unownedME       float64
	unownedTE       float64
}

// Option configures a Planner
type Option func(*Planner)

// WithLogger sets the planner logger
func WithLogger(logger logr.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithDefaultMaxDepth sets the depth used when a request leaves MaxDepth unset
func WithDefaultMaxDepth(depth int) Option {
	return func(p *Planner) {
		if depth > 0 {
			p.defaultMaxDepth = depth
		}
	}
}

// WithUnownedEfficiency overrides the ME/TE assumed for recipes nobody owns
func WithUnownedEfficiency(mePercent, tePercent float64) Option {
	return func(p *Planner) {
		p.unownedME = clampPercent(mePercent)
		p.unownedTE = clampPercent(tePercent)
	}
}

// NewPlanner creates a planner over a read-only recipe catalog
func NewPlanner(catalog repositories.RecipeCatalog, opts ...Option) *Planner {
	p := &Planner{
		catalog:         catalog,
		logger:          logr.Discard(),
		defaultMaxDepth: DefaultMaxDepth,
		unownedME:       UnownedMEPercent,
		unownedTE:       UnownedTEPercent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run is the state of one Plan call
type run struct {
	catalog   repositories.RecipeCatalog
	prices    repositories.PriceOracle
	inventory repositories.InventorySnapshot
	useFIFO   bool
	modifiers dto.Modifiers
	indices   dto.CostIndices
	ownership map[entities.RecipeID]entities.BlueprintOwnership
	maxDepth  int
	unownedME float64
	unownedTE float64
	cache     *planCache
	logger    logr.Logger
}

// Plan builds one decision tree per requirement. Missing prices, recipes and
// cycles never fail a plan; they surface as reasons on the affected nodes.
func (p *Planner) Plan(req dto.PlanRequest) (*dto.PlanResult, error) {
	if len(req.Requirements) == 0 {
		return nil, ErrNoRequirements
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	r := p.newRun(req, requestID)

	result := &dto.PlanResult{
		RequestID:          requestID,
		Roots:              make([]*entities.PlanNode, 0, len(req.Requirements)),
		TotalEffectiveCost: decimal.Zero,
		PlannedAt:          time.Now(),
	}

	for _, requirement := range req.Requirements {
		if requirement.Item <= 0 || requirement.Quantity <= 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("skipped invalid requirement item=%d quantity=%d", requirement.Item, requirement.Quantity))
			r.logger.V(logging.DEBUG).Info("skipping invalid requirement",
				"item", requirement.Item, "quantity", requirement.Quantity)
			continue
		}

		root := r.plan(requirement.Item, requirement.Quantity, 0, nil)
		result.Roots = append(result.Roots, root)

		if root.EffectiveCost.Valid {
			result.TotalEffectiveCost = result.TotalEffectiveCost.Add(root.EffectiveCost.Decimal)
		} else {
			result.UnknownCostRoots++
		}
		if root.EffectiveTime != nil {
			result.TotalEffectiveTime += *root.EffectiveTime
		}
		root.Walk(func(*entities.PlanNode) { result.NodeCount++ })
	}

	if len(result.Roots) == 0 {
		return nil, fmt.Errorf("all %d requirements were invalid: %w", len(req.Requirements), ErrNoRequirements)
	}

	result.CacheHits = r.cache.hits
	result.CacheMisses = r.cache.misses

	r.logger.V(logging.DEBUG).Info("plan complete",
		"roots", len(result.Roots),
		"nodes", result.NodeCount,
		"unknownCostRoots", result.UnknownCostRoots,
		"cacheEntries", r.cache.size(),
		"cacheHits", result.CacheHits)

	return result, nil
}

func (p *Planner) newRun(req dto.PlanRequest, requestID string) *run {
	maxDepth := req.MaxDepth
	if maxDepth <= 0 {
		maxDepth = p.defaultMaxDepth
	}

	prices := req.Prices
	if prices == nil {
		prices = noPrices{}
	}

	ownership := make(map[entities.RecipeID]entities.BlueprintOwnership, len(req.Ownership))
	for _, hint := range req.Ownership {
		ownership[hint.RecipeID] = hint
	}

	return &run{
		catalog:   p.catalog,
		prices:    positivePrices{prices},
		inventory: req.Inventory,
		useFIFO:   req.UseFIFOInventory && req.Inventory != nil,
		modifiers: req.Modifiers.Clamped(),
		indices:   req.CostIndices.Clamped(),
		ownership: ownership,
		maxDepth:  maxDepth,
		unownedME: p.unownedME,
		unownedTE: p.unownedTE,
		cache:     newPlanCache(),
		logger:    p.logger.WithValues("requestID", requestID),
	}
}

// plan returns the decision subtree for one (item, quantity) at a position in the tree
func (r *run) plan(item entities.ItemID, quantity entities.Quantity, depth int, path []entities.ItemID) *entities.PlanNode {
	key := cacheKey(item, quantity, depth, path)
	if cached, ok := r.cache.get(key); ok {
		return cached
	}

	node := r.evaluate(item, quantity, depth, path)
	r.cache.put(key, node)

	r.logger.V(logging.TRACE).Info("planned node",
		"item", item,
		"quantity", quantity,
		"depth", depth,
		"recommendation", node.Recommendation.String(),
		"reason", node.Reason.String())

	return node
}

func (r *run) evaluate(item entities.ItemID, quantity entities.Quantity, depth int, path []entities.ItemID) *entities.PlanNode {
	quote := r.quoteBuy(item, quantity)
	node := &entities.PlanNode{
		Kind:                  entities.LeafNode,
		Item:                  item,
		RequiredQuantity:      quantity,
		Depth:                 depth,
		BuyUnitPrice:          quote.unitPrice,
		BuyCost:               quote.cost,
		BuyEffectiveUnitPrice: quote.effectiveUnit,
		Inventory:             quote.usage,
	}

	if quote.takeable {
		node.Recommendation = entities.Take
		node.EffectiveCost = quote.cost
		node.EffectiveTime = durationPtr(0)
		return node
	}

	if reason := r.guard(item, depth, path); reason != entities.ReasonNone {
		return leaf(node, quote, reason)
	}

	recipe, ok := SelectRecipe(r.catalog.RecipesFor(item))
	if !ok {
		return leaf(node, quote, entities.ReasonNoBlueprintFound)
	}
	if recipe.OutputQtyPerRun <= 0 {
		return leaf(node, quote, entities.ReasonInvalidBlueprintOutput)
	}

	node.Kind = entities.ExpandedNode
	node.Build, node.Children = r.expand(item, quantity, depth, path, recipe)
	decide(node, quote)
	return node
}

// guard checks the termination conditions in priority order
func (r *run) guard(item entities.ItemID, depth int, path []entities.ItemID) entities.Reason {
	if depth >= r.maxDepth {
		return entities.ReasonMaxDepthReached
	}
	for _, visited := range path {
		if visited == item {
			return entities.ReasonCycleDetected
		}
	}
	if r.catalog.IsReactionOnly(item) {
		return entities.ReasonReactionNotSupported
	}
	return entities.ReasonNone
}

// leaf resolves a node that never explores a recipe
func leaf(node *entities.PlanNode, quote buyQuote, reason entities.Reason) *entities.PlanNode {
	node.Reason = reason
	node.Recommendation = quote.recommendation()
	if quote.cost.Valid {
		node.EffectiveCost = quote.cost
		node.EffectiveTime = durationPtr(0)
	}
	return node
}

// decide picks between the build detail and the buy quote of an expanded node
func decide(node *entities.PlanNode, quote buyQuote) {
	build := node.Build

	switch {
	case build.TotalBuildCost.Valid && quote.cost.Valid:
		node.Savings = decimal.NewNullDecimal(quote.cost.Decimal.Sub(build.TotalBuildCost.Decimal))
		if build.TotalBuildCost.Decimal.LessThan(quote.cost.Decimal) {
			node.Recommendation = entities.Build
			node.EffectiveCost = build.TotalBuildCost
			node.EffectiveTime = build.TotalBuildTime
			return
		}
		node.Recommendation = quote.recommendation()
		node.EffectiveCost = quote.cost
		node.EffectiveTime = durationPtr(0)

	case build.TotalBuildCost.Valid:
		node.Recommendation = entities.Build
		node.Reason = entities.ReasonBuyPriceMissing
		node.EffectiveCost = build.TotalBuildCost
		node.EffectiveTime = build.TotalBuildTime

	default:
		node.Recommendation = quote.recommendation()
		if quote.cost.Valid {
			node.EffectiveCost = quote.cost
			node.EffectiveTime = durationPtr(0)
		}
		if node.Reason == entities.ReasonNone {
			node.Reason = entities.ReasonInsufficientPriceData
		}
	}
}

type noPrices struct{}

func (noPrices) MarketUnitPrice(entities.ItemID) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

func (noPrices) JobFeeBasisPrice(entities.ItemID) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

// positivePrices reports zero and negative quotes as missing
type positivePrices struct {
	oracle repositories.PriceOracle
}

func (p positivePrices) MarketUnitPrice(item entities.ItemID) (decimal.Decimal, bool) {
	price, ok := p.oracle.MarketUnitPrice(item)
	if !ok || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}

func (p positivePrices) JobFeeBasisPrice(item entities.ItemID) (decimal.Decimal, bool) {
	price, ok := p.oracle.JobFeeBasisPrice(item)
	if !ok || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}
