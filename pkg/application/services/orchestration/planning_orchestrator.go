package orchestration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/application/services/costbasis"
	"github.com/vsinha/industry-planner/pkg/application/services/criticalpath"
	"github.com/vsinha/industry-planner/pkg/application/services/ledger"
	"github.com/vsinha/industry-planner/pkg/application/services/planner"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
	"github.com/vsinha/industry-planner/pkg/infrastructure/metrics"
	"github.com/vsinha/industry-planner/pkg/infrastructure/prices"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/memory"
)

// PlanningOrchestrator loads an owner's snapshot from the repositories,
// rebuilds the FIFO ledger and runs the planner against it
type PlanningOrchestrator struct {
	planner             *planner.Planner
	criticalPathService *criticalpath.CriticalPathService
	catalog             repositories.RecipeCatalog
	events              repositories.EventRepository
	inventory           repositories.InventoryRepository
	blueprints          repositories.BlueprintRepository
	prices              repositories.PriceSource
	metrics             *metrics.PlanningMetrics
	logger              logr.Logger
}

// Option configures a PlanningOrchestrator
type Option func(*PlanningOrchestrator)

// WithBlueprints supplies owned blueprint hints per owner
func WithBlueprints(repo repositories.BlueprintRepository) Option {
	return func(po *PlanningOrchestrator) {
		po.blueprints = repo
	}
}

// WithMetrics records planning and valuation metrics
func WithMetrics(m *metrics.PlanningMetrics) Option {
	return func(po *PlanningOrchestrator) {
		po.metrics = m
	}
}

// WithLogger sets the orchestrator logger
func WithLogger(logger logr.Logger) Option {
	return func(po *PlanningOrchestrator) {
		po.logger = logger
	}
}

// NewPlanningOrchestrator creates a new planning orchestrator
func NewPlanningOrchestrator(
	plannerService *planner.Planner,
	criticalPathService *criticalpath.CriticalPathService,
	catalog repositories.RecipeCatalog,
	events repositories.EventRepository,
	inventory repositories.InventoryRepository,
	priceSource repositories.PriceSource,
	opts ...Option,
) *PlanningOrchestrator {
	po := &PlanningOrchestrator{
		planner:             plannerService,
		criticalPathService: criticalPathService,
		catalog:             catalog,
		events:              events,
		inventory:           inventory,
		prices:              priceSource,
		logger:              logr.Discard(),
	}
	for _, opt := range opts {
		opt(po)
	}
	po.logger = po.logger.WithName("orchestrator")
	return po
}

// PlanOptions are the per-request planning parameters
type PlanOptions struct {
	RequestID        string
	Modifiers        dto.Modifiers
	CostIndices      dto.CostIndices
	Ownership        []entities.BlueprintOwnership
	MaxDepth         int
	UseFIFOInventory bool
	CriticalPaths    int
}

// PlanningResult contains the plan and, when requested, the critical path of each root
type PlanningResult struct {
	Owner         entities.OwnerID                 `json:"owner"`
	Plan          *dto.PlanResult                  `json:"plan"`
	CriticalPaths []*entities.CriticalPathAnalysis `json:"critical_paths,omitempty"`
	Elapsed       time.Duration                    `json:"elapsed"`
}

// BatchJob is one independent request of a batch run
type BatchJob struct {
	Owner        entities.OwnerID
	Requirements []entities.MaterialRequirement
	Options      PlanOptions
}

type snapshot struct {
	transactions []entities.Transaction
	production   []entities.ProductionRecord
	onHand       map[entities.ItemID]entities.Quantity
	blueprints   []entities.BlueprintOwnership
	prices       *memory.PriceBook
}

// Run plans the requirements of one owner
func (po *PlanningOrchestrator) Run(
	ctx context.Context,
	owner entities.OwnerID,
	requirements []entities.MaterialRequirement,
	opts PlanOptions,
) (*PlanningResult, error) {
	start := time.Now()
	if len(requirements) == 0 {
		po.metrics.ObservePlanError(time.Since(start))
		return nil, planner.ErrNoRequirements
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := po.logger.WithValues("requestID", requestID, "owner", owner)

	snap, err := po.loadSnapshot(ctx, owner)
	if err != nil {
		po.metrics.ObservePlanError(time.Since(start))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		po.metrics.ObservePlanError(time.Since(start))
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}

	estimator := costbasis.NewEstimator(po.catalog, snap.prices)
	lots := ledger.Build(snap.transactions, snap.production, snap.onHand,
		ledger.WithEstimator(estimator),
		ledger.WithLogger(logger))

	// request hints come last so they override stored blueprints
	ownership := append(snap.blueprints, opts.Ownership...)

	plan, err := po.planner.Plan(dto.PlanRequest{
		RequestID:        requestID,
		Requirements:     requirements,
		Modifiers:        opts.Modifiers,
		CostIndices:      opts.CostIndices,
		Ownership:        ownership,
		MaxDepth:         opts.MaxDepth,
		UseFIFOInventory: opts.UseFIFOInventory,
		Inventory:        lots,
		Prices:           snap.prices,
	})
	if err != nil {
		po.metrics.ObservePlanError(time.Since(start))
		return nil, fmt.Errorf("failed to plan for owner %d: %w", owner, err)
	}

	result := &PlanningResult{Owner: owner, Plan: plan}
	if opts.CriticalPaths > 0 && po.criticalPathService != nil {
		for _, root := range plan.Roots {
			result.CriticalPaths = append(result.CriticalPaths, po.criticalPathService.Analyze(root, opts.CriticalPaths))
		}
	}
	result.Elapsed = time.Since(start)

	po.metrics.ObservePlan(result.Elapsed, plan.NodeCount, plan.UnknownCostRoots, plan.CacheHits, plan.CacheMisses)
	logger.Info("plan finished",
		"roots", len(plan.Roots),
		"totalCost", plan.TotalEffectiveCost.StringFixed(2),
		"unknownCostRoots", plan.UnknownCostRoots,
		"elapsed", result.Elapsed)

	return result, nil
}

// RunBatch runs independent requests concurrently. Each request builds its own
// ledger and memo cache. Results keep the order of jobs; the first error
// cancels the remaining requests.
func (po *PlanningOrchestrator) RunBatch(ctx context.Context, jobs []BatchJob, concurrency int) ([]*PlanningResult, error) {
	results := make([]*PlanningResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			result, err := po.Run(gctx, job.Owner, job.Requirements, job.Options)
			if err != nil {
				return fmt.Errorf("batch job %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Valuate resolves the cost basis of an owner's holdings. With no items it
// values everything held; otherwise only the listed items that are held.
func (po *PlanningOrchestrator) Valuate(ctx context.Context, owner entities.OwnerID, items []entities.ItemID) (*dto.ValuationResult, error) {
	snap, err := po.loadSnapshot(ctx, owner)
	if err != nil {
		return nil, err
	}

	onHand := snap.onHand
	if len(items) > 0 {
		onHand = make(map[entities.ItemID]entities.Quantity, len(items))
		for _, item := range items {
			if qty, ok := snap.onHand[item]; ok {
				onHand[item] = qty
			}
		}
	}

	resolver := costbasis.NewResolver(owner, snap.transactions, snap.production,
		costbasis.NewEstimator(po.catalog, snap.prices), po.logger)
	records := resolver.ResolveAll(onHand)

	result := &dto.ValuationResult{
		RequestID:  uuid.NewString(),
		Owner:      owner,
		Records:    records,
		OnHand:     onHand,
		TotalValue: decimal.Zero,
		ValuedAt:   time.Now(),
	}
	for _, record := range records {
		po.metrics.ObserveValuation(record.Source.String())
		if !record.UnitCost.Valid {
			result.UnknownItems++
			continue
		}
		result.TotalValue = result.TotalValue.Add(record.UnitCost.Decimal.Mul(decimal.NewFromInt(int64(onHand[record.Item]))))
	}

	po.logger.V(logging.DEBUG).Info("valuation finished",
		"owner", owner,
		"records", len(records),
		"unknownItems", result.UnknownItems)
	return result, nil
}

func (po *PlanningOrchestrator) loadSnapshot(ctx context.Context, owner entities.OwnerID) (*snapshot, error) {
	snap := &snapshot{}
	var err error

	if po.events != nil {
		if snap.transactions, err = po.events.Transactions(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}
		if snap.production, err = po.events.ProductionRecords(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to load production records: %w", err)
		}
	}
	if po.inventory != nil {
		if snap.onHand, err = po.inventory.OnHandAll(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to load on-hand quantities: %w", err)
		}
	}
	if po.blueprints != nil {
		if snap.blueprints, err = po.blueprints.Blueprints(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to load blueprints: %w", err)
		}
	}

	if po.prices != nil {
		if snap.prices, err = prices.Snapshot(ctx, po.prices); err != nil {
			return nil, err
		}
	} else {
		snap.prices = memory.NewPriceBook(nil)
	}

	po.logger.V(logging.TRACE).Info("snapshot loaded",
		"owner", owner,
		"transactions", len(snap.transactions),
		"productionRecords", len(snap.production),
		"items", len(snap.onHand),
		"prices", snap.prices.Len())
	return snap, nil
}

// GetSummary returns a formatted summary of the planning results
func (result *PlanningResult) GetSummary() string {
	plan := result.Plan
	summary := fmt.Sprintf("Planning Summary (request %s, %d roots, %d nodes):\n",
		plan.RequestID, len(plan.Roots), plan.NodeCount)
	summary += fmt.Sprintf("  Total effective cost: %s", plan.TotalEffectiveCost.StringFixed(2))
	if plan.UnknownCostRoots > 0 {
		summary += fmt.Sprintf(" (%d roots with unknown cost)", plan.UnknownCostRoots)
	}
	summary += fmt.Sprintf("\n  Total effective time: %s\n", plan.TotalEffectiveTime)

	counts := make(map[entities.Recommendation]int)
	for _, root := range plan.Roots {
		counts[root.Recommendation]++
	}
	recommendations := make([]string, 0, len(counts))
	for rec, n := range counts {
		recommendations = append(recommendations, fmt.Sprintf("%s=%d", rec, n))
	}
	sort.Strings(recommendations)
	summary += fmt.Sprintf("  Recommendations: %v", recommendations)

	for _, analysis := range result.CriticalPaths {
		summary += fmt.Sprintf("\n  Item %d: %s", analysis.RootItem, analysis.GetCriticalPathSummary())
	}
	return summary
}
