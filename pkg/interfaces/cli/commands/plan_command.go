package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/vsinha/industry-planner/pkg/application/services/orchestration"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/config"
	"github.com/vsinha/industry-planner/pkg/infrastructure/metrics"
	"github.com/vsinha/industry-planner/pkg/interfaces/cli/output"
)

// PlanConfig holds configuration for the plan command
type PlanConfig struct {
	Config    *config.Config
	Args      []string // "item:quantity" requirements; empty reads requirements.csv
	Owners    []int64  // extra owners planned concurrently with the configured one
	OutputDir string
	Gantt     bool
	Verbose   bool
	Out       io.Writer
	Metrics   *metrics.PlanningMetrics
	Logger    logr.Logger
}

// PlanCommand plans build-or-buy decisions for a list of requirements
type PlanCommand struct {
	config PlanConfig
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config PlanConfig) *PlanCommand {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &PlanCommand{config: config}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	cfg := c.config.Config
	requirements, err := ParseRequirements(c.config.Args)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.Out, "📂 Loading scenario from %s...\n", cfg.Scenario.Dir)
	}
	env, err := LoadEnvironment(ctx, cfg, c.config.Logger)
	if err != nil {
		return err
	}
	defer env.Close()

	if len(requirements) == 0 {
		requirements = env.Requirements
	}
	if len(requirements) == 0 {
		return fmt.Errorf("no requirements given and %s has none", cfg.Scenario.Dir)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.Out, "✅ Loaded %d recipes, planning %d requirements\n\n", env.Catalog.Count(), len(requirements))
	}

	orchestrator := env.NewOrchestrator(cfg, c.config.Metrics, c.config.Logger)
	opts := c.planOptions()

	jobs := []orchestration.BatchJob{{
		Owner:        entities.OwnerID(cfg.Planner.Owner),
		Requirements: requirements,
		Options:      opts,
	}}
	for _, owner := range c.config.Owners {
		if owner == cfg.Planner.Owner {
			continue
		}
		jobs = append(jobs, orchestration.BatchJob{Owner: entities.OwnerID(owner), Requirements: requirements, Options: opts})
	}

	results, err := orchestrator.RunBatch(ctx, jobs, cfg.Planner.Concurrency)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	outputConfig := output.Config{
		Format:    cfg.Output.Format,
		OutputDir: c.config.OutputDir,
		Writer:    c.config.Out,
		Verbose:   c.config.Verbose,
		Gantt:     c.config.Gantt,
	}
	for _, result := range results {
		if len(results) > 1 && cfg.Output.Format == config.FormatText {
			fmt.Fprintf(c.config.Out, "👤 Owner %d\n", result.Owner)
		}
		if err := output.GeneratePlan(result, outputConfig); err != nil {
			return fmt.Errorf("failed to generate output: %w", err)
		}
	}
	return nil
}

func (c *PlanCommand) planOptions() orchestration.PlanOptions {
	cfg := c.config.Config
	opts := orchestration.PlanOptions{
		Modifiers:        cfg.Modifiers,
		CostIndices:      cfg.CostIndices,
		MaxDepth:         cfg.Planner.MaxDepth,
		UseFIFOInventory: cfg.Planner.UseFIFOInventory,
	}
	if cfg.Output.CriticalPath {
		opts.CriticalPaths = max(1, cfg.Output.TopPaths)
	}
	return opts
}

// ParseRequirements parses "item:quantity" arguments. A bare item id means
// a quantity of one.
func ParseRequirements(args []string) ([]entities.MaterialRequirement, error) {
	requirements := make([]entities.MaterialRequirement, 0, len(args))
	for _, arg := range args {
		itemPart, qtyPart, hasQty := strings.Cut(arg, ":")
		item, err := strconv.ParseInt(strings.TrimSpace(itemPart), 10, 64)
		if err != nil || item <= 0 {
			return nil, fmt.Errorf("invalid item id in %q", arg)
		}
		qty := int64(1)
		if hasQty {
			qty, err = strconv.ParseInt(strings.TrimSpace(qtyPart), 10, 64)
			if err != nil || qty <= 0 {
				return nil, fmt.Errorf("invalid quantity in %q", arg)
			}
		}
		requirements = append(requirements, entities.MaterialRequirement{
			Item:     entities.ItemID(item),
			Quantity: entities.Quantity(qty),
		})
	}
	return requirements, nil
}
