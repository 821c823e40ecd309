package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/config"
	"github.com/vsinha/industry-planner/pkg/infrastructure/metrics"
	"github.com/vsinha/industry-planner/pkg/interfaces/cli/output"
)

// ValuateConfig holds configuration for the valuate command
type ValuateConfig struct {
	Config    *config.Config
	Args      []string // item ids; empty values everything held
	OutputDir string
	Verbose   bool
	Out       io.Writer
	Metrics   *metrics.PlanningMetrics
	Logger    logr.Logger
}

// ValuateCommand reports the cost basis of an owner's holdings
type ValuateCommand struct {
	config ValuateConfig
}

// NewValuateCommand creates a new valuate command
func NewValuateCommand(config ValuateConfig) *ValuateCommand {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &ValuateCommand{config: config}
}

// Execute runs the valuate command
func (c *ValuateCommand) Execute(ctx context.Context) error {
	cfg := c.config.Config
	items := make([]entities.ItemID, 0, len(c.config.Args))
	for _, arg := range c.config.Args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("validation error: invalid item id %q", arg)
		}
		items = append(items, entities.ItemID(id))
	}

	env, err := LoadEnvironment(ctx, cfg, c.config.Logger)
	if err != nil {
		return err
	}
	defer env.Close()

	orchestrator := env.NewOrchestrator(cfg, c.config.Metrics, c.config.Logger)
	result, err := orchestrator.Valuate(ctx, entities.OwnerID(cfg.Planner.Owner), items)
	if err != nil {
		return fmt.Errorf("valuation failed: %w", err)
	}

	return output.GenerateValuation(result, output.Config{
		Format:    cfg.Output.Format,
		OutputDir: c.config.OutputDir,
		Writer:    c.config.Out,
		Verbose:   c.config.Verbose,
	})
}
