package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-redis/redis/v8"

	"github.com/vsinha/industry-planner/pkg/application/services/criticalpath"
	"github.com/vsinha/industry-planner/pkg/application/services/orchestration"
	"github.com/vsinha/industry-planner/pkg/application/services/planner"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
	"github.com/vsinha/industry-planner/pkg/domain/services"
	"github.com/vsinha/industry-planner/pkg/infrastructure/config"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
	"github.com/vsinha/industry-planner/pkg/infrastructure/metrics"
	"github.com/vsinha/industry-planner/pkg/infrastructure/prices"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/yamlcatalog"
)

// Environment holds the repositories a command plans against
type Environment struct {
	Catalog      *memory.RecipeCatalog
	Events       repositories.EventRepository
	Inventory    repositories.InventoryRepository
	Blueprints   repositories.BlueprintRepository
	Prices       *prices.CachedSource
	Requirements []entities.MaterialRequirement

	closers []func()
}

// Close releases database and cache connections
func (e *Environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// LoadEnvironment builds the repositories named by the configuration. Owner
// history comes from PostgreSQL when a database URL is set and from the
// scenario directory otherwise; prices come from Redis when an address is set.
func LoadEnvironment(ctx context.Context, cfg *config.Config, logger logr.Logger) (*Environment, error) {
	env := &Environment{}

	catalogPath := cfg.Scenario.Catalog
	if !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(cfg.Scenario.Dir, catalogPath)
	}
	catalog, err := yamlcatalog.LoadCatalog(catalogPath, logger.WithName("catalog"))
	if err != nil {
		return nil, err
	}
	env.Catalog = catalog
	reportCatalogProblems(catalog, logger)

	scenario, err := csv.NewLoader(csv.WithLogger(logger.WithName("scenario"))).LoadScenario(cfg.Scenario.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", cfg.Scenario.Dir, err)
	}
	env.Requirements = scenario.Requirements
	owner := entities.OwnerID(cfg.Planner.Owner)

	if cfg.Database.URL != "" {
		store, err := postgres.Open(ctx, cfg.Database.URL, postgres.WithLogger(logger.WithName("postgres")))
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			env.Close()
			return nil, err
		}
		env.Events, env.Inventory, env.Blueprints = store, store, store
		logger.V(logging.DEBUG).Info("owner history from database")
	} else {
		events := memory.NewEventStore()
		events.AddTransactions(owner, scenario.Transactions...)
		events.AddProductionRecords(owner, scenario.Production...)
		events.AddBlueprints(owner, scenario.Blueprints...)

		inventory := memory.NewInventoryRepository()
		inventory.LoadOnHand(owner, scenario.OnHand)

		env.Events, env.Inventory, env.Blueprints = events, inventory, events
	}

	var source repositories.PriceSource = memory.NewPriceBook(scenario.Prices)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			env.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		env.closers = append(env.closers, func() { client.Close() })
		source = prices.NewRedisSource(client, cfg.Redis.Prefix)
		logger.V(logging.DEBUG).Info("prices from redis", "addr", cfg.Redis.Addr)
	}
	env.Prices = prices.NewCachedSource(source, cfg.Prices.CacheTTL, logger.WithName("prices"))

	return env, nil
}

// NewOrchestrator wires the planner services over the environment
func (e *Environment) NewOrchestrator(cfg *config.Config, m *metrics.PlanningMetrics, logger logr.Logger) *orchestration.PlanningOrchestrator {
	plannerService := planner.NewPlanner(e.Catalog,
		planner.WithLogger(logger.WithName("planner")),
		planner.WithDefaultMaxDepth(cfg.Planner.MaxDepth))

	return orchestration.NewPlanningOrchestrator(
		plannerService,
		criticalpath.NewCriticalPathService(logger.WithName("critical-path")),
		e.Catalog,
		e.Events,
		e.Inventory,
		e.Prices,
		orchestration.WithBlueprints(e.Blueprints),
		orchestration.WithMetrics(m),
		orchestration.WithLogger(logger),
	)
}

// reportCatalogProblems logs structural catalog problems. The planner copes
// with all of them, so they never stop a run.
func reportCatalogProblems(catalog *memory.RecipeCatalog, logger logr.Logger) {
	result := services.NewRecipeGraphValidator().Validate(catalog.AllRecipes())
	for _, problem := range result.Errors {
		logger.Info("recipe catalog problem", "problem", problem)
	}
}
