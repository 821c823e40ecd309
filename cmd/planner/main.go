package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/vsinha/industry-planner/pkg/infrastructure/config"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
	"github.com/vsinha/industry-planner/pkg/infrastructure/metrics"
	"github.com/vsinha/industry-planner/pkg/infrastructure/prices"
	"github.com/vsinha/industry-planner/pkg/interfaces/cli/commands"
)

const usage = `Usage: planner <command> [flags] [args]

Commands:
  plan      [item:qty ...]   Decide take, buy or build for each requirement
  valuate   [item ...]       Report the cost basis of held stock
  generate                   Write a synthetic scenario directory

Run "planner <command> --help" for the flags of a command.
`

func main() {
	if err := run(os.Args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Print(usage)
		return nil
	}

	// a .env file is optional; PLANNER_ variables may also come from the shell
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "plan":
		return runPlan(ctx, args[1:])
	case "valuate":
		return runValuate(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// session is the state shared by the plan and valuate commands
type session struct {
	cfg         *config.Config
	logger      logr.Logger
	registry    *prometheus.Registry
	metrics     *metrics.PlanningMetrics
	metricsFile string
	outputDir   string
	verbose     bool
	args        []string
}

func newSession(name string, args []string, extra func(*pflag.FlagSet)) (*session, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.RegisterFlags(flags)
	outputDir := flags.String("output-dir", "", "Write results into this directory instead of stdout")
	metricsFile := flags.String("metrics-file", "", "Write Prometheus metrics in text format to this file")
	verbose := flags.BoolP("verbose", "v", false, "Enable verbose output")
	if extra != nil {
		extra(flags)
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := config.New()
	if err := config.BindFlags(v, flags); err != nil {
		return nil, err
	}
	configFile, _ := flags.GetString("config")
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.LogVerbosity(), cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	return &session{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		metrics:     metrics.NewPlanningMetrics(registry),
		metricsFile: *metricsFile,
		outputDir:   *outputDir,
		verbose:     *verbose,
		args:        flags.Args(),
	}, nil
}

// finish flushes metrics once a command has run
func (s *session) finish(runErr error) error {
	if s.metricsFile != "" {
		if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
			s.logger.Error(err, "failed to write metrics", "file", s.metricsFile)
		}
	}
	return runErr
}

func runPlan(ctx context.Context, args []string) error {
	var gantt *bool
	var owners *[]int64
	s, err := newSession("plan", args, func(flags *pflag.FlagSet) {
		gantt = flags.Bool("gantt", false, "Write an SVG build schedule (requires --output-dir)")
		owners = flags.Int64Slice("owners", nil, "Additional owners to plan concurrently")
	})
	if err != nil {
		return err
	}

	cmd := commands.NewPlanCommand(commands.PlanConfig{
		Config:    s.cfg,
		Args:      s.args,
		Owners:    *owners,
		OutputDir: s.outputDir,
		Gantt:     *gantt,
		Verbose:   s.verbose,
		Metrics:   s.metrics,
		Logger:    s.logger,
	})
	return s.finish(cmd.Execute(ctx))
}

func runValuate(ctx context.Context, args []string) error {
	s, err := newSession("valuate", args, nil)
	if err != nil {
		return err
	}

	cmd := commands.NewValuateCommand(commands.ValuateConfig{
		Config:    s.cfg,
		Args:      s.args,
		OutputDir: s.outputDir,
		Verbose:   s.verbose,
		Metrics:   s.metrics,
		Logger:    s.logger,
	})
	return s.finish(cmd.Execute(ctx))
}

func runGenerate(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	var cfg commands.GenerateConfig
	flags.IntVar(&cfg.Items, "items", 100, "Total number of items to generate")
	flags.IntVar(&cfg.MaxDepth, "max-depth", 4, "Maximum depth of the recipe tree")
	flags.IntVar(&cfg.Requirements, "requirements", 3, "Number of requirement lines")
	flags.Float64Var(&cfg.Inventory, "inventory", 0.5, "Raw material stock as a multiple of one root's needs")
	flags.Float64Var(&cfg.OwnedRatio, "owned", 0.5, "Fraction of recipes with an owned blueprint")
	flags.StringVar(&cfg.OutputDir, "output", "scenario", "Output directory for generated files")
	flags.Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 uses the current time)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	redisAddr := flags.String("redis-addr", "", "Also publish generated prices to this Redis")
	redisPrefix := flags.String("redis-prefix", "industry", "Key prefix of the Redis price hashes")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer client.Close()
		cfg.Publish = prices.NewRedisSource(client, *redisPrefix).StorePrices
	}
	return commands.NewGenerateCommand(cfg).Execute(ctx)
}
