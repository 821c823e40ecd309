package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

// EnvPrefix is prepended to every environment override, e.g. PLANNER_PLANNER_MAX_DEPTH
const EnvPrefix = "PLANNER"

// Output formats understood by the CLI renderers
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config is the full runtime configuration
type Config struct {
	Planner     PlannerConfig   `mapstructure:"planner"`
	Modifiers   dto.Modifiers   `mapstructure:"modifiers"`
	CostIndices dto.CostIndices `mapstructure:"cost_indices"`
	Log         LogConfig       `mapstructure:"log"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Prices      PricesConfig    `mapstructure:"prices"`
	Scenario    ScenarioConfig  `mapstructure:"scenario"`
	Output      OutputConfig    `mapstructure:"output"`
}

type PlannerConfig struct {
	Owner            int64 `mapstructure:"owner"`
	MaxDepth         int   `mapstructure:"max_depth"`
	UseFIFOInventory bool  `mapstructure:"use_fifo_inventory"`
	Concurrency      int   `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type PricesConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ScenarioConfig points at file-backed inputs used when no database is configured
type ScenarioConfig struct {
	Dir     string `mapstructure:"dir"`
	Catalog string `mapstructure:"catalog"`
}

type OutputConfig struct {
	Format       string `mapstructure:"format"`
	CriticalPath bool   `mapstructure:"critical_path"`
	TopPaths     int    `mapstructure:"top_paths"`
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"owner":              "planner.owner",
	"max-depth":          "planner.max_depth",
	"use-fifo":           "planner.use_fifo_inventory",
	"concurrency":        "planner.concurrency",
	"material-reduction": "modifiers.material_reduction",
	"time-reduction":     "modifiers.time_reduction",
	"job-cost-reduction": "modifiers.job_cost_reduction",
	"surcharge-rate":     "modifiers.surcharge_rate",
	"manufacturing-ci":   "cost_indices.manufacturing",
	"copying-ci":         "cost_indices.copying",
	"research-me-ci":     "cost_indices.research_me",
	"research-te-ci":     "cost_indices.research_te",
	"log-level":          "log.level",
	"log-development":    "log.development",
	"redis-addr":         "redis.addr",
	"database-url":       "database.url",
	"scenario-dir":       "scenario.dir",
	"catalog":            "scenario.catalog",
	"output":             "output.format",
	"critical-path":      "output.critical_path",
	"top-paths":          "output.top_paths",
}

// SetDefaults registers every key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault("planner.owner", 0)
	v.SetDefault("planner.max_depth", 3)
	v.SetDefault("planner.use_fifo_inventory", true)
	v.SetDefault("planner.concurrency", 4)
	v.SetDefault("modifiers.material_reduction", 0.0)
	v.SetDefault("modifiers.time_reduction", 0.0)
	v.SetDefault("modifiers.job_cost_reduction", 0.0)
	v.SetDefault("modifiers.surcharge_rate", 0.0)
	v.SetDefault("cost_indices.manufacturing", 0.0)
	v.SetDefault("cost_indices.copying", 0.0)
	v.SetDefault("cost_indices.research_me", 0.0)
	v.SetDefault("cost_indices.research_te", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "industry")
	v.SetDefault("database.url", "")
	v.SetDefault("prices.cache_ttl", 5*time.Minute)
	v.SetDefault("scenario.dir", ".")
	v.SetDefault("scenario.catalog", "recipes.yaml")
	v.SetDefault("output.format", FormatText)
	v.SetDefault("output.critical_path", false)
	v.SetDefault("output.top_paths", 3)
}

// RegisterFlags defines the command line flags that override configuration keys
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML configuration file")
	fs.Int64("owner", 0, "Owner (character or corporation) id to plan for")
	fs.Int("max-depth", 3, "Maximum recursion depth for building sub-components")
	fs.Bool("use-fifo", true, "Price owned stock at its FIFO cost basis")
	fs.Int("concurrency", 4, "Maximum concurrent planning requests in batch mode")
	fs.Float64("material-reduction", 0, "Structure/rig material reduction fraction")
	fs.Float64("time-reduction", 0, "Structure/rig/skill time reduction fraction")
	fs.Float64("job-cost-reduction", 0, "Structure job cost reduction fraction")
	fs.Float64("surcharge-rate", 0, "Facility tax plus SCC surcharge fraction")
	fs.Float64("manufacturing-ci", 0, "Manufacturing system cost index")
	fs.Float64("copying-ci", 0, "Copying system cost index")
	fs.Float64("research-me-ci", 0, "Material research system cost index")
	fs.Float64("research-te-ci", 0, "Time research system cost index")
	fs.String("log-level", "info", "Log level: info, debug or trace")
	fs.Bool("log-development", false, "Human readable development logging")
	fs.String("redis-addr", "", "Redis address for live prices")
	fs.String("database-url", "", "PostgreSQL connection string for owner history")
	fs.String("scenario-dir", ".", "Directory holding CSV scenario files")
	fs.String("catalog", "recipes.yaml", "Recipe catalog YAML file")
	fs.StringP("output", "o", FormatText, "Output format: text, json or csv")
	fs.Bool("critical-path", false, "Show the critical build path of each root")
	fs.Int("top-paths", 3, "Number of critical paths to show")
}

// BindFlags binds every registered flag present in fs to its configuration key
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// New creates a viper instance with defaults and PLANNER_ environment overrides
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes the merged configuration
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the decoded configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Planner.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("planner.max_depth must not be negative, got %d", c.Planner.MaxDepth))
	}
	if c.Planner.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("planner.concurrency must be at least 1, got %d", c.Planner.Concurrency))
	}
	for name, index := range map[string]float64{
		"manufacturing": c.CostIndices.Manufacturing,
		"copying":       c.CostIndices.Copying,
		"research_me":   c.CostIndices.ResearchME,
		"research_te":   c.CostIndices.ResearchTE,
	} {
		if index < 0 {
			errs = append(errs, fmt.Errorf("cost_indices.%s must not be negative, got %g", name, index))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatCSV:
	default:
		errs = append(errs, fmt.Errorf("unsupported output format %q (expected: text, json or csv)", c.Output.Format))
	}
	if c.Prices.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("prices.cache_ttl must not be negative, got %s", c.Prices.CacheTTL))
	}

	return errors.Join(errs...)
}

// LogVerbosity returns the logr verbosity for the configured level
func (c *Config) LogVerbosity() int {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.INFO
	}
	return level
}
