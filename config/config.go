package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meenmo/cdslib/pricing"
	"github.com/meenmo/cdslib/rootfind"
)

// EnvPrefix is prepended to environment overrides, e.g. CDSLIB_PRICING_METHOD.
const EnvPrefix = "CDSLIB"

// Config holds solver, pricing, batch and logging parameters.
type Config struct {
	Solver  SolverConfig  `mapstructure:"solver" yaml:"solver"`
	Pricing PricingConfig `mapstructure:"pricing" yaml:"pricing"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SolverConfig bounds the root finder.
type SolverConfig struct {
	// MaxSecantIterations caps the secant phase before bracketing.
	MaxSecantIterations int `mapstructure:"max_secant_iterations" yaml:"max_secant_iterations"`

	// MaxBrentIterations caps Brent's method once a root is bracketed.
	MaxBrentIterations int `mapstructure:"max_brent_iterations" yaml:"max_brent_iterations"`
}

// PricingConfig selects the pricer.
type PricingConfig struct {
	// Method is "analytic" or "discrete".
	Method string `mapstructure:"method" yaml:"method"`

	// Epsilon is added to hazard plus forward rate in the analytic pricer.
	Epsilon float64 `mapstructure:"epsilon" yaml:"epsilon"`
}

// BatchConfig controls the batch command.
type BatchConfig struct {
	// Workers is the number of trades priced concurrently.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Solver: SolverConfig{
		MaxSecantIterations: rootfind.DefaultMaxSecantIterations,
		MaxBrentIterations:  rootfind.DefaultMaxBrentIterations,
	},
	Pricing: PricingConfig{
		Method:  string(pricing.Analytic),
		Epsilon: pricing.DefaultEpsilon,
	},
	Batch: BatchConfig{
		Workers: 4,
	},
	Logging: LoggingConfig{
		Level:  "info",
		Format: "console",
	},
}

// Load reads configuration from path (yaml, json or toml by extension) over
// DefaultConfig, then applies CDSLIB_* environment overrides. An empty path
// skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig
	v.SetDefault("solver.max_secant_iterations", d.Solver.MaxSecantIterations)
	v.SetDefault("solver.max_brent_iterations", d.Solver.MaxBrentIterations)
	v.SetDefault("pricing.method", d.Pricing.Method)
	v.SetDefault("pricing.epsilon", d.Pricing.Epsilon)
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks every field; the error lists all problems found.
func (c Config) Validate() error {
	var problems []error
	if c.Solver.MaxSecantIterations <= 0 {
		problems = append(problems, fmt.Errorf("solver.max_secant_iterations must be positive, got %d", c.Solver.MaxSecantIterations))
	}
	if c.Solver.MaxBrentIterations <= 0 {
		problems = append(problems, fmt.Errorf("solver.max_brent_iterations must be positive, got %d", c.Solver.MaxBrentIterations))
	}
	if _, err := pricing.ParseMethod(c.Pricing.Method); err != nil {
		problems = append(problems, fmt.Errorf("pricing.method: %w", err))
	}
	if !(c.Pricing.Epsilon > 0) {
		problems = append(problems, fmt.Errorf("pricing.epsilon must be positive, got %g", c.Pricing.Epsilon))
	}
	if c.Batch.Workers <= 0 {
		problems = append(problems, fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config.Validate: %w", errors.Join(problems...))
	}
	return nil
}

// Solver builds a root finder with these limits.
func (s SolverConfig) Solver(logger *zap.Logger) rootfind.Solver {
	return rootfind.Solver{
		MaxSecantIterations: s.MaxSecantIterations,
		MaxBrentIterations:  s.MaxBrentIterations,
		Logger:              logger,
	}
}

// Engine builds a pricing engine with these settings.
func (p PricingConfig) Engine(logger *zap.Logger) pricing.Engine {
	return pricing.Engine{
		Analytic: pricing.AnalyticFlatForward{Epsilon: p.Epsilon, Logger: logger},
	}
}
