// Package util holds runtime configuration shared by the CLI, console and server.
package util

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/DaanHessen/rollwright/internal/bruteforce"
	"github.com/DaanHessen/rollwright/internal/logger"
	"github.com/DaanHessen/rollwright/internal/prob"
)

// Config holds runtime settings and flags.
type Config struct {
	SeedText string `env:"ROLLWRIGHT_SEED"`
	DSN      string `env:"DATABASE_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn" validate:"oneof=debug info warn warning error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	HTTPPort  int    `env:"HTTP_PORT" envDefault:"8080" validate:"min=1,max=65535"`

	ConvolutionBudget time.Duration `env:"CONVOLUTION_BUDGET" envDefault:"2s" validate:"gt=0"`
	CLTThreshold      int           `env:"CLT_THRESHOLD" envDefault:"1000" validate:"min=2"`
	CheckInterval     int           `env:"TIMEOUT_CHECK_INTERVAL" envDefault:"20000" validate:"min=1"`
	BruteforceBudget  time.Duration `env:"BRUTEFORCE_BUDGET" envDefault:"2s" validate:"gt=0"`
	BruteforceWorkers int           `env:"BRUTEFORCE_WORKERS" validate:"min=0"` // 0 means one per CPU

	CacheSize int           `env:"CACHE_SIZE" envDefault:"256" validate:"min=0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"10m" validate:"gte=0"`
	Theme     string        `env:"THEME" envDefault:"catppuccin"`

	Version string
}

var validate = validator.New()

// Load reads a .env file when present, then the process environment.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings after flags have been applied.
func (c Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid configuration")
}

// Limits returns the convolution limits for distribution work.
func (c Config) Limits() prob.Limits {
	l := prob.DefaultLimits()
	l.ConvolutionBudget = c.ConvolutionBudget
	l.CLTThreshold = c.CLTThreshold
	l.CheckInterval = c.CheckInterval
	return l
}

// Sampling returns the bruteforce options.
func (c Config) Sampling() bruteforce.Options {
	o := bruteforce.DefaultOptions()
	o.Budget = c.BruteforceBudget
	if c.BruteforceWorkers > 0 {
		o.Workers = c.BruteforceWorkers
	}
	return o
}

// Logger returns the logger configuration.
func (c Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	if c.Version != "" {
		lc.Version = c.Version
	}
	return lc
}
