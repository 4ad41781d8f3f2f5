// Package config defines the service configuration. Configuration is loaded
// once at process start and is immutable thereafter; it follows 12-Factor
// principles by strictly separating code from configuration.
//
// Values are resolved from the OS environment, with a .env file as a
// development convenience. A missing required value or invalid format fails
// startup immediately.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Series        SeriesConfig
	Pipeline      PipelineConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// SeriesConfig holds the time-series provider settings: the simulation seed,
// the optional live archive upstream, and the optional Redis cache.
type SeriesConfig struct {
	// SimulationSeed fixes the simulated data stream; the same seed always
	// produces the same series for a given location, date, and field.
	SimulationSeed uint64 `envconfig:"SIMULATION_SEED" default:"1"`

	// PreferLive switches the provider to the archive API with simulation
	// as the fallback path.
	PreferLive      bool          `envconfig:"SERIES_PREFER_LIVE" default:"false"`
	OpenMeteoURL    string        `envconfig:"OPEN_METEO_URL" default:"https://archive-api.open-meteo.com/v1/archive" validate:"url"`
	UpstreamTimeout time.Duration `envconfig:"SERIES_UPSTREAM_TIMEOUT" default:"10s"`

	// RedisURL enables the series cache when set, e.g. redis://localhost:6379/0.
	RedisURL string        `envconfig:"REDIS_URL" validate:"omitempty,url"`
	CacheTTL time.Duration `envconfig:"SERIES_CACHE_TTL" default:"15m"`
}

// PipelineConfig holds batch evaluation tuning.
type PipelineConfig struct {
	BatchConcurrency int `envconfig:"BATCH_CONCURRENCY" default:"10" validate:"min=1,max=100"`
}

// ObservabilityConfig holds the CloudWatch metric settings.
type ObservabilityConfig struct {
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"ShadeMap"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present (non-fatal if absent),
// then envconfig tags populate the struct, then the result is validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
