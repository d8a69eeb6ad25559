package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openforma/openforma/pkg/stores"
	"github.com/openforma/openforma/pkg/telemetry"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the root OpenForma configuration.
type Config struct {
	// DefaultActor is attributed to operations when the caller does not
	// name one.
	DefaultActor string `yaml:"default_actor" validate:"required"`

	// DefaultLocale is the render locale when the caller does not name
	// one (fr or en).
	DefaultLocale string `yaml:"default_locale" validate:"required,oneof=fr en"`

	// Environment is the deployment environment.
	Environment string `yaml:"environment" validate:"required,oneof=development staging production"`

	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	Path            string        `yaml:"path" validate:"required"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"omitempty,min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"omitempty,min=1"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level        string `yaml:"level" validate:"required,oneof=trace debug info warn error fatal"`
	Format       string `yaml:"format" validate:"required,oneof=console json"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
	TimeFormat   string `yaml:"time_format" validate:"omitempty,oneof=unix rfc3339"`
}

// TracingConfig configures distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `yaml:"insecure"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size" validate:"omitempty,min=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultActor:  "system",
		DefaultLocale: "fr",
		Environment:   "development",
		Store: StoreConfig{
			Path:            "openforma.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: "rfc3339",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			SamplingRate: 1.0,
			Insecure:     true,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
			Path:          "/metrics",
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 256,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (or the first default location when path is empty), then
// FORMA_* environment variables. The result is validated before it is
// returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first config file present in the default
// locations, or "".
func findConfigFile() string {
	candidates := []string{"openforma.yaml", "openforma.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".openforma", "config.yaml"),
			filepath.Join(home, ".openforma", "config.yml"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// applyEnv overrides configuration values from FORMA_* environment
// variables. Environment wins over the file.
func applyEnv(cfg *Config) {
	setString(&cfg.DefaultActor, "FORMA_ACTOR")
	setString(&cfg.DefaultLocale, "FORMA_LOCALE")
	setString(&cfg.Environment, "FORMA_ENV")
	setString(&cfg.Store.Path, "FORMA_DB_PATH")
	setString(&cfg.Logging.Level, "FORMA_LOG_LEVEL")
	setString(&cfg.Logging.Format, "FORMA_LOG_FORMAT")
	setString(&cfg.Logging.Output, "FORMA_LOG_OUTPUT")
	setBool(&cfg.Tracing.Enabled, "FORMA_TRACING_ENABLED")
	setString(&cfg.Tracing.Exporter, "FORMA_TRACING_EXPORTER")
	setString(&cfg.Tracing.Endpoint, "FORMA_TRACING_ENDPOINT")
	setBool(&cfg.Metrics.Enabled, "FORMA_METRICS_ENABLED")
	setString(&cfg.Metrics.ListenAddress, "FORMA_METRICS_ADDR")
	setBool(&cfg.Events.Enabled, "FORMA_EVENTS_ENABLED")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("invalid configuration: metrics listen address is required when metrics are enabled")
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("invalid configuration: tracing endpoint is required for the otlp exporter")
	}
	return nil
}

// StoreConfig maps the configuration to the store's config type.
func (c *Config) StoreConfig() stores.Config {
	return stores.Config{
		Path:            c.Store.Path,
		MaxOpenConns:    c.Store.MaxOpenConns,
		MaxIdleConns:    c.Store.MaxIdleConns,
		ConnMaxLifetime: c.Store.ConnMaxLifetime,
	}
}

// TelemetryConfig maps the configuration to the telemetry config type.
func (c *Config) TelemetryConfig(serviceVersion string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = serviceVersion
	tc.Environment = c.Environment
	tc.Logging = telemetry.LoggingConfig{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		Output:       c.Logging.Output,
		EnableCaller: c.Logging.EnableCaller,
		TimeFormat:   c.Logging.TimeFormat,
	}
	tc.Tracing.Enabled = c.Tracing.Enabled
	tc.Tracing.Exporter = c.Tracing.Exporter
	tc.Tracing.Endpoint = c.Tracing.Endpoint
	tc.Tracing.SamplingRate = c.Tracing.SamplingRate
	tc.Tracing.Insecure = c.Tracing.Insecure
	tc.Metrics.Enabled = c.Metrics.Enabled
	tc.Metrics.ListenAddress = c.Metrics.ListenAddress
	tc.Metrics.Path = c.Metrics.Path
	tc.Events.Enabled = c.Events.Enabled
	tc.Events.BufferSize = c.Events.BufferSize
	return tc
}
