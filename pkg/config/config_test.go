package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.DefaultLocale != "fr" {
		t.Errorf("expected default locale fr, got %s", cfg.DefaultLocale)
	}
	if cfg.DefaultActor != "system" {
		t.Errorf("expected default actor system, got %s", cfg.DefaultActor)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openforma.yaml")
	content := `
default_actor: marie
default_locale: en
environment: production
store:
  path: /var/lib/openforma/forma.db
  max_open_conns: 10
logging:
  level: debug
  format: json
metrics:
  enabled: true
  listen_address: ":9100"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DefaultActor != "marie" {
		t.Errorf("expected actor marie, got %s", cfg.DefaultActor)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("expected locale en, got %s", cfg.DefaultLocale)
	}
	if cfg.Store.Path != "/var/lib/openforma/forma.db" {
		t.Errorf("unexpected store path: %s", cfg.Store.Path)
	}
	if cfg.Store.MaxOpenConns != 10 {
		t.Errorf("expected 10 open conns, got %d", cfg.Store.MaxOpenConns)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.ListenAddress != ":9100" {
		t.Errorf("unexpected metrics config: %+v", cfg.Metrics)
	}
	// Untouched fields keep their defaults.
	if cfg.Store.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("expected default conn lifetime, got %s", cfg.Store.ConnMaxLifetime)
	}
	if !cfg.Events.Enabled {
		t.Error("events must stay enabled by default")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openforma.yaml")
	if err := os.WriteFile(path, []byte("default_actor: marie\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("FORMA_ACTOR", "paul")
	t.Setenv("FORMA_DB_PATH", "/tmp/forma-test.db")
	t.Setenv("FORMA_LOG_LEVEL", "warn")
	t.Setenv("FORMA_METRICS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DefaultActor != "paul" {
		t.Errorf("env must win over file, got %s", cfg.DefaultActor)
	}
	if cfg.Store.Path != "/tmp/forma-test.db" {
		t.Errorf("unexpected store path: %s", cfg.Store.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled from env")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad locale":    "default_locale: de\n",
		"bad log level": "logging:\n  level: loud\n",
		"bad format":    "logging:\n  format: xml\n",
		"bad sampling":  "tracing:\n  sampling_rate: 2.0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "openforma.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("failed to write config file: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestOTLPRequiresEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	if err := cfg.Validate(); err == nil {
		t.Error("otlp exporter without endpoint must fail validation")
	}
	cfg.Tracing.Endpoint = "localhost:4317"
	if err := cfg.Validate(); err != nil {
		t.Errorf("otlp exporter with endpoint must validate: %v", err)
	}
}

func TestStoreConfigMapping(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "/data/forma.db"

	sc := cfg.StoreConfig()
	if sc.Path != "/data/forma.db" {
		t.Errorf("unexpected mapped path: %s", sc.Path)
	}
	if sc.MaxOpenConns != cfg.Store.MaxOpenConns {
		t.Errorf("open conns not mapped: %d", sc.MaxOpenConns)
	}
}

func TestTelemetryConfigMapping(t *testing.T) {
	cfg := Default()
	cfg.Environment = "production"
	cfg.Logging.Format = "json"
	cfg.Metrics.Enabled = true

	tc := cfg.TelemetryConfig("1.2.3")
	if tc.ServiceVersion != "1.2.3" {
		t.Errorf("version not mapped: %s", tc.ServiceVersion)
	}
	if tc.Environment != "production" {
		t.Errorf("environment not mapped: %s", tc.Environment)
	}
	if tc.Logging.Format != "json" {
		t.Errorf("log format not mapped: %s", tc.Logging.Format)
	}
	if !tc.Metrics.Enabled {
		t.Error("metrics flag not mapped")
	}
	if err := tc.Validate(); err != nil {
		t.Errorf("mapped telemetry config must validate: %v", err)
	}
}
