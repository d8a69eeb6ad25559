package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/openforma/openforma/pkg/config"
	"github.com/openforma/openforma/pkg/lifecycle"
	"github.com/openforma/openforma/pkg/mutation"
	"github.com/openforma/openforma/pkg/questionnaire"
	"github.com/openforma/openforma/pkg/stores"
	"github.com/openforma/openforma/pkg/telemetry"
)

// app bundles everything a command needs: config, telemetry, store, and
// the two engine surfaces.
type app struct {
	cfg     *config.Config
	tel     *telemetry.Telemetry
	store   *stores.SQLiteStore
	manager *lifecycle.Manager
	gateway *mutation.Gateway
}

// openApp loads the configuration, opens the store, runs migrations,
// and wires the engine. Callers must Close the app.
func openApp(ctx context.Context, version string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	tel, err := telemetry.NewTelemetry(cfg.TelemetryConfig(version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	store, err := stores.NewSQLiteStore(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		if err := tel.StartMetricsServer(); err != nil {
			store.Close()
			return nil, err
		}
	}

	manager := lifecycle.NewManager(store,
		lifecycle.WithLogger(tel.Logger),
		lifecycle.WithMetrics(tel.Metrics),
		lifecycle.WithTracer(tel.Tracer),
		lifecycle.WithEvents(tel.Events),
	)
	gateway := mutation.NewGateway(store,
		mutation.WithLogger(tel.Logger),
		mutation.WithMetrics(tel.Metrics),
		mutation.WithTracer(tel.Tracer),
		mutation.WithEvents(tel.Events),
	)

	return &app{
		cfg:     cfg,
		tel:     tel,
		store:   store,
		manager: manager,
		gateway: gateway,
	}, nil
}

// Close flushes telemetry and closes the store.
func (a *app) Close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.tel.Shutdown(shutdownCtx); err != nil {
		a.tel.Logger.WithError(err).Warn("telemetry shutdown failed")
	}
	if err := a.store.Close(); err != nil {
		a.tel.Logger.WithError(err).Warn("store close failed")
	}
}

// actor resolves the acting user: the --actor flag when given, else the
// configured default.
func (a *app) actor() string {
	if actorFlag != "" {
		return actorFlag
	}
	return a.cfg.DefaultActor
}

// locale resolves the render locale: the --locale flag when given, else
// the configured default.
func (a *app) locale() (questionnaire.Locale, error) {
	if localeFlag != "" {
		return questionnaire.ParseLocale(localeFlag)
	}
	return questionnaire.ParseLocale(a.cfg.DefaultLocale)
}

// draftID resolves the id of the current draft for mutation commands.
func (a *app) draftID(ctx context.Context) (string, error) {
	draft, err := a.store.GetDraft(ctx)
	if err != nil {
		if questionnaire.IsNotFound(err) {
			return "", fmt.Errorf("no draft exists; run 'forma draft create' first")
		}
		return "", err
	}
	return draft.ID, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tabwriter for aligned human-readable output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// versionLabel formats a version for display: its number when
// published, otherwise a shortened id.
func versionLabel(v *questionnaire.Version) string {
	if v.VersionNumber != nil {
		return fmt.Sprintf("v%d", *v.VersionNumber)
	}
	return shortID(v.ID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func strOrDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}
