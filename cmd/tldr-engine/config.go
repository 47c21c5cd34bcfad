// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/tldr-engine/internal/batch"
	"github.com/pdiddy/tldr-engine/internal/library"
	"github.com/pdiddy/tldr-engine/internal/logging"
	"github.com/pdiddy/tldr-engine/internal/outcome"
	"github.com/pdiddy/tldr-engine/internal/resolve"
	"github.com/pdiddy/tldr-engine/internal/search"
	"github.com/pdiddy/tldr-engine/internal/secrets"
	"github.com/pdiddy/tldr-engine/pkg/types"
)

const (
	defaultDBPath       = "library/library.db"
	defaultOutcomesPath = "library/outcomes.yaml"
	defaultBaseURL      = "https://api.semanticscholar.org/graph/v1"
	defaultTimeout      = 30 * time.Second
	defaultUserAgent    = "tldr-engine/0.1"
)

func setDefaults() {
	viper.SetDefault("library.db_path", defaultDBPath)
	viper.SetDefault("outcomes.backend", string(types.OutcomeBackendSQLite))
	viper.SetDefault("outcomes.path", defaultOutcomesPath)
	viper.SetDefault("scholar.base_url", defaultBaseURL)
	viper.SetDefault("scholar.api_key", "")
	viper.SetDefault("scholar.timeout", defaultTimeout)
	viper.SetDefault("scholar.user_agent", defaultUserAgent)
	viper.SetDefault("scholar.search_limit", search.DefaultSearchLimit)
	viper.SetDefault("batch.pacing_delay", batch.DefaultPacingDelay)
	viper.SetDefault("batch.add_delay", batch.DefaultAddDelay)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "text")
}

// bindEnv maps nested keys to TLDR_ENGINE_* variables, so scholar.api_key
// reads TLDR_ENGINE_SCHOLAR_API_KEY.
func bindEnv() {
	viper.SetEnvPrefix("TLDR_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// loadConfig decodes the merged viper settings and fills in the API key
// from .secrets/ when none is configured.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Scholar.APIKey = loadedSecrets.Or(secrets.SemanticScholarAPIKey, cfg.Scholar.APIKey)

	switch cfg.Outcomes.Backend {
	case types.OutcomeBackendSQLite, types.OutcomeBackendFile:
	default:
		return cfg, fmt.Errorf("unsupported outcomes backend %q: use sqlite or file", cfg.Outcomes.Backend)
	}
	return cfg, nil
}

// app holds the wired components for one command invocation.
type app struct {
	cfg      types.Config
	logger   *slog.Logger
	lib      *library.Library
	outcomes *outcome.Store
	resolver *resolve.Resolver

	// outcomeSource names where outcomes are kept, for status output.
	outcomeSource string
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	lib, err := library.Open(cfg.Library)
	if err != nil {
		return nil, err
	}

	var substrate outcome.Substrate = lib.Outcomes()
	source := "sqlite " + cfg.Library.DBPath
	if cfg.Outcomes.Backend == types.OutcomeBackendFile {
		file := outcome.NewFileSubstrate(cfg.Outcomes.Path)
		substrate = file
		source = "file " + file.Path()
	}
	store := outcome.NewStore(substrate, lib, logger)

	client := search.NewSemanticScholarClient(cfg.Scholar)
	return &app{
		cfg:      cfg,
		logger:   logger,
		lib:      lib,
		outcomes: store,
		resolver: resolve.NewResolver(client, store, cfg.Scholar, logger),

		outcomeSource: source,
	}, nil
}

// orchestrator returns a batch driver that reports progress to stdout.
func (a *app) orchestrator() *batch.Orchestrator {
	return batch.New(a.resolver, a.outcomes, a.cfg.Batch, batch.ConsoleReporter(os.Stdout), a.logger)
}

func (a *app) Close() error {
	return a.lib.Close()
}

// summaryError turns transport failures into a non-zero exit.
func summaryError(s types.BatchSummary) error {
	if s.Errored > 0 {
		return fmt.Errorf("%d work(s) hit request errors and will be retried on the next run", s.Errored)
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-3]) + "..."
}
