package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abdhe/aishe-client/pkg/aishe"
	"github.com/abdhe/aishe-client/pkg/config"
	"github.com/abdhe/aishe-client/pkg/logging"
	"github.com/abdhe/aishe-client/pkg/orchestrator"
)

var (
	flagURL       string
	flagTimeout   time.Duration
	flagCache     string
	flagThreshold string
	flagLogLevel  string
)

// app is built by the root command before any subcommand runs.
var app struct {
	cfg          *config.Config
	logger       zerolog.Logger
	orchestrator *orchestrator.Orchestrator
	close        func() error
}

var rootCmd = &cobra.Command{
	Use:   "aishe",
	Short: "Caching client for the AISHE question-answering service",
	Long: `aishe asks questions of an AISHE server and caches the answers.

The cache backend is chosen with --cache or AISHE_CACHE_BACKEND:
  none       every question goes to the server
  redis      exact-match cache keyed by the trimmed question
  langcache  semantic cache on Redis LangCache
  qdrant     semantic cache on Qdrant with local embeddings`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.close != nil {
			return app.close()
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagURL, "url", "", "AISHE server base URL (overrides AISHE_API_URL)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-request deadline (overrides AISHE_REQUEST_TIMEOUT)")
	pf.StringVar(&flagCache, "cache", "", "cache backend: none, redis, langcache or qdrant (overrides AISHE_CACHE_BACKEND)")
	pf.StringVar(&flagThreshold, "threshold", "", "semantic similarity: strict, close, loose or 0..1 (overrides AISHE_CACHE_THRESHOLD)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (overrides AISHE_LOG_LEVEL)")
}

// setup loads configuration, applies flag overrides and wires the
// orchestrator.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	tracer, shutdownTracer, err := newTracer(cfg.Trace.Exporter, os.Stderr)
	if err != nil {
		return err
	}

	strategy, closeStrategy, err := config.NewStrategy(commandContext(cmd), cfg)
	if err != nil {
		return fmt.Errorf("cache backend %s: %w", cfg.Cache.Backend, err)
	}

	execCfg := cfg.ExecutorConfig()
	execCfg.Logger = logger
	client := aishe.NewClient(aishe.NewExecutor(execCfg), nil)

	app.cfg = cfg
	app.logger = logger
	app.close = func() error {
		return errors.Join(closeStrategy(), shutdownTracer(context.Background()))
	}
	app.orchestrator = orchestrator.New(orchestrator.Config{
		Remote:   client,
		Strategy: strategy,
		Logger:   logger,
		Tracer:   tracer,
	})

	logger.Debug().
		Str("url", cfg.APIURL).
		Str("cache", app.orchestrator.StrategyName()).
		Dur("timeout", cfg.RequestTimeout).
		Msg("client configured")
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.APIURL = flagURL
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = flagTimeout
	}
	if flags.Changed("cache") {
		cfg.Cache.Backend = flagCache
	}
	if flags.Changed("threshold") {
		cfg.Cache.Threshold = flagThreshold
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
