package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/config"
	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/pipeline"
	"github.com/rocknews/rocktag/internal/store"
	"github.com/rocknews/rocktag/internal/tables"
)

var (
	cfg        *config.Config
	configFile string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:          "rocktag",
		Short:        "rocktag: dictionary-based artist tagging for rock news",
		Long:         "rocktag finds artists and band members from a closed gazetteer in news headlines and descriptions, and emits per-document canonical tags plus a feedback set of confirmed names.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configFile != "" {
				cfg, err = config.LoadFile(configFile)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.rocktag/config.yaml or ./config.yaml)")

	rootCmd.AddCommand(
		tagCmd(),
		matchCmd(),
		dictCmd(),
		runsCmd(),
		feedbackCmd(),
		maskCmd(),
		serveCmd(),
		mcpCmd(),
		graphCmd(),
		pruneCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		if dictionary.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func pipelineConfig() (pipeline.Config, error) {
	policy, err := dictionary.ParseCollisionPolicy(cfg.Dictionary.Collisions)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Dictionary: dictionary.Options{
			Exclusions:       cfg.Dictionary.Exclusions,
			Article:          cfg.Dictionary.Article,
			AliasExceptions:  cfg.Dictionary.AliasExceptions,
			AliasDenylist:    cfg.Dictionary.AliasDenylist,
			KeySubstitutions: config.Map(cfg.Dictionary.KeySubstitutions),
			Collisions:       policy,
		},
		RawSubstitutions: config.Map(cfg.Normalize.RawSubstitutions),
		Workers:          cfg.Resolver.Workers,
	}, nil
}

// loadTables reads the gazetteer tables, the optional keyword table and,
// when newsPath is set, the news corpus.
func loadTables(newsPath string) (pipeline.Tables, error) {
	var (
		t   pipeline.Tables
		err error
	)
	if t.Artists, err = tables.LoadArtists(cfg.Input.Artists); err != nil {
		return t, err
	}
	if t.Members, err = tables.LoadMembers(cfg.Input.Members); err != nil {
		return t, err
	}
	if cfg.Input.Keywords != "" {
		rows, err := tables.LoadKeywords(cfg.Input.Keywords)
		if err != nil {
			return t, err
		}
		t.Keywords = tables.KeywordMap(rows)
	}
	if newsPath != "" {
		if t.News, err = tables.LoadNews(newsPath); err != nil {
			return t, err
		}
	}
	return t, nil
}

func newPipeline(logger *slog.Logger) (*pipeline.Pipeline, error) {
	pc, err := pipelineConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pc, logger), nil
}

// newEngine builds a tagging engine from the configured gazetteer.
func newEngine(logger *slog.Logger) (*pipeline.Engine, error) {
	p, err := newPipeline(logger)
	if err != nil {
		return nil, err
	}
	t, err := loadTables("")
	if err != nil {
		return nil, err
	}
	return p.Prepare(t)
}

func newStore(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	st, err := store.OpenSQLite(ctx, cfg.Output.Database, logger)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
