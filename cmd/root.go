// Package cmd defines and implements the CLI commands for the enricher
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/config"
	"github.com/flicklab/tmdb-enricher/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "enricher",
		Short: "Enrich the MovieLens ml-32m dataset with TMDB metadata",
		Long: `enricher augments the MovieLens ml-32m movie table with metadata
fetched from the TMDB API (synopsis, cast, director, budget, keywords and
more), producing a CSV suitable for downstream text generation.

Progress is checkpointed: the run can be interrupted at any time and
resumed by running the same command again.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	root.AddCommand(newEnrichCmd())
	root.AddCommand(newReportCmd())
	return root
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the run context so an
// in-flight enrichment stops between rows and can resume on restart.
// Fatal startup errors exit non-zero before any row processing begins.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap is the shared command setup: configuration then logging.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, logger, nil
}
