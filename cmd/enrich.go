package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/api"
	"github.com/flicklab/tmdb-enricher/internal/checkpoint"
	"github.com/flicklab/tmdb-enricher/internal/config"
	"github.com/flicklab/tmdb-enricher/internal/dataset"
	"github.com/flicklab/tmdb-enricher/internal/enricher"
	"github.com/flicklab/tmdb-enricher/internal/progress"
	"github.com/flicklab/tmdb-enricher/internal/progress/sinks"
	"github.com/flicklab/tmdb-enricher/internal/ratelimit"
	"github.com/flicklab/tmdb-enricher/internal/report"
	"github.com/flicklab/tmdb-enricher/internal/tmdb"
)

func newEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Run the enrichment pass over the dataset",
		Long: `Iterates every movie in stable order, fetches TMDB details for rows
with a TMDB mapping, and periodically flushes checkpoint and output table.
Interrupt at any time; re-running resumes from the checkpoint.`,
		RunE: runEnrichCommand,
	}
}

func runEnrichCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	table, err := dataset.Load(cfg.MoviesPath(), cfg.LinksPath())
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	withKey := 0
	for _, row := range table.Rows {
		if row.TMDBID != nil {
			withKey++
		}
	}
	logger.Info("dataset loaded",
		zap.Int("rows", table.Len()),
		zap.Int("with_tmdb_id", withKey))

	client, err := tmdb.New(tmdb.Config{
		APIKey:   cfg.TMDB.APIKey,
		BaseURL:  cfg.TMDB.BaseURL,
		Timeout:  cfg.Timeout(),
		Cooldown: cfg.Cooldown(),
	}, logger)
	if err != nil {
		return fmt.Errorf("init tmdb client: %w", err)
	}

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	statusSink := sinks.NewStatusSink()
	hub := progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger), promSink, statusSink)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("progress hub close failed", zap.Error(err))
		}
	}()

	if cfg.Server.Enabled {
		opsServer := api.NewServer(cfg.Server.Port, registry, statusSink, logger)
		opsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops server shutdown failed", zap.Error(err))
			}
		}()
	}

	driver := enricher.New(
		table,
		client,
		ratelimit.New(cfg.Rate.RequestsPerSecond),
		checkpoint.NewStore(cfg.Run.CheckpointPath, logger),
		enricher.Config{
			CheckpointInterval: cfg.Run.CheckpointInterval,
			OutputPath:         cfg.Run.OutputPath,
		},
		hub,
		logger,
	)

	if err := driver.Run(cmd.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("run interrupted; re-run to resume")
			return nil
		}
		return err
	}

	return printSummary(cfg, table)
}

func printSummary(cfg config.Config, table *dataset.Table) error {
	summary, err := report.Summarize(table, nil)
	if err != nil {
		return fmt.Errorf("summarize run: %w", err)
	}
	report.Render(os.Stdout, summary)
	fmt.Printf("\nOutput saved to: %s\n", cfg.Run.OutputPath)
	return nil
}
