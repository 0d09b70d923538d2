package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flicklab/tmdb-enricher/internal/dataset"
	"github.com/flicklab/tmdb-enricher/internal/report"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [enriched.csv]",
		Short: "Print coverage statistics for an enriched table",
		Long: `Computes per-field coverage over a previously enriched table and
prints sample rows. With no argument the table location comes from the
configured output path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReportCommand,
	}
}

func runReportCommand(_ *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		// No explicit table: resolve it from configuration.
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck // best-effort flush
		path = cfg.Run.OutputPath
	}

	table, err := dataset.ReadEnriched(path)
	if err != nil {
		return fmt.Errorf("load enriched table: %w", err)
	}

	summary, err := report.Summarize(table, nil)
	if err != nil {
		return err
	}
	report.Render(os.Stdout, summary)
	return nil
}
