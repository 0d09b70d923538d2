// Package enricher implements the enrichment run: a single sequential pass
// over the movie table that fetches TMDB metadata for each row, merges it
// into the output table, and checkpoints progress so an interrupted run
// resumes where it left off.
package enricher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/checkpoint"
	"github.com/flicklab/tmdb-enricher/internal/dataset"
	"github.com/flicklab/tmdb-enricher/internal/progress"
	"github.com/flicklab/tmdb-enricher/internal/tmdb"
)

// Fetcher performs one enrichment lookup. *tmdb.Client satisfies this.
type Fetcher interface {
	MovieDetails(ctx context.Context, tmdbID int64) (tmdb.Result, error)
}

// Governor spaces outbound calls under the provider rate ceiling.
type Governor interface {
	Wait(ctx context.Context) error
}

// Config controls Driver behavior.
type Config struct {
	// CheckpointInterval is the number of rows processed this run between
	// durable flushes of checkpoint and output table.
	CheckpointInterval int
	// OutputPath is where the enriched table is written.
	OutputPath string
}

// Driver iterates the full row set in stable order, skips rows already
// checkpointed, invokes the fetcher under the governor, and periodically
// persists both the checkpoint and the output table. It exclusively owns
// the table; the fetcher and governor never touch it.
type Driver struct {
	table       *dataset.Table
	fetcher     Fetcher
	governor    Governor
	checkpoints *checkpoint.Store
	cfg         Config
	emitter     progress.Emitter
	logger      *zap.Logger
}

// New constructs a Driver.
func New(
	table *dataset.Table,
	fetcher Fetcher,
	governor Governor,
	checkpoints *checkpoint.Store,
	cfg Config,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Driver {
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		table:       table,
		fetcher:     fetcher,
		governor:    governor,
		checkpoints: checkpoints,
		cfg:         cfg,
		emitter:     emitter,
		logger:      logger,
	}
}

// Run executes the enrichment pass. It returns nil on normal completion
// (final output written, checkpoint cleared) and an error when the context
// ends or the final output write fails. Transient per-row failures never
// fail the run; those rows are retried on the next invocation.
func (d *Driver) Run(ctx context.Context) error {
	runID := uuid.New()
	processed := d.resume()
	total := int64(d.table.Len())
	start := time.Now()

	d.logger.Info("enrichment run starting",
		zap.String("run_id", runID.String()),
		zap.Int64("total_rows", total),
		zap.Int("already_processed", len(processed)))
	d.emit(runID, progress.Event{Stage: progress.StageRunStart, Processed: int64(len(processed)), Total: total})

	sinceFlush := 0
	for i := range d.table.Rows {
		if err := ctx.Err(); err != nil {
			return d.interrupt(runID, processed, total, err)
		}
		if processed[i] {
			continue
		}
		marked, err := d.processRow(ctx, runID, i, processed, total)
		if err != nil {
			return d.interrupt(runID, processed, total, err)
		}
		if !marked {
			continue
		}
		sinceFlush++
		if sinceFlush%d.cfg.CheckpointInterval == 0 {
			d.flush(runID, processed, total)
		}
	}

	if err := d.table.Write(d.cfg.OutputPath); err != nil {
		// A lingering checkpoint would falsely signal an incomplete run,
		// so the operator has to see this.
		d.emit(runID, progress.Event{
			Stage: progress.StageRunError, Processed: int64(len(processed)),
			Total: total, Dur: time.Since(start), Note: err.Error(),
		})
		return fmt.Errorf("final output write: %w", err)
	}
	if len(processed) == d.table.Len() {
		// Every row is processed: the checkpoint's absence now signals a
		// complete run.
		if err := d.checkpoints.Clear(); err != nil {
			return fmt.Errorf("clear checkpoint after completion: %w", err)
		}
	} else {
		// Deferred rows remain; keep the checkpoint so the next run
		// retries only those.
		if err := d.checkpoints.Save(d.state(runID, processed)); err != nil {
			return fmt.Errorf("save checkpoint after completion: %w", err)
		}
		d.logger.Info("run finished with deferred rows, re-run to retry",
			zap.Int("deferred", d.table.Len()-len(processed)))
	}
	d.emit(runID, progress.Event{
		Stage: progress.StageRunDone, Processed: int64(len(processed)),
		Total: total, Dur: time.Since(start),
	})
	d.logger.Info("enrichment run complete",
		zap.String("run_id", runID.String()),
		zap.Int("processed", len(processed)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// processRow handles one row and reports whether it was marked processed.
// An error return means the run itself should stop (context ended).
func (d *Driver) processRow(
	ctx context.Context,
	runID uuid.UUID,
	index int,
	processed map[int]bool,
	total int64,
) (bool, error) {
	row := &d.table.Rows[index]
	if row.TMDBID == nil {
		// No mapping to TMDB: terminal, no fetch, no rate-limit cost.
		processed[index] = true
		d.emit(runID, progress.Event{
			Stage: progress.StageRowDone, RowIndex: index,
			Outcome: progress.OutcomeNoKey, Processed: int64(len(processed)), Total: total,
		})
		return true, nil
	}

	if err := d.governor.Wait(ctx); err != nil {
		return false, err
	}
	fetchStart := time.Now()
	result, err := d.fetcher.MovieDetails(ctx, *row.TMDBID)
	dur := time.Since(fetchStart)
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		// Transient: leave the row unprocessed for the next run.
		d.logger.Warn("enrichment lookup failed, deferring row",
			zap.Int("row", index),
			zap.Int64("tmdb_id", *row.TMDBID),
			zap.Error(err))
		d.emit(runID, progress.Event{
			Stage: progress.StageRowDone, RowIndex: index, TMDBID: *row.TMDBID,
			Outcome: progress.OutcomeDeferred, Processed: int64(len(processed)),
			Total: total, Dur: dur, Note: err.Error(),
		})
		return false, nil
	}

	d.table.SetEnrichment(index, result.Enrichment)
	processed[index] = true
	outcome := progress.OutcomeFetched
	if !result.Found {
		outcome = progress.OutcomeAbsent
	}
	d.emit(runID, progress.Event{
		Stage: progress.StageRowDone, RowIndex: index, TMDBID: *row.TMDBID,
		Outcome: outcome, Processed: int64(len(processed)), Total: total, Dur: dur,
	})
	return true, nil
}

// resume loads the checkpoint and, when one exists, the last-flushed output
// table so already-processed rows keep the values they were enriched with.
// The two artifacts are coupled: a checkpoint whose output table is gone or
// inconsistent is discarded and the run starts clean.
func (d *Driver) resume() map[int]bool {
	state := d.checkpoints.Load()
	processed := state.Set()
	if len(processed) == 0 {
		return map[int]bool{}
	}

	flushed, err := dataset.ReadEnriched(d.cfg.OutputPath)
	if err != nil {
		d.logger.Warn("checkpoint present but output table unusable, starting fresh",
			zap.String("output", d.cfg.OutputPath), zap.Error(err))
		return map[int]bool{}
	}
	if flushed.Len() != d.table.Len() || state.OutputRows != flushed.Len() {
		d.logger.Warn("checkpoint and output table disagree, starting fresh",
			zap.Int("table_rows", d.table.Len()),
			zap.Int("flushed_rows", flushed.Len()),
			zap.Int("checkpoint_rows", state.OutputRows))
		return map[int]bool{}
	}
	for i := range d.table.Rows {
		if flushed.Rows[i].MovieID != d.table.Rows[i].MovieID {
			d.logger.Warn("output table row order drifted from input, starting fresh",
				zap.Int("row", i))
			return map[int]bool{}
		}
	}

	for idx := range processed {
		if idx >= 0 && idx < d.table.Len() {
			d.table.SetEnrichment(idx, flushed.Rows[idx].Enrichment)
		}
	}
	d.logger.Info("resuming from checkpoint", zap.Int("already_processed", len(processed)))
	return processed
}

// flush persists the output table first and the checkpoint second, so a
// crash in between leaves a checkpoint that references only rows the
// output already contains. Failures are logged and the run continues in
// memory; the next flush may succeed.
func (d *Driver) flush(runID uuid.UUID, processed map[int]bool, total int64) {
	if err := d.table.Write(d.cfg.OutputPath); err != nil {
		d.logger.Warn("periodic output flush failed, continuing in memory", zap.Error(err))
		return
	}
	if err := d.checkpoints.Save(d.state(runID, processed)); err != nil {
		d.logger.Warn("periodic checkpoint save failed, continuing in memory", zap.Error(err))
		return
	}
	d.emit(runID, progress.Event{
		Stage: progress.StageFlush, Processed: int64(len(processed)), Total: total,
	})
}

func (d *Driver) interrupt(runID uuid.UUID, processed map[int]bool, total int64, cause error) error {
	// Best-effort flush so the interruption loses at most the in-flight row.
	d.flush(runID, processed, total)
	d.emit(runID, progress.Event{
		Stage: progress.StageRunError, Processed: int64(len(processed)),
		Total: total, Note: cause.Error(),
	})
	d.logger.Info("enrichment run interrupted, progress saved",
		zap.Int("processed", len(processed)), zap.Error(cause))
	return fmt.Errorf("enrichment run interrupted: %w", cause)
}

func (d *Driver) state(runID uuid.UUID, processed map[int]bool) checkpoint.State {
	indices := make([]int, 0, len(processed))
	for idx := range processed {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return checkpoint.State{
		RunID:            runID.String(),
		ProcessedIndices: indices,
		OutputRows:       d.table.Len(),
	}
}

func (d *Driver) emit(runID uuid.UUID, evt progress.Event) {
	if d.emitter == nil {
		return
	}
	evt.RunID = progress.UUIDToBytes(runID)
	evt.TS = time.Now().UTC()
	d.emitter.Emit(evt)
}
