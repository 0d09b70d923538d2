// Package checkpoint persists the set of row indices already processed so
// an interrupted enrichment run can resume where it left off.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
)

// State is the durable checkpoint record. Besides the processed-index set
// it carries OutputRows, the output table's row count at the matching
// flush, so resume can detect a checkpoint that has drifted from its
// output artifact.
type State struct {
	RunID            string    `json:"run_id,omitempty"`
	ProcessedIndices []int     `json:"processed_indices"`
	OutputRows       int       `json:"output_rows"`
	SavedAt          time.Time `json:"saved_at"`
}

// Set returns the processed indices as a set.
func (s State) Set() map[int]bool {
	set := make(map[int]bool, len(s.ProcessedIndices))
	for _, idx := range s.ProcessedIndices {
		set[idx] = true
	}
	return set
}

// Store reads and writes the checkpoint artifact at a fixed path.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore builds a Store for path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Load returns the saved checkpoint state. An absent or unreadable
// artifact yields the empty state, never an error: the run simply starts
// from scratch.
func (s *Store) Load() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("checkpoint unreadable, starting fresh",
				zap.String("path", s.path), zap.Error(err))
		}
		return State{}
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("checkpoint corrupt, starting fresh",
			zap.String("path", s.path), zap.Error(err))
		return State{}
	}
	return state
}

// Save replaces the checkpoint artifact with state. The write goes to a
// temporary sibling first and is renamed into place, so a crash mid-save
// leaves either the old or the new artifact, never a torn one.
func (s *Store) Save(state State) error {
	sort.Ints(state.ProcessedIndices)
	state.SavedAt = time.Now().UTC()

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace checkpoint %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the checkpoint artifact. Its absence signals a completed
// run; Clear must only be called after the final output write succeeded.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint %s: %w", s.path, err)
	}
	return nil
}
