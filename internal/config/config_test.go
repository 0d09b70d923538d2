package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicklab/tmdb-enricher/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENRICHER_TMDB_API_KEY", "test-key")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, 48.0, cfg.Rate.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Run.CheckpointInterval)
	assert.Equal(t, 10, cfg.TMDB.CooldownSeconds)
	assert.Equal(t, filepath.Join("ml-32m", "movies.csv"), cfg.MoviesPath())
	assert.Equal(t, filepath.Join("ml-32m", "links.csv"), cfg.LinksPath())
	assert.Equal(t, filepath.Join("ml-32m", "movies_enriched_big.csv"), cfg.Run.OutputPath)
	assert.Equal(t, filepath.Join("ml-32m", "enrichment_checkpoint.json"), cfg.Run.CheckpointPath)
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	t.Setenv("ENRICHER_TMDB_API_KEY", "")

	_, err := config.Load("")
	require.ErrorContains(t, err, "tmdb.api_key")
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("ENRICHER_TMDB_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  dir: /data/ml-32m
tmdb:
  api_key: file-key
  cooldown_seconds: 5
rate:
  requests_per_second: 10
run:
  checkpoint_interval: 250
  output_path: /out/enriched.csv
server:
  enabled: true
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.TMDB.APIKey)
	assert.Equal(t, 10.0, cfg.Rate.RequestsPerSecond)
	assert.Equal(t, 250, cfg.Run.CheckpointInterval)
	assert.Equal(t, "/out/enriched.csv", cfg.Run.OutputPath)
	// Checkpoint path still derives from the data dir.
	assert.Equal(t, filepath.Join("/data/ml-32m", "enrichment_checkpoint.json"), cfg.Run.CheckpointPath)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() config.Config {
		return config.Config{
			TMDB: config.TMDBConfig{APIKey: "k", TimeoutSeconds: 10, CooldownSeconds: 10},
			Rate: config.RateConfig{RequestsPerSecond: 48},
			Run:  config.RunConfig{CheckpointInterval: 100},
		}
	}

	require.NoError(t, base().Validate())

	t.Run("ZeroRate", func(t *testing.T) {
		cfg := base()
		cfg.Rate.RequestsPerSecond = 0
		require.Error(t, cfg.Validate())
	})
	t.Run("ZeroInterval", func(t *testing.T) {
		cfg := base()
		cfg.Run.CheckpointInterval = 0
		require.Error(t, cfg.Validate())
	})
	t.Run("ServerWithoutPort", func(t *testing.T) {
		cfg := base()
		cfg.Server.Enabled = true
		require.Error(t, cfg.Validate())
	})
}
