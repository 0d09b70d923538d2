// Package config loads and validates enricher configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Rate    RateConfig    `mapstructure:"rate"`
	Run     RunConfig     `mapstructure:"run"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DataConfig locates the MovieLens input tables.
type DataConfig struct {
	Dir        string `mapstructure:"dir"`
	MoviesFile string `mapstructure:"movies_file"`
	LinksFile  string `mapstructure:"links_file"`
}

// TMDBConfig governs the metadata API client.
type TMDBConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CooldownSeconds int    `mapstructure:"cooldown_seconds"`
}

// RateConfig sets the outbound call ceiling.
type RateConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// RunConfig controls checkpointing and output placement.
type RunConfig struct {
	CheckpointInterval int    `mapstructure:"checkpoint_interval"`
	OutputPath         string `mapstructure:"output_path"`
	CheckpointPath     string `mapstructure:"checkpoint_path"`
}

// ServerConfig controls the optional ops HTTP listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyPathDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "ml-32m")
	v.SetDefault("data.movies_file", "movies.csv")
	v.SetDefault("data.links_file", "links.csv")
	// Registered empty so AutomaticEnv can populate it during Unmarshal.
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.timeout_seconds", 10)
	v.SetDefault("tmdb.cooldown_seconds", 10)
	// TMDB allows ~50 req/s; 48 leaves headroom.
	v.SetDefault("rate.requests_per_second", 48)
	v.SetDefault("run.checkpoint_interval", 100)
	v.SetDefault("run.output_path", "")
	v.SetDefault("run.checkpoint_path", "")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// applyPathDefaults derives file locations from data.dir when not set
// explicitly.
func (c *Config) applyPathDefaults() {
	if c.Run.OutputPath == "" {
		c.Run.OutputPath = filepath.Join(c.Data.Dir, "movies_enriched_big.csv")
	}
	if c.Run.CheckpointPath == "" {
		c.Run.CheckpointPath = filepath.Join(c.Data.Dir, "enrichment_checkpoint.json")
	}
}

// Validate enforces required values and reasonable limits. Violations are
// fatal at startup, before any row processing begins.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return fmt.Errorf("tmdb.api_key must be set")
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		return fmt.Errorf("tmdb.timeout_seconds must be > 0")
	}
	if c.TMDB.CooldownSeconds <= 0 {
		return fmt.Errorf("tmdb.cooldown_seconds must be > 0")
	}
	if c.Rate.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate.requests_per_second must be > 0")
	}
	if c.Run.CheckpointInterval <= 0 {
		return fmt.Errorf("run.checkpoint_interval must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// MoviesPath returns the absolute-or-relative path of the movies table.
func (c Config) MoviesPath() string {
	return filepath.Join(c.Data.Dir, c.Data.MoviesFile)
}

// LinksPath returns the path of the links cross-reference table.
func (c Config) LinksPath() string {
	return filepath.Join(c.Data.Dir, c.Data.LinksFile)
}

// Timeout converts the HTTP timeout config into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TMDB.TimeoutSeconds) * time.Second
}

// Cooldown converts the rate-limit cooldown config into a duration.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.TMDB.CooldownSeconds) * time.Second
}
