// Package tmdb implements the enrichment lookup against the TMDB API. One
// call fetches movie details with credits and keywords expanded in the
// same request and normalizes the response into the fixed enrichment
// schema.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/dataset"
)

// Result is the normalized outcome of one lookup. Found is false when TMDB
// confirmed the movie does not exist; the enrichment then carries the
// type-appropriate defaults and the row still counts as processed.
type Result struct {
	Enrichment dataset.Enrichment
	Found      bool
}

// Config controls client behavior.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration
	// Cooldown is the pause before retrying after a 429.
	Cooldown time.Duration
}

// Client queries the TMDB API. It is stateless apart from the underlying
// HTTP client and safe for reuse across calls.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// MovieDetails fetches the movie with credits and keywords expanded. A 404
// yields Found=false with default values and a nil error. A 429 cools down
// and retries the same call until it resolves or the context ends. Any
// other failure is transient: the caller leaves the row unprocessed.
func (c *Client) MovieDetails(ctx context.Context, tmdbID int64) (Result, error) {
	if tmdbID <= 0 {
		return Result{}, fmt.Errorf("movie id must be positive, got %d", tmdbID)
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/movie/%d", c.cfg.BaseURL, tmdbID))
	if err != nil {
		return Result{}, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.cfg.APIKey)
	params.Set("append_to_response", "credits,keywords")
	endpoint.RawQuery = params.Encode()

	for {
		result, retry, err := c.attempt(ctx, endpoint.String(), tmdbID)
		if err != nil {
			return Result{}, err
		}
		if !retry {
			return result, nil
		}
		c.logger.Warn("tmdb rate limit hit, cooling down",
			zap.Int64("tmdb_id", tmdbID),
			zap.Duration("cooldown", c.cfg.Cooldown))
		if err := sleep(ctx, c.cfg.Cooldown); err != nil {
			return Result{}, err
		}
	}
}

func (c *Client) attempt(ctx context.Context, endpoint string, tmdbID int64) (Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, false, fmt.Errorf("execute request for movie %d: %w", tmdbID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload moviePayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Result{}, false, fmt.Errorf("decode movie %d: %w", tmdbID, err)
		}
		return Result{Enrichment: payload.normalize(), Found: true}, false, nil
	case http.StatusNotFound:
		// Confirmed absent upstream: terminal success with defaults.
		return Result{Found: false}, false, nil
	case http.StatusTooManyRequests:
		return Result{}, true, nil
	default:
		return Result{}, false, fmt.Errorf("tmdb returned %d for movie %d", resp.StatusCode, tmdbID)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cooldown interrupted: %w", ctx.Err())
	}
}
