package xtream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/strix/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	defaultBackoff = 1 * time.Second
	userAgent      = "Strix/1.0"
)

// Client talks to an Xtream-Codes panel via player_api.php.
// Implements domain.CatalogClient.
type Client struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	logger     *slog.Logger

	retries int
	backoff time.Duration // first retry delay, doubled per attempt
}

// Option tweaks client behavior; used by tests to shrink backoff.
type Option func(*Client)

// WithBackoff overrides the initial retry delay.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient validates the profile and builds a client for its backend.
// Fails fast with domain.ErrProfileIncomplete when url, username, or
// password are missing.
func NewClient(profile domain.Profile, logger *slog.Logger, opts ...Option) (*Client, error) {
	if !profile.IsComplete() {
		return nil, domain.ErrProfileIncomplete
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    normalizeBaseURL(profile.URL),
		username:   profile.Username,
		password:   profile.Password,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		retries:    defaultRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// normalizeBaseURL defaults bare hosts to http and trims trailing slashes.
func normalizeBaseURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// apiURL builds a player_api.php request URL for an action.
func (c *Client) apiURL(action string, extra url.Values) string {
	q := url.Values{}
	q.Set("username", c.username)
	q.Set("password", c.password)
	q.Set("action", action)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/player_api.php?%s", c.baseURL, q.Encode())
}

// fetch performs one action with retries: up to c.retries attempts with
// exponential backoff on network errors and non-2xx responses, surfacing the
// final error once exhausted.
func (c *Client) fetch(ctx context.Context, action string, extra url.Values) ([]byte, error) {
	reqURL := c.apiURL(action, extra)

	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		body, err := c.doOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.logger.Warn("xtream request failed", "action", action, "attempt", attempt+1, "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{Message: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.APIError{
			Message:    "HTTP error " + resp.Status,
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}

// decodeList validates that body is a JSON array and unmarshals it.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &domain.APIError{Message: "invalid response format: expected array"}
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &domain.APIError{Message: "failed to parse response: " + err.Error()}
	}
	return out, nil
}

// GetLiveStreams fetches and maps all live channels.
func (c *Client) GetLiveStreams(ctx context.Context) ([]*domain.LiveStream, error) {
	body, err := c.fetch(ctx, "get_live_streams", nil)
	if err != nil {
		return nil, err
	}
	raws, err := decodeList[rawLiveStream](body)
	if err != nil {
		return nil, err
	}
	streams := make([]*domain.LiveStream, 0, len(raws))
	for _, r := range raws {
		streams = append(streams, mapLiveStream(r))
	}
	c.logger.Debug("fetched live streams", "count", len(streams))
	return streams, nil
}

// GetMovies fetches and maps all VOD items.
func (c *Client) GetMovies(ctx context.Context) ([]*domain.Movie, error) {
	body, err := c.fetch(ctx, "get_vod_streams", nil)
	if err != nil {
		return nil, err
	}
	raws, err := decodeList[rawMovie](body)
	if err != nil {
		return nil, err
	}
	movies := make([]*domain.Movie, 0, len(raws))
	for _, r := range raws {
		movies = append(movies, mapMovie(r))
	}
	c.logger.Debug("fetched movies", "count", len(movies))
	return movies, nil
}

// GetSeries fetches and maps all series containers.
func (c *Client) GetSeries(ctx context.Context) ([]*domain.Series, error) {
	body, err := c.fetch(ctx, "get_series", nil)
	if err != nil {
		return nil, err
	}
	raws, err := decodeList[rawSeries](body)
	if err != nil {
		return nil, err
	}
	series := make([]*domain.Series, 0, len(raws))
	for _, r := range raws {
		series = append(series, mapSeries(r))
	}
	c.logger.Debug("fetched series", "count", len(series))
	return series, nil
}

// GetSeriesInfo fetches the detail view of one series, episodes included.
func (c *Client) GetSeriesInfo(ctx context.Context, seriesID string) (*domain.SeriesInfo, error) {
	extra := url.Values{}
	extra.Set("series_id", seriesID)
	body, err := c.fetch(ctx, "get_series_info", extra)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &domain.APIError{Message: "invalid response format: expected object"}
	}
	var raw rawSeriesInfo
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.APIError{Message: "failed to parse response: " + err.Error()}
	}
	return mapSeriesInfo(seriesID, raw), nil
}

func (c *Client) GetLiveCategories(ctx context.Context) ([]domain.Category, error) {
	return c.getCategories(ctx, "get_live_categories")
}

func (c *Client) GetVodCategories(ctx context.Context) ([]domain.Category, error) {
	return c.getCategories(ctx, "get_vod_categories")
}

func (c *Client) GetSeriesCategories(ctx context.Context) ([]domain.Category, error) {
	return c.getCategories(ctx, "get_series_categories")
}

func (c *Client) getCategories(ctx context.Context, action string) ([]domain.Category, error) {
	body, err := c.fetch(ctx, action, nil)
	if err != nil {
		return nil, err
	}
	raws, err := decodeList[rawCategory](body)
	if err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(raws))
	for _, r := range raws {
		cats = append(cats, mapCategory(r))
	}
	return cats, nil
}
