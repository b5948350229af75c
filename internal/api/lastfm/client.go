// Package lastfm is a minimal client for the Last.fm tag endpoints
// (audioscrobbler 2.0). An absent or rejected API key degrades to "no
// tags" rather than an error: Last.fm is a fallback source and the
// pipeline just moves on to the next stage.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"genre-backfill/internal/shared"
)

const (
	defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	defaultTimeout = 15 * time.Second
)

// Config holds configuration for the Last.fm client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Debug   bool
}

// DefaultConfig returns sensible defaults for the Last.fm client
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		Timeout: defaultTimeout,
	}
}

// Client represents a Last.fm API client
type Client struct {
	httpClient *http.Client
	config     Config
	sleep      shared.Sleeper
}

// NewClient creates a new Last.fm client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// SetSleeper overrides the retry sleep function for tests.
func (c *Client) SetSleeper(sleep shared.Sleeper) {
	c.sleep = sleep
}

// Enabled reports whether the client has an API key to work with.
func (c *Client) Enabled() bool {
	return c.config.APIKey != ""
}

type tag struct {
	Name string `json:"name"`
}

type topTags struct {
	Tags []tag `json:"tag"`
}

type albumTagsResponse struct {
	TopTags topTags `json:"toptags"`
	Error   int     `json:"error"`
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_key", c.config.APIKey)
	params.Set("format", "json")

	reqURL := c.config.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, &shared.HTTPError{
				StatusCode: http.StatusGatewayTimeout,
				Status:     "Gateway Timeout",
				Message:    err.Error(),
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    shared.TruncateString(string(body), 200),
		}
	}
	return body, nil
}

func (c *Client) getTags(ctx context.Context, params url.Values) ([]string, error) {
	var body []byte
	err := shared.RetryTransient(shared.MaxTransientRetries, c.sleep, nil, func() error {
		return shared.RetryRateLimited(shared.MaxRateLimitRetries, c.sleep, func() error {
			var callErr error
			body, callErr = c.get(ctx, params)
			return callErr
		})
	})
	if err != nil {
		return nil, err
	}

	var result albumTagsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tag response: %w", err)
	}
	// Last.fm reports missing entities as an error payload with HTTP 200.
	// That is a normal "no tags" outcome.
	if result.Error != 0 {
		shared.DebugPrint(c.config.Debug, "Last.fm returned error code %d", result.Error)
		return nil, nil
	}

	tags := make([]string, 0, len(result.TopTags.Tags))
	for _, t := range result.TopTags.Tags {
		tags = append(tags, t.Name)
	}
	return tags, nil
}

// GetAlbumTags fetches the community top tags for one album. Without an
// API key it returns no tags.
func (c *Client) GetAlbumTags(ctx context.Context, artist, album string) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}
	params := url.Values{}
	params.Set("method", "album.gettoptags")
	params.Set("artist", artist)
	params.Set("album", album)
	params.Set("autocorrect", "1")
	return c.getTags(ctx, params)
}

// GetArtistTopTags fetches the community top tags for one artist. Without
// an API key it returns no tags.
func (c *Client) GetArtistTopTags(ctx context.Context, artist string) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}
	params := url.Values{}
	params.Set("method", "artist.gettoptags")
	params.Set("artist", artist)
	params.Set("autocorrect", "1")
	return c.getTags(ctx, params)
}
