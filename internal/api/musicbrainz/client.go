// Package musicbrainz is a client for the MusicBrainz ws/2 API. There is
// no negotiated rate limit, so the client enforces a courtesy spacing of
// at least 1.1s between consecutive requests, and every request carries a
// descriptive User-Agent identifying the caller.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"genre-backfill/internal/shared"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2/"
	defaultTimeout = 30 * time.Second // MusicBrainz can be slow

	// Courtesy spacing between consecutive requests.
	requestSpacing = 1100 * time.Millisecond
)

// Config holds configuration for the MusicBrainz API client
type Config struct {
	BaseURL   string
	UserAgent string // required, e.g. "my-app/1.0 ( contact@example.com )"
	Timeout   time.Duration
	Debug     bool
}

// DefaultConfig returns sensible defaults for the MusicBrainz API client
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   defaultBaseURL,
		UserAgent: userAgent,
		Timeout:   defaultTimeout,
	}
}

// Client represents a MusicBrainz API client
type Client struct {
	httpClient  *http.Client
	config      Config
	rateLimiter *rate.Limiter
	sleep       shared.Sleeper
}

// NewClient creates a new MusicBrainz API client. The user agent is
// mandatory; callers must validate configuration before constructing one.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		config:      config,
		rateLimiter: rate.NewLimiter(rate.Every(requestSpacing), 1),
	}
}

// SetSleeper overrides the retry sleep function for tests.
func (c *Client) SetSleeper(sleep shared.Sleeper) {
	c.sleep = sleep
}

// SetRateLimit adjusts the courtesy spacing. Tests use this to avoid
// waiting out the 1.1s gap.
func (c *Client) SetRateLimit(spacing time.Duration) {
	c.rateLimiter = rate.NewLimiter(rate.Every(spacing), 1)
}

// ArtistCandidate is one hit from an artist search, carrying the
// provider-reported relevance score (0-100).
type ArtistCandidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type artistSearchResponse struct {
	Artists []ArtistCandidate `json:"artists"`
}

// ArtistDetail is a full artist record with its genre and tag lists.
type ArtistDetail struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Genres []NamedItem `json:"genres"`
	Tags   []NamedItem `json:"tags"`
}

// NamedItem is a genre or tag entry with its vote count.
type NamedItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TagNames flattens the artist's genre and tag lists into one raw list,
// genres first.
func (a *ArtistDetail) TagNames() []string {
	names := make([]string, 0, len(a.Genres)+len(a.Tags))
	for _, g := range a.Genres {
		names = append(names, g.Name)
	}
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}

// get makes a single GET request to the MusicBrainz API
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
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

	if resp.StatusCode != http.StatusOK {
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    shared.TruncateString(string(body), 200),
		}
	}
	return body, nil
}

// getWithRetry wraps get with the bounded retry budgets.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := shared.RetryTransient(shared.MaxTransientRetries, c.sleep, nil, func() error {
		return shared.RetryRateLimited(shared.MaxRateLimitRetries, c.sleep, func() error {
			var callErr error
			body, callErr = c.get(ctx, path)
			return callErr
		})
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// SearchArtists searches artists by name using a Lucene query.
func (c *Client) SearchArtists(ctx context.Context, name string) ([]ArtistCandidate, error) {
	query := fmt.Sprintf("artist:%q", name)
	path := fmt.Sprintf("artist?query=%s&limit=10&fmt=json", url.QueryEscape(query))

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("artist search failed: %w", err)
	}

	var result artistSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artist search result: %w", err)
	}
	return result.Artists, nil
}

// GetArtist fetches an artist's genre and tag lists by MBID. Returns nil
// when the artist does not exist.
func (c *Client) GetArtist(ctx context.Context, mbid string) (*ArtistDetail, error) {
	path := fmt.Sprintf("artist/%s?inc=genres+tags&fmt=json", url.PathEscape(mbid))

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		if httpErr, ok := shared.AsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artist %s: %w", mbid, err)
	}

	var detail ArtistDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artist %s: %w", mbid, err)
	}
	return &detail, nil
}
