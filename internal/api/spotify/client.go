// Package spotify is a rate-limit-aware client for the Spotify Web API
// using the client-credentials flow. The client owns its token cache:
// tokens are reused until shortly before expiry and dropped on a 401, with
// a single silent re-authentication before the call is surfaced as failed.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"genre-backfill/internal/shared"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1/"
	defaultTimeout = 15 * time.Second

	// Refresh the token this long before the provider-reported expiry.
	tokenExpiryLeeway = 10 * time.Second
)

// Config holds configuration for the Spotify Web API client
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	Debug        bool
}

// DefaultConfig returns sensible defaults for the Spotify Web API client
func DefaultConfig(clientID, clientSecret string) Config {
	return Config{
		BaseURL:      defaultBaseURL,
		TokenURL:     spotifyauth.TokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Timeout:      defaultTimeout,
	}
}

// Client represents a Spotify Web API client
type Client struct {
	httpClient *http.Client
	config     Config
	sleep      shared.Sleeper

	token       string
	tokenExpiry time.Time
}

// NewClient creates a new Spotify Web API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.TokenURL == "" {
		config.TokenURL = spotifyauth.TokenURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// SetSleeper overrides the retry sleep function. Used by tests to avoid
// waiting out real backoff delays.
func (c *Client) SetSleeper(sleep shared.Sleeper) {
	c.sleep = sleep
}

// Authenticate fetches an initial token. A failure here means the
// credentials are unusable and the whole run should abort.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.getToken(ctx)
	return err
}

// getToken returns the cached token, refreshing it when it is within the
// expiry leeway.
func (c *Client) getToken(ctx context.Context) (string, error) {
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpiryLeeway)) {
		return c.token, nil
	}

	conf := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     c.config.TokenURL,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("spotify authentication failed: %w", err)
	}

	shared.DebugPrint(c.config.Debug, "Spotify token refreshed, expires %s", token.Expiry.Format(time.RFC3339))
	c.token = token.AccessToken
	c.tokenExpiry = token.Expiry
	return c.token, nil
}

// invalidateToken drops the cached token after a 401.
func (c *Client) invalidateToken() {
	c.token = ""
	c.tokenExpiry = time.Time{}
}

// get makes a single GET request against the Web API
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	reqURL, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if len(params) > 0 {
		reqURL.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts count against the transient budget, not the
		// rate-limit budget.
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
		httpErr := &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    shared.TruncateString(string(body), 200),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
				httpErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, httpErr
	}

	return body, nil
}

// getWithRetry layers the three retry budgets over a single GET: one
// silent re-authentication on 401, up to 5 retries on 429 honoring the
// retry-after hint, and up to 3 attempts on transient failures.
func (c *Client) getWithRetry(ctx context.Context, path string, params url.Values) ([]byte, error) {
	var body []byte
	reauthed := false

	call := func() error {
		var err error
		body, err = c.get(ctx, path, params)
		if err != nil && shared.IsAuthExpired(err) && !reauthed {
			reauthed = true
			shared.DebugPrint(c.config.Debug, "Spotify token expired, re-authenticating once")
			c.invalidateToken()
			body, err = c.get(ctx, path, params)
		}
		return err
	}

	err := shared.RetryTransient(shared.MaxTransientRetries, c.sleep, nil, func() error {
		return shared.RetryRateLimited(shared.MaxRateLimitRetries, c.sleep, call)
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// SearchAlbums runs an album search and returns the simplified album hits.
func (c *Client) SearchAlbums(ctx context.Context, query string) ([]Album, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "album")
	params.Set("limit", "10")

	body, err := c.getWithRetry(ctx, "search", params)
	if err != nil {
		return nil, fmt.Errorf("album search failed: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal album search response: %w", err)
	}
	return result.Albums.Items, nil
}

// SearchArtists runs an artist search.
func (c *Client) SearchArtists(ctx context.Context, query string) ([]Artist, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", "10")

	body, err := c.getWithRetry(ctx, "search", params)
	if err != nil {
		return nil, fmt.Errorf("artist search failed: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artist search response: %w", err)
	}
	return result.Artists.Items, nil
}

// GetAlbum fetches a full album object by catalog ID. Returns nil (not an
// error) when the album does not exist.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	body, err := c.getWithRetry(ctx, "albums/"+url.PathEscape(id), nil)
	if err != nil {
		if httpErr, ok := shared.AsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get album %s: %w", id, err)
	}

	var album Album
	if err := json.Unmarshal(body, &album); err != nil {
		return nil, fmt.Errorf("failed to unmarshal album %s: %w", id, err)
	}
	return &album, nil
}

// GetArtist fetches a full artist object by ID. Returns nil when the
// artist does not exist.
func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	body, err := c.getWithRetry(ctx, "artists/"+url.PathEscape(id), nil)
	if err != nil {
		if httpErr, ok := shared.AsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artist %s: %w", id, err)
	}

	var artist Artist
	if err := json.Unmarshal(body, &artist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artist %s: %w", id, err)
	}
	return &artist, nil
}
