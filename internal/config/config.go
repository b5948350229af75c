package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultPageSize       = 1000
	DefaultReportPath     = "unresolved-report.json"
	DefaultDatabasePath   = "albums.db"
)

// Config is the backfill configuration, loaded from config.json with
// environment-variable overrides on top. Credentials are usually supplied
// through the environment.
type Config struct {
	DatabasePath string `json:"DatabasePath"`
	ReportPath   string `json:"ReportPath"`

	SpotifyClientID      string `json:"SpotifyClientID"`
	SpotifyClientSecret  string `json:"SpotifyClientSecret"`
	LastfmAPIKey         string `json:"LastfmAPIKey"`
	MusicBrainzUserAgent string `json:"MusicBrainzUserAgent"`

	RequestTimeoutSeconds int `json:"RequestTimeoutSeconds"`

	// Run options; flags override these.
	Limit        int    `json:"Limit"`
	DryRun       bool   `json:"DryRun"`
	ArtistFilter string `json:"ArtistFilter"`
	AlbumFilter  string `json:"AlbumFilter"`
}

// RequestTimeout returns the configured per-request timeout.
func (cfg *Config) RequestTimeout() time.Duration {
	if cfg.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

// ApplyDefaults fills in defaults for empty fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = DefaultReportPath
	}
}

// ApplyEnvOverrides lets environment variables override file values.
func (cfg *Config) ApplyEnvOverrides() {
	overrides := map[string]*string{
		"GENRE_BACKFILL_DB":      &cfg.DatabasePath,
		"GENRE_BACKFILL_REPORT":  &cfg.ReportPath,
		"SPOTIFY_CLIENT_ID":      &cfg.SpotifyClientID,
		"SPOTIFY_CLIENT_SECRET":  &cfg.SpotifyClientSecret,
		"LASTFM_API_KEY":         &cfg.LastfmAPIKey,
		"MUSICBRAINZ_USER_AGENT": &cfg.MusicBrainzUserAgent,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("GENRE_BACKFILL_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RequestTimeoutSeconds = secs
		}
	}
}

// Validate checks that required credentials are present. A failure here is
// fatal at startup, before any record is touched.
func (cfg *Config) Validate() error {
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return fmt.Errorf("spotify credentials are required (SpotifyClientID/SpotifyClientSecret or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET)")
	}
	if cfg.MusicBrainzUserAgent == "" {
		return fmt.Errorf("a descriptive MusicBrainz user agent is required (MusicBrainzUserAgent or MUSICBRAINZ_USER_AGENT)")
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// CreateDirIfNotExists creates a directory if it does not exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(filePath)
	if err := CreateDirIfNotExists(dir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
