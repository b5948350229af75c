package config

import (
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DatabasePath:         "albums.db",
		SpotifyClientID:      "id",
		SpotifyClientSecret:  "secret",
		MusicBrainzUserAgent: "genre-backfill/1.0 ( admin@example.com )",
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	missing := validConfig()
	missing.SpotifyClientSecret = ""
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing spotify credentials")
	}

	noUA := validConfig()
	noUA.MusicBrainzUserAgent = ""
	if err := noUA.Validate(); err == nil {
		t.Error("expected error for missing MusicBrainz user agent")
	}
}

func TestRequestTimeout(t *testing.T) {
	cfg := &Config{}
	if got := cfg.RequestTimeout(); got != DefaultRequestTimeout {
		t.Errorf("default timeout = %v, want %v", got, DefaultRequestTimeout)
	}
	cfg.RequestTimeoutSeconds = 30
	if got := cfg.RequestTimeout(); got != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", got)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := validConfig()
	cfg.LastfmAPIKey = "lfm-key"
	cfg.Limit = 100

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded := &Config{}
	if err := LoadConfig(path, loaded); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.LastfmAPIKey != "lfm-key" || loaded.Limit != 100 {
		t.Errorf("round trip lost data: %+v", loaded)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("GENRE_BACKFILL_TIMEOUT_SECONDS", "45")

	cfg := validConfig()
	cfg.ApplyEnvOverrides()
	if cfg.SpotifyClientID != "env-id" {
		t.Errorf("env override not applied: %q", cfg.SpotifyClientID)
	}
	if cfg.RequestTimeout() != 45*time.Second {
		t.Errorf("timeout override not applied: %v", cfg.RequestTimeout())
	}
}
