package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"genre-backfill/internal/api/lastfm"
	"genre-backfill/internal/api/musicbrainz"
	"genre-backfill/internal/api/spotify"
	"genre-backfill/internal/backfill"
	"genre-backfill/internal/config"
	"genre-backfill/internal/resolver"
	"genre-backfill/internal/shared"
	"genre-backfill/internal/store"
)

const toolVersion = "1.0.0"

var (
	configFile   string
	databasePath string
	reportPath   string
	limit        int
	dryRun       bool
	artistFilter string
	albumFilter  string
	debug        bool
	configInit   bool
)

var rootCmd = &cobra.Command{
	Use:     "genre-backfill",
	Version: toolVersion,
	Short:   "Backfill missing album genres from Spotify, Last.fm, and MusicBrainz.",
	Long: fmt.Sprintf(`Genre Backfill (v%s)

Resolves missing genres for a local album library by walking a fallback
chain of sources per album:
- Already-known genres of the album's artist (no network).
- Spotify album and artist lookups (resolving a catalog ID first if needed).
- Last.fm album and artist tags.
- MusicBrainz community genre and tag votes.

Resolved genres are written back to the library database; everything that
stays unresolved ends up in a JSON report.`, toolVersion),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug = debug || shared.IsDebugMode()
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Resolve genres for every album that has none.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, session, st := initSession()
		defer st.Close()

		// Config file supplies run options; flags win when set.
		opts := backfill.Options{
			Limit:        cfg.Limit,
			DryRun:       cfg.DryRun,
			ArtistFilter: cfg.ArtistFilter,
			AlbumFilter:  cfg.AlbumFilter,
			ReportPath:   cfg.ReportPath,
			Debug:        debug,
		}
		if cmd.Flags().Changed("limit") {
			opts.Limit = limit
		}
		if cmd.Flags().Changed("dry-run") {
			opts.DryRun = dryRun
		}
		if artistFilter != "" {
			opts.ArtistFilter = artistFilter
		}
		if albumFilter != "" {
			opts.AlbumFilter = albumFilter
		}

		runner := backfill.NewRunner(session, st, opts)
		if _, err := runner.Run(context.Background()); err != nil {
			shared.ColorError.Printf("❌ Backfill failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [album_id]",
	Short: "Resolve the genre for a single album by its library ID.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, session, st := initSession()
		defer st.Close()
		session.DryRun = dryRun
		session.Debug = debug

		ctx := context.Background()
		album, err := st.GetAlbum(ctx, args[0])
		if err != nil {
			shared.ColorError.Printf("❌ Failed to load album: %v\n", err)
			os.Exit(1)
		}
		if album == nil {
			shared.ColorError.Printf("❌ Album %s not found\n", args[0])
			os.Exit(1)
		}

		shared.ColorInfo.Printf("🎵 Resolving genre for %q by %s\n", album.Title, album.ArtistName)
		res, err := session.Resolve(ctx, album)
		if err != nil {
			shared.ColorError.Printf("❌ Resolution failed: %v\n", err)
			os.Exit(1)
		}
		if res.Resolved() {
			shared.ColorSuccess.Printf("✅ Genre: %s (via %s)\n", res.GenreString(), res.Source)
			if res.ResolvedNewID {
				shared.ColorInfo.Printf("   Resolved catalog ID: %s\n", album.SpotifyID)
			}
		} else {
			shared.ColorWarning.Printf("⭐ No genres found (%s)\n", res.FailureReason)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration, or write a starter file with --init.",
	Run: func(cmd *cobra.Command, args []string) {
		if configInit {
			cfg := &config.Config{}
			cfg.ApplyDefaults()
			if err := config.SaveConfig(configFile, cfg); err != nil {
				shared.ColorError.Printf("❌ Failed to save config: %v\n", err)
				os.Exit(1)
			}
			shared.ColorSuccess.Println("✅ Configuration saved to", configFile)
			shared.ColorInfo.Println("   Fill in your Spotify credentials and MusicBrainz user agent before running a backfill.")
			return
		}

		cfg := loadEffectiveConfig()
		shared.ColorInfo.Println("🎵 Effective configuration:")
		fmt.Printf("   DatabasePath:         %s\n", cfg.DatabasePath)
		fmt.Printf("   ReportPath:           %s\n", cfg.ReportPath)
		fmt.Printf("   SpotifyClientID:      %s\n", maskSecret(cfg.SpotifyClientID))
		fmt.Printf("   SpotifyClientSecret:  %s\n", maskSecret(cfg.SpotifyClientSecret))
		fmt.Printf("   LastfmAPIKey:         %s\n", maskSecret(cfg.LastfmAPIKey))
		fmt.Printf("   MusicBrainzUserAgent: %s\n", cfg.MusicBrainzUserAgent)
		fmt.Printf("   RequestTimeout:       %s\n", cfg.RequestTimeout())
		if err := cfg.Validate(); err != nil {
			shared.ColorWarning.Printf("⭐ Configuration is incomplete: %v\n", err)
		}
	},
}

// maskSecret shows just enough of a credential to identify it.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// loadEffectiveConfig loads the config file (when present) and layers
// environment and flag overrides on top.
func loadEffectiveConfig() *config.Config {
	cfg := &config.Config{}
	if _, err := os.Stat(configFile); err == nil {
		if err := config.LoadConfig(configFile, cfg); err != nil {
			shared.ColorError.Printf("❌ Failed to load config from %s: %v\n", configFile, err)
			os.Exit(1)
		}
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnvOverrides()

	// Command-line flags override config file and environment.
	if databasePath != "" {
		cfg.DatabasePath = databasePath
	}
	if reportPath != "" {
		cfg.ReportPath = reportPath
	}
	return cfg
}

// initSession loads configuration, opens the library database, and wires
// the provider clients into a resolution session. Configuration problems
// are fatal; nothing should start half-configured.
func initSession() (*config.Config, *resolver.Session, *store.SQLiteStore) {
	cfg := loadEffectiveConfig()

	if err := cfg.Validate(); err != nil {
		shared.ColorError.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	st, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		shared.ColorError.Printf("❌ Failed to open database %s: %v\n", cfg.DatabasePath, err)
		os.Exit(1)
	}

	spotifyCfg := spotify.DefaultConfig(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	spotifyCfg.Timeout = cfg.RequestTimeout()
	spotifyCfg.Debug = debug
	spotifyClient := spotify.NewClient(spotifyCfg)
	if err := spotifyClient.Authenticate(context.Background()); err != nil {
		shared.ColorError.Printf("❌ Spotify authentication failed: %v\n", err)
		st.Close()
		os.Exit(1)
	}

	lastfmCfg := lastfm.DefaultConfig(cfg.LastfmAPIKey)
	lastfmCfg.Timeout = cfg.RequestTimeout()
	lastfmCfg.Debug = debug
	lastfmClient := lastfm.NewClient(lastfmCfg)
	if !lastfmClient.Enabled() {
		shared.ColorWarning.Println("⭐ No Last.fm API key configured, skipping Last.fm lookups")
	}

	mbClient := musicbrainz.NewClient(musicbrainz.DefaultConfig(cfg.MusicBrainzUserAgent))

	session := resolver.NewSession(spotifyClient, lastfmClient, mbClient, st)
	return cfg, session, st
}

func init() {
	cobra.OnInitialize(shared.InitializeColors)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "Path to the library database")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	backfillCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of albums to process (0 = no limit)")
	backfillCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve genres without writing to the database")
	backfillCmd.Flags().StringVar(&artistFilter, "artist", "", "Only process albums whose artist name contains this")
	backfillCmd.Flags().StringVar(&albumFilter, "album", "", "Only process albums whose title contains this")
	backfillCmd.Flags().StringVar(&reportPath, "report", "", "Path for the unresolved-albums report")

	resolveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve the genre without writing to the database")

	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a starter configuration file")

	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
