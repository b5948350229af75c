// Package backfill drives a whole-library genre backfill: it loads every
// album with an empty genre, pre-warms the artist genre cache, runs each
// album through the resolution chain strictly sequentially, and writes a
// JSON report for everything that stayed unresolved.
package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"

	"genre-backfill/internal/normalize"
	"genre-backfill/internal/resolver"
	"genre-backfill/internal/shared"
	"genre-backfill/internal/store"
)

const (
	// Page size for paginated DB reads.
	defaultPageSize = 1000

	// Plain-text progress line cadence when no TTY is attached.
	progressInterval = 25
)

// Options configures one backfill run.
type Options struct {
	Limit        int    // max albums to process, 0 = no limit
	DryRun       bool   // resolve but never write to the store
	ArtistFilter string // only process albums whose artist name contains this
	AlbumFilter  string // only process albums whose title contains this
	ReportPath   string // where the unresolved report is written
	PageSize     int    // DB read page size, defaulted when zero
	Debug        bool
}

// UnresolvedEntry is one report line for an album the chain could not
// resolve, or that errored mid-chain.
type UnresolvedEntry struct {
	Reason     string `json:"reason"`
	AlbumID    string `json:"albumId"`
	Title      string `json:"title"`
	ArtistName string `json:"artistName"`
	SpotifyID  string `json:"spotifyId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Summary holds the run counters.
type Summary struct {
	Total          int
	UpdatedBySrc   map[resolver.Source]int
	ResolvedNewIDs int
	NoGenres       int
	Skipped        int
	Failed         int
	Elapsed        time.Duration
}

// Updated sums the per-source update counters.
func (s *Summary) Updated() int {
	total := 0
	for _, n := range s.UpdatedBySrc {
		total += n
	}
	return total
}

// Runner executes a backfill over one store using one resolution session.
type Runner struct {
	Session *resolver.Session
	Store   store.RecordStore
	Options Options

	unresolved []UnresolvedEntry
}

// NewRunner builds a runner and pushes the run options down into the
// session.
func NewRunner(session *resolver.Session, st store.RecordStore, opts Options) *Runner {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	session.DryRun = opts.DryRun
	session.Debug = opts.Debug
	return &Runner{Session: session, Store: st, Options: opts}
}

// Run executes the whole backfill and returns the summary. Individual
// album failures are recorded and never abort the batch; only a context
// cancellation or a target-loading failure stops the run early.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{UpdatedBySrc: make(map[resolver.Source]int)}

	if err := r.preloadArtistGenres(ctx); err != nil {
		return nil, fmt.Errorf("failed to preload artist genres: %w", err)
	}
	shared.DebugPrint(r.Options.Debug, "preloaded %d artists with known genres", len(r.Session.ArtistGenreCache))

	targets, skipped, err := r.loadTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load backfill targets: %w", err)
	}
	summary.Skipped = skipped
	summary.Total = len(targets)

	if len(targets) == 0 {
		shared.ColorSuccess.Println("✅ No albums with missing genres found")
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	shared.ColorInfo.Printf("🎵 Backfilling genres for %d albums", len(targets))
	if r.Options.DryRun {
		shared.ColorWarning.Print(" (dry run)")
	}
	fmt.Println()

	var bar *pb.ProgressBar
	if shared.IsTTY() {
		bar = pb.New(len(targets))
		bar.SetTemplateString(`{{ string . "prefix" }} {{ bar . }} {{ counters . }} | ETA {{ rtime . "%s" }}`)
		bar.Set("prefix", "Resolving: ")
		bar.Start()
	}

	for i := range targets {
		if err := ctx.Err(); err != nil {
			if bar != nil {
				bar.Finish()
			}
			return summary, err
		}

		album := &targets[i]
		r.processAlbum(ctx, album, summary)

		if bar != nil {
			bar.Increment()
		} else if (i+1)%progressInterval == 0 {
			shared.ColorInfo.Printf("   ... %d/%d albums processed\n", i+1, len(targets))
		}
	}
	if bar != nil {
		bar.Finish()
	}

	summary.Elapsed = time.Since(start)
	r.printSummary(summary)

	if err := r.writeReport(); err != nil {
		shared.ColorWarning.Printf("⭐ Could not write unresolved report: %v\n", err)
	}
	return summary, nil
}

// processAlbum runs one album through the chain and books the outcome.
func (r *Runner) processAlbum(ctx context.Context, album *store.AlbumRecord, summary *Summary) {
	res, err := r.Session.Resolve(ctx, album)
	if err != nil {
		summary.Failed++
		r.unresolved = append(r.unresolved, UnresolvedEntry{
			Reason:     string(resolver.ReasonFetchOrUpdateFailed),
			AlbumID:    album.ID,
			Title:      album.Title,
			ArtistName: album.ArtistName,
			SpotifyID:  album.SpotifyID,
			Error:      err.Error(),
		})
		shared.DebugPrint(r.Options.Debug, "album %s (%q) failed: %v", album.ID, album.Title, err)
		return
	}

	if res.ResolvedNewID {
		summary.ResolvedNewIDs++
	}

	if res.Resolved() {
		summary.UpdatedBySrc[res.Source]++
		shared.DebugPrint(r.Options.Debug, "album %q resolved via %s: %s", album.Title, res.Source, res.GenreString())
		return
	}

	summary.NoGenres++
	r.unresolved = append(r.unresolved, UnresolvedEntry{
		Reason:     string(res.FailureReason),
		AlbumID:    album.ID,
		Title:      album.Title,
		ArtistName: album.ArtistName,
		SpotifyID:  album.SpotifyID,
	})
}

// preloadArtistGenres pages through every artist that already carries
// genres and fills the session cache, so cached artists never trigger a
// network call.
func (r *Runner) preloadArtistGenres(ctx context.Context) error {
	for offset := 0; ; offset += r.Options.PageSize {
		artists, err := r.Store.ListArtistGenres(ctx, offset, r.Options.PageSize)
		if err != nil {
			return err
		}
		for _, artist := range artists {
			if len(artist.Genres) > 0 {
				r.Session.ArtistGenreCache[artist.ID] = artist.Genres
			}
		}
		if len(artists) < r.Options.PageSize {
			return nil
		}
	}
}

// loadTargets pages through every empty-genre album, applies the
// artist/album filters, and honors the run limit. Returns the targets and
// the count of albums the filters skipped.
func (r *Runner) loadTargets(ctx context.Context) ([]store.AlbumRecord, int, error) {
	var targets []store.AlbumRecord
	skipped := 0

	for offset := 0; ; offset += r.Options.PageSize {
		page, err := r.Store.ListEmptyGenreAlbums(ctx, offset, r.Options.PageSize)
		if err != nil {
			return nil, 0, err
		}
		for _, album := range page {
			if !r.matchesFilters(album) {
				skipped++
				continue
			}
			targets = append(targets, album)
			if r.Options.Limit > 0 && len(targets) >= r.Options.Limit {
				return targets, skipped, nil
			}
		}
		if len(page) < r.Options.PageSize {
			return targets, skipped, nil
		}
	}
}

// matchesFilters applies the case- and diacritic-insensitive substring
// filters.
func (r *Runner) matchesFilters(album store.AlbumRecord) bool {
	if f := r.Options.ArtistFilter; f != "" {
		if !strings.Contains(normalize.ForComparison(album.ArtistName), normalize.ForComparison(f)) {
			return false
		}
	}
	if f := r.Options.AlbumFilter; f != "" {
		if !strings.Contains(normalize.ForComparison(album.Title), normalize.ForComparison(f)) {
			return false
		}
	}
	return true
}

// writeReport writes the unresolved entries as a JSON array. An empty run
// still writes an empty array so downstream tooling always finds the file.
func (r *Runner) writeReport() error {
	if r.Options.ReportPath == "" {
		return nil
	}
	entries := r.unresolved
	if entries == nil {
		entries = []UnresolvedEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.Options.ReportPath, data, 0644); err != nil {
		return err
	}
	if len(entries) > 0 {
		shared.ColorInfo.Printf("📋 Unresolved report written to %s (%d entries)\n", r.Options.ReportPath, len(entries))
	}
	return nil
}

// printSummary prints the run counters the way the rest of the CLI talks.
func (r *Runner) printSummary(summary *Summary) {
	fmt.Println()
	shared.ColorSuccess.Printf("✅ Backfill complete in %s\n", summary.Elapsed.Round(time.Second))
	shared.ColorInfo.Printf("   Albums processed:  %d\n", summary.Total)
	shared.ColorInfo.Printf("   Genres updated:    %d\n", summary.Updated())
	for _, src := range resolver.Sources() {
		if n := summary.UpdatedBySrc[src]; n > 0 {
			shared.ColorInfo.Printf("     via %-24s %d\n", src.String()+":", n)
		}
	}
	if summary.ResolvedNewIDs > 0 {
		shared.ColorInfo.Printf("   New catalog IDs:   %d\n", summary.ResolvedNewIDs)
	}
	if summary.Skipped > 0 {
		shared.ColorInfo.Printf("   Skipped (filters): %d\n", summary.Skipped)
	}
	if summary.NoGenres > 0 {
		shared.ColorWarning.Printf("   No genres found:   %d\n", summary.NoGenres)
	}
	if summary.Failed > 0 {
		shared.ColorError.Printf("   Failed:            %d\n", summary.Failed)
	}
}
