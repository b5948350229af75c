// Package resolver implements the per-album genre resolution pipeline: a
// strict fallback chain over the local artist cache, Spotify, Last.fm, and
// MusicBrainz, stopping at the first source that yields a non-empty genre
// set. A Session owns every per-run cache so concurrent sessions never
// share state.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"genre-backfill/internal/api/musicbrainz"
	"genre-backfill/internal/api/spotify"
	"genre-backfill/internal/match"
	"genre-backfill/internal/normalize"
	"genre-backfill/internal/shared"
	"genre-backfill/internal/store"
)

// SpotifyAPI is the slice of the Spotify client the pipeline consumes.
type SpotifyAPI interface {
	SearchAlbums(ctx context.Context, query string) ([]spotify.Album, error)
	SearchArtists(ctx context.Context, query string) ([]spotify.Artist, error)
	GetAlbum(ctx context.Context, id string) (*spotify.Album, error)
	GetArtist(ctx context.Context, id string) (*spotify.Artist, error)
}

// TagAPI is the slice of the Last.fm client the pipeline consumes.
type TagAPI interface {
	GetAlbumTags(ctx context.Context, artist, album string) ([]string, error)
	GetArtistTopTags(ctx context.Context, artist string) ([]string, error)
}

// CommunityAPI is the slice of the MusicBrainz client the pipeline consumes.
type CommunityAPI interface {
	SearchArtists(ctx context.Context, name string) ([]musicbrainz.ArtistCandidate, error)
	GetArtist(ctx context.Context, mbid string) (*musicbrainz.ArtistDetail, error)
}

// Resolution is the outcome of one album's trip through the chain.
type Resolution struct {
	Genres        []string
	Source        Source
	ResolvedNewID bool
	FailureReason FailureReason
}

// Resolved reports whether the chain reached a terminal success.
func (r *Resolution) Resolved() bool {
	return len(r.Genres) > 0
}

// GenreString renders the genres the way they are persisted.
func (r *Resolution) GenreString() string {
	return normalize.JoinGenres(r.Genres)
}

// Session holds the collaborators and per-run memoization caches for one
// backfill run. It is not safe for concurrent use; the batch runner
// processes albums strictly sequentially.
type Session struct {
	Spotify     SpotifyAPI
	Lastfm      TagAPI
	MusicBrainz CommunityAPI
	Store       store.RecordStore
	Weights     match.Weights
	DryRun      bool
	Debug       bool

	// ArtistGenreCache maps local artist IDs to their already-resolved
	// genres. Pre-loaded by the batch runner before any network call.
	ArtistGenreCache map[string][]string

	lastfmAlbumCache  map[string][]string
	lastfmArtistCache map[string][]string
	mbArtistCache     map[string][]string
}

// NewSession creates a resolution session with empty caches.
func NewSession(sp SpotifyAPI, lfm TagAPI, mb CommunityAPI, st store.RecordStore) *Session {
	return &Session{
		Spotify:           sp,
		Lastfm:            lfm,
		MusicBrainz:       mb,
		Store:             st,
		Weights:           match.DefaultWeights(),
		ArtistGenreCache:  make(map[string][]string),
		lastfmAlbumCache:  make(map[string][]string),
		lastfmArtistCache: make(map[string][]string),
		mbArtistCache:     make(map[string][]string),
	}
}

// Resolve runs the fallback chain for one album. On success the resolved
// genre string (and any newly resolved catalog ID) is persisted unless the
// session is in dry-run mode. Errors abort the remaining stages for this
// album only; the caller records them and moves to the next album.
func (s *Session) Resolve(ctx context.Context, album *store.AlbumRecord) (*Resolution, error) {
	res := &Resolution{Source: SourceNone}

	title := normalize.RepairMojibake(strings.TrimSpace(album.Title))
	artistName := normalize.RepairMojibake(strings.TrimSpace(album.ArtistName))

	// Stage 1: artist cache, no network.
	if album.ArtistID != "" {
		if genres := s.ArtistGenreCache[album.ArtistID]; len(genres) > 0 {
			res.Genres = normalize.Genres(genres)
			res.Source = SourceArtistCache
			return res, s.persistGenres(ctx, album, res)
		}
		if artistName == "" {
			name, err := s.Store.GetArtistName(ctx, album.ArtistID)
			if err != nil {
				return res, fmt.Errorf("artist name lookup failed: %w", err)
			}
			artistName = normalize.RepairMojibake(name)
		}
	}

	// Stage 2: resolve a catalog ID when the record has none.
	if album.SpotifyID == "" {
		candidate, err := s.findSpotifyAlbum(ctx, title, artistName)
		if err != nil {
			return res, err
		}
		if candidate != nil {
			album.SpotifyID = candidate.ID
			res.ResolvedNewID = true
			if !s.DryRun {
				if err := s.Store.UpdateAlbumSpotifyID(ctx, album.ID, candidate.ID); err != nil {
					return res, fmt.Errorf("failed to persist resolved catalog id: %w", err)
				}
			}
			shared.DebugPrint(s.Debug, "resolved catalog id %s for %q", candidate.ID, title)
		}
	}

	// Stage 3: album (then primary artist) genres by catalog ID.
	if album.SpotifyID != "" {
		genres, err := s.spotifyAlbumGenres(ctx, album.SpotifyID)
		if err != nil {
			return res, err
		}
		if len(genres) > 0 {
			res.Genres = genres
			res.Source = SourceSpotifyAlbum
			return res, s.persistGenres(ctx, album, res)
		}
	} else if artistName != "" {
		// Stage 4: no catalog ID could be resolved; search the artist by
		// name and take that artist's genres.
		genres, err := s.spotifyArtistGenresByName(ctx, artistName)
		if err != nil {
			return res, err
		}
		if len(genres) > 0 {
			res.Genres = genres
			res.Source = SourceSpotifyNameSearch
			return res, s.persistGenres(ctx, album, res)
		}
	}

	// Stages 5-6: Last.fm album tags, then artist tags.
	if artistName != "" {
		genres, err := s.lastfmAlbumGenres(ctx, artistName, title)
		if err != nil {
			return res, err
		}
		if len(genres) > 0 {
			res.Genres = genres
			res.Source = SourceLastfmAlbumTags
			return res, s.persistGenres(ctx, album, res)
		}

		genres, err = s.lastfmArtistGenres(ctx, artistName)
		if err != nil {
			return res, err
		}
		if len(genres) > 0 {
			res.Genres = genres
			res.Source = SourceLastfmArtistTags
			return res, s.persistGenres(ctx, album, res)
		}

		// Stage 7: MusicBrainz community tags.
		genres, err = s.musicbrainzArtistGenres(ctx, artistName)
		if err != nil {
			return res, err
		}
		if len(genres) > 0 {
			res.Genres = genres
			res.Source = SourceMusicBrainzArtistTags
			return res, s.persistGenres(ctx, album, res)
		}
	}

	// Stage 8: nothing found anywhere.
	if album.SpotifyID == "" {
		res.FailureReason = ReasonNoSpotifyIDNoExternal
	} else {
		res.FailureReason = ReasonNoGenresFromSources
	}
	return res, nil
}

// persistGenres writes the resolved genre string unless dry-running.
func (s *Session) persistGenres(ctx context.Context, album *store.AlbumRecord, res *Resolution) error {
	if s.DryRun {
		shared.DebugPrint(s.Debug, "dry-run: would set genre %q on album %s (source %s)",
			res.GenreString(), album.ID, res.Source)
		return nil
	}
	if err := s.Store.UpdateAlbumGenre(ctx, album.ID, res.GenreString()); err != nil {
		return fmt.Errorf("failed to persist genre: %w", err)
	}
	album.Genre = res.GenreString()
	return nil
}

// albumQueryVariants builds the search query variants for a title/artist
// pair: with-artist, quoted, plain, and the ASCII-stripped equivalent of
// each, deduplicated in order.
func albumQueryVariants(title, artist string) []string {
	title = normalize.StripFeaturing(title)
	artist = normalize.StripFeaturing(artist)

	var variants []string
	if artist != "" {
		variants = append(variants,
			fmt.Sprintf("album:%q artist:%q", title, artist),
			fmt.Sprintf("%s %s", title, artist),
		)
	}
	variants = append(variants, fmt.Sprintf("album:%q", title), title)

	return withASCIIVariants(variants)
}

// artistQueryVariants builds the artist-only search variants.
func artistQueryVariants(name string) []string {
	name = normalize.StripFeaturing(name)
	return withASCIIVariants([]string{fmt.Sprintf("artist:%q", name), name})
}

// withASCIIVariants appends the diacritic-stripped form of each variant
// and deduplicates, preserving discovery order.
func withASCIIVariants(variants []string) []string {
	seen := make(map[string]bool, len(variants)*2)
	out := make([]string, 0, len(variants)*2)
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q != "" && !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	for _, v := range variants {
		add(v)
	}
	for _, v := range variants {
		add(normalize.RemoveDiacritics(v))
	}
	return out
}

// findSpotifyAlbum searches all query variants, merges candidates by ID in
// discovery order, and picks the best match.
func (s *Session) findSpotifyAlbum(ctx context.Context, title, artist string) (*match.Candidate, error) {
	if title == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var candidates []match.Candidate
	for _, query := range albumQueryVariants(title, artist) {
		albums, err := s.Spotify.SearchAlbums(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("album search for %q failed: %w", query, err)
		}
		for _, a := range albums {
			if a.ID == "" || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			c := match.Candidate{ID: a.ID, Title: a.Name, Popularity: a.Popularity}
			if len(a.Artists) > 0 {
				c.Artist = a.Artists[0].Name
			}
			candidates = append(candidates, c)
		}
	}
	return s.Weights.PickBestAlbum(candidates, title, artist), nil
}

// spotifyAlbumGenres fetches an album's own genres, falling back to the
// first-listed contributing artist's genres.
func (s *Session) spotifyAlbumGenres(ctx context.Context, spotifyID string) ([]string, error) {
	album, err := s.Spotify.GetAlbum(ctx, spotifyID)
	if err != nil {
		return nil, err
	}
	if album == nil {
		return nil, nil
	}
	if genres := normalize.Genres(album.Genres); len(genres) > 0 {
		return genres, nil
	}
	if len(album.Artists) == 0 || album.Artists[0].ID == "" {
		return nil, nil
	}
	artist, err := s.Spotify.GetArtist(ctx, album.Artists[0].ID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, nil
	}
	return normalize.Genres(artist.Genres), nil
}

// spotifyArtistGenresByName searches artists across the name variants and
// returns the best match's genres.
func (s *Session) spotifyArtistGenresByName(ctx context.Context, name string) ([]string, error) {
	seen := make(map[string]bool)
	var candidates []match.Candidate
	for _, query := range artistQueryVariants(name) {
		artists, err := s.Spotify.SearchArtists(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("artist search for %q failed: %w", query, err)
		}
		for _, a := range artists {
			if a.ID == "" || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			candidates = append(candidates, match.Candidate{ID: a.ID, Artist: a.Name, Popularity: a.Popularity})
		}
	}

	best := s.Weights.PickBestArtist(candidates, name)
	if best == nil {
		return nil, nil
	}
	artist, err := s.Spotify.GetArtist(ctx, best.ID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, nil
	}
	return normalize.Genres(artist.Genres), nil
}

// lastfmAlbumGenres looks up album-level tags, memoized by normalized
// artist+title.
func (s *Session) lastfmAlbumGenres(ctx context.Context, artist, title string) ([]string, error) {
	key := normalize.ForComparison(artist) + "|" + normalize.ForComparison(title)
	if cached, ok := s.lastfmAlbumCache[key]; ok {
		return cached, nil
	}
	tags, err := s.Lastfm.GetAlbumTags(ctx, artist, title)
	if err != nil {
		return nil, fmt.Errorf("last.fm album tags failed: %w", err)
	}
	genres := normalize.Genres(tags)
	s.lastfmAlbumCache[key] = genres
	return genres, nil
}

// lastfmArtistGenres looks up artist-level tags, memoized by normalized
// artist name.
func (s *Session) lastfmArtistGenres(ctx context.Context, artist string) ([]string, error) {
	key := normalize.ForComparison(artist)
	if cached, ok := s.lastfmArtistCache[key]; ok {
		return cached, nil
	}
	tags, err := s.Lastfm.GetArtistTopTags(ctx, artist)
	if err != nil {
		return nil, fmt.Errorf("last.fm artist tags failed: %w", err)
	}
	genres := normalize.Genres(tags)
	s.lastfmArtistCache[key] = genres
	return genres, nil
}

// musicbrainzArtistGenres searches MusicBrainz by name (with and without
// diacritics), scores candidates by provider relevance plus name
// similarity, and fetches the best match's genre/tag lists. Memoized by
// normalized artist name.
func (s *Session) musicbrainzArtistGenres(ctx context.Context, name string) ([]string, error) {
	key := normalize.ForComparison(name)
	if cached, ok := s.mbArtistCache[key]; ok {
		return cached, nil
	}

	queries := []string{name}
	if ascii := normalize.RemoveDiacritics(name); ascii != name {
		queries = append(queries, ascii)
	}

	seen := make(map[string]bool)
	var candidates []match.Candidate
	for _, q := range queries {
		hits, err := s.MusicBrainz.SearchArtists(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("musicbrainz artist search failed: %w", err)
		}
		for _, h := range hits {
			if h.ID == "" || seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			// The provider relevance score rides in the popularity slot
			// and nudges the name-similarity ranking.
			candidates = append(candidates, match.Candidate{ID: h.ID, Artist: h.Name, Popularity: h.Score})
		}
	}

	best := s.Weights.PickBestArtist(candidates, name)
	if best == nil {
		s.mbArtistCache[key] = nil
		return nil, nil
	}

	detail, err := s.MusicBrainz.GetArtist(ctx, best.ID)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz artist lookup failed: %w", err)
	}
	var genres []string
	if detail != nil {
		genres = normalize.Genres(detail.TagNames())
	}
	s.mbArtistCache[key] = genres
	return genres, nil
}
