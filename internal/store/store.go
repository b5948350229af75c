// Package store defines the narrow persistence interface the resolution
// pipeline consumes, plus a SQLite-backed implementation. The pipeline only
// needs paginated reads and per-row atomic updates; everything else about
// the web application's schema stays out of scope.
package store

import "context"

// AlbumRecord is a local album row as seen by the backfill. An empty Genre
// means "unresolved".
type AlbumRecord struct {
	ID         string
	Title      string
	ArtistName string
	ArtistID   string // optional reference into the artists table
	SpotifyID  string // optional external catalog ID
	Genre      string // comma-joined normalized genre tags
}

// ArtistRecord caches previously resolved artist-level genres.
type ArtistRecord struct {
	ID     string
	Name   string
	Genres []string
}

// RecordStore is the persistence surface the pipeline and batch runner use.
type RecordStore interface {
	// ListEmptyGenreAlbums pages through albums whose genre is unresolved.
	ListEmptyGenreAlbums(ctx context.Context, offset, limit int) ([]AlbumRecord, error)

	// UpdateAlbumGenre persists a resolved genre string onto one album.
	UpdateAlbumGenre(ctx context.Context, id, genre string) error

	// UpdateAlbumSpotifyID persists a newly resolved catalog ID.
	UpdateAlbumSpotifyID(ctx context.Context, id, spotifyID string) error

	// ListArtistGenres pages through artists that have cached genres.
	ListArtistGenres(ctx context.Context, offset, limit int) ([]ArtistRecord, error)

	// GetArtistName looks up an artist's display name by ID. Returns an
	// empty string (not an error) when the artist is unknown.
	GetArtistName(ctx context.Context, id string) (string, error)
}
