package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS albums (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	artist_name TEXT NOT NULL DEFAULT '',
	artist_id   TEXT NOT NULL DEFAULT '',
	spotify_id  TEXT NOT NULL DEFAULT '',
	genre       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS artists (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	genres TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_albums_genre ON albums(genre);
`

// SQLiteStore implements RecordStore on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed bootstraps) the album database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for seeding in tests and tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) ListEmptyGenreAlbums(ctx context.Context, offset, limit int) ([]AlbumRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist_name, artist_id, spotify_id, genre
		 FROM albums WHERE genre = '' ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []AlbumRecord
	for rows.Next() {
		var a AlbumRecord
		if err := rows.Scan(&a.ID, &a.Title, &a.ArtistName, &a.ArtistID, &a.SpotifyID, &a.Genre); err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// GetAlbum fetches one album by its local ID. Returns nil when the album
// does not exist.
func (s *SQLiteStore) GetAlbum(ctx context.Context, id string) (*AlbumRecord, error) {
	var a AlbumRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, artist_name, artist_id, spotify_id, genre
		 FROM albums WHERE id = ?`, id).
		Scan(&a.ID, &a.Title, &a.ArtistName, &a.ArtistID, &a.SpotifyID, &a.Genre)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album %s: %w", id, err)
	}
	return &a, nil
}

func (s *SQLiteStore) UpdateAlbumGenre(ctx context.Context, id, genre string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE albums SET genre = ? WHERE id = ?`, genre, id)
	if err != nil {
		return fmt.Errorf("failed to update album genre: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("album %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) UpdateAlbumSpotifyID(ctx context.Context, id, spotifyID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE albums SET spotify_id = ? WHERE id = ?`, spotifyID, id)
	if err != nil {
		return fmt.Errorf("failed to update album spotify id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("album %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) ListArtistGenres(ctx context.Context, offset, limit int) ([]ArtistRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, genres FROM artists WHERE genres != '' ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list artist genres: %w", err)
	}
	defer rows.Close()

	var artists []ArtistRecord
	for rows.Next() {
		var a ArtistRecord
		var genres string
		if err := rows.Scan(&a.ID, &a.Name, &genres); err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		a.Genres = splitGenres(genres)
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

func (s *SQLiteStore) GetArtistName(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM artists WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get artist name: %w", err)
	}
	return name, nil
}

// splitGenres parses the comma-joined genres column.
func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
