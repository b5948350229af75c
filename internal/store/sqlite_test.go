package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAlbum(t *testing.T, s *SQLiteStore, a AlbumRecord) {
	t.Helper()
	_, err := s.DB().Exec(
		`INSERT INTO albums (id, title, artist_name, artist_id, spotify_id, genre) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.ArtistName, a.ArtistID, a.SpotifyID, a.Genre)
	if err != nil {
		t.Fatalf("failed to seed album: %v", err)
	}
}

func seedArtist(t *testing.T, s *SQLiteStore, id, name, genres string) {
	t.Helper()
	if _, err := s.DB().Exec(`INSERT INTO artists (id, name, genres) VALUES (?, ?, ?)`, id, name, genres); err != nil {
		t.Fatalf("failed to seed artist: %v", err)
	}
}

func TestListEmptyGenreAlbums(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedAlbum(t, s, AlbumRecord{ID: "1", Title: "Nevermind", ArtistName: "Nirvana"})
	seedAlbum(t, s, AlbumRecord{ID: "2", Title: "In Utero", ArtistName: "Nirvana", Genre: "grunge"})
	seedAlbum(t, s, AlbumRecord{ID: "3", Title: "Bleach", ArtistName: "Nirvana"})

	albums, err := s.ListEmptyGenreAlbums(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListEmptyGenreAlbums: %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("expected 2 unresolved albums, got %d", len(albums))
	}
	if albums[0].ID != "1" || albums[1].ID != "3" {
		t.Errorf("unexpected albums: %+v", albums)
	}
}

func TestListEmptyGenreAlbumsPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedAlbum(t, s, AlbumRecord{ID: "a", Title: "One", ArtistName: "X"})
	seedAlbum(t, s, AlbumRecord{ID: "b", Title: "Two", ArtistName: "X"})
	seedAlbum(t, s, AlbumRecord{ID: "c", Title: "Three", ArtistName: "X"})

	page1, err := s.ListEmptyGenreAlbums(ctx, 0, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	page2, err := s.ListEmptyGenreAlbums(ctx, 2, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page1) != 2 || len(page2) != 1 {
		t.Fatalf("pagination mismatch: %d + %d rows", len(page1), len(page2))
	}
}

func TestUpdateAlbumGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedAlbum(t, s, AlbumRecord{ID: "1", Title: "Nevermind", ArtistName: "Nirvana"})
	if err := s.UpdateAlbumGenre(ctx, "1", "alternative rock, grunge"); err != nil {
		t.Fatalf("UpdateAlbumGenre: %v", err)
	}

	albums, err := s.ListEmptyGenreAlbums(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListEmptyGenreAlbums: %v", err)
	}
	if len(albums) != 0 {
		t.Errorf("resolved album still listed as unresolved: %+v", albums)
	}

	if err := s.UpdateAlbumGenre(ctx, "missing", "rock"); err == nil {
		t.Error("expected error updating nonexistent album")
	}
}

func TestUpdateAlbumSpotifyID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedAlbum(t, s, AlbumRecord{ID: "1", Title: "Nevermind", ArtistName: "Nirvana"})
	if err := s.UpdateAlbumSpotifyID(ctx, "1", "spotify123"); err != nil {
		t.Fatalf("UpdateAlbumSpotifyID: %v", err)
	}

	albums, err := s.ListEmptyGenreAlbums(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListEmptyGenreAlbums: %v", err)
	}
	if len(albums) != 1 || albums[0].SpotifyID != "spotify123" {
		t.Errorf("spotify id not persisted: %+v", albums)
	}
}

func TestListArtistGenres(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedArtist(t, s, "a1", "Nirvana", "grunge, alternative rock")
	seedArtist(t, s, "a2", "Unknown Band", "")

	artists, err := s.ListArtistGenres(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListArtistGenres: %v", err)
	}
	if len(artists) != 1 {
		t.Fatalf("expected 1 artist with genres, got %d", len(artists))
	}
	want := []string{"grunge", "alternative rock"}
	if !reflect.DeepEqual(artists[0].Genres, want) {
		t.Errorf("genres = %v, want %v", artists[0].Genres, want)
	}
}

func TestGetArtistName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedArtist(t, s, "a1", "Nirvana", "")
	name, err := s.GetArtistName(ctx, "a1")
	if err != nil || name != "Nirvana" {
		t.Errorf("GetArtistName = %q, %v", name, err)
	}

	name, err = s.GetArtistName(ctx, "missing")
	if err != nil {
		t.Fatalf("missing artist should not error: %v", err)
	}
	if name != "" {
		t.Errorf("expected empty name for missing artist, got %q", name)
	}
}
