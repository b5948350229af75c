package musicbrainz

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:   server.URL + "/ws/2/",
		UserAgent: "genre-backfill-test/1.0 ( test@example.com )",
		Timeout:   5 * time.Second,
	})
	client.SetRateLimit(time.Millisecond)
	client.SetSleeper(func(time.Duration) {})
	return client
}

func TestSearchArtists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "genre-backfill-test/1.0 ( test@example.com )" {
			t.Errorf("missing descriptive User-Agent, got %q", ua)
		}
		fmt.Fprint(w, `{"artists":[{"id":"mb1","name":"Nirvana","score":100},{"id":"mb2","name":"Nirvana UK","score":62}]}`)
	})

	candidates, err := client.SearchArtists(context.Background(), "Nirvana")
	if err != nil {
		t.Fatalf("SearchArtists: %v", err)
	}
	if len(candidates) != 2 || candidates[0].ID != "mb1" || candidates[0].Score != 100 {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestGetArtistFlattensGenresAndTags(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"mb1","name":"Nirvana","genres":[{"name":"grunge","count":10}],"tags":[{"name":"rock","count":5},{"name":"seen live","count":3}]}`)
	})

	detail, err := client.GetArtist(context.Background(), "mb1")
	if err != nil {
		t.Fatalf("GetArtist: %v", err)
	}
	want := []string{"grunge", "rock", "seen live"}
	if !reflect.DeepEqual(detail.TagNames(), want) {
		t.Errorf("TagNames() = %v, want %v", detail.TagNames(), want)
	}
}

func TestGetArtistNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	detail, err := client.GetArtist(context.Background(), "missing")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if detail != nil {
		t.Errorf("expected nil detail, got %+v", detail)
	}
}

func TestRequestSpacingEnforced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists":[]}`)
	})
	client.SetRateLimit(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.SearchArtists(context.Background(), "x"); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	// First request is immediate, the next two each wait out the spacing.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("3 requests finished in %v, spacing not enforced", elapsed)
	}
}

func TestTransientErrorsRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"artists":[{"id":"mb1","name":"Nirvana","score":100}]}`)
	})

	candidates, err := client.SearchArtists(context.Background(), "Nirvana")
	if err != nil {
		t.Fatalf("SearchArtists: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(candidates) != 1 {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}
