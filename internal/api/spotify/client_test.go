package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testServer fakes both the accounts token endpoint and the Web API.
type testServer struct {
	server     *httptest.Server
	tokenCalls int
	apiCalls   int
	apiHandler http.HandlerFunc
}

func newTestServer(t *testing.T, apiHandler http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{apiHandler: apiHandler}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			ts.tokenCalls++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
			return
		}
		ts.apiCalls++
		ts.apiHandler(w, r)
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func newTestClient(t *testing.T, ts *testServer) *Client {
	t.Helper()
	client := NewClient(Config{
		BaseURL:      ts.server.URL + "/v1/",
		TokenURL:     ts.server.URL + "/token",
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	})
	client.SetSleeper(func(time.Duration) {})
	return client
}

func TestTokenCachedAcrossRequests(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists":{"items":[]}}`)
	})
	client := newTestClient(t, ts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.SearchArtists(ctx, "nirvana"); err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
	}
	if ts.tokenCalls != 1 {
		t.Errorf("expected 1 token fetch, got %d", ts.tokenCalls)
	}
	if ts.apiCalls != 3 {
		t.Errorf("expected 3 api calls, got %d", ts.apiCalls)
	}
}

func TestReauthenticatesOnceOn401(t *testing.T) {
	failed := false
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !failed {
			failed = true
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":"art1","name":"Nirvana","genres":["grunge"],"popularity":80}`)
	})
	client := newTestClient(t, ts)

	artist, err := client.GetArtist(context.Background(), "art1")
	if err != nil {
		t.Fatalf("GetArtist: %v", err)
	}
	if artist == nil || artist.Name != "Nirvana" {
		t.Fatalf("unexpected artist: %+v", artist)
	}
	if ts.tokenCalls != 2 {
		t.Errorf("expected 2 token fetches (initial + refresh), got %d", ts.tokenCalls)
	}
}

func TestRateLimitRetriedWithRetryAfter(t *testing.T) {
	throttled := 0
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if throttled < 2 {
			throttled++
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"albums":{"items":[{"id":"al1","name":"Nevermind","artists":[{"id":"a1","name":"Nirvana"}]}]}}`)
	})

	client := newTestClient(t, ts)
	var slept []time.Duration
	client.SetSleeper(func(d time.Duration) { slept = append(slept, d) })

	albums, err := client.SearchAlbums(context.Background(), "nevermind")
	if err != nil {
		t.Fatalf("SearchAlbums: %v", err)
	}
	if len(albums) != 1 || albums[0].ID != "al1" {
		t.Fatalf("unexpected albums: %+v", albums)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(slept))
	}
	for i, d := range slept {
		if d < 2*time.Second || d > 3*time.Second {
			t.Errorf("sleep %d = %v, want between 2s and 3s", i, d)
		}
	}
}

func TestGetAlbumNotFoundIsNotAnError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, ts)

	album, err := client.GetAlbum(context.Background(), "missing")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if album != nil {
		t.Errorf("expected nil album, got %+v", album)
	}
}

func TestAuthenticateFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:      server.URL + "/v1/",
		TokenURL:     server.URL + "/token",
		ClientID:     "bad",
		ClientSecret: "creds",
	})
	if err := client.Authenticate(context.Background()); err == nil {
		t.Fatal("expected authentication error")
	}
}
