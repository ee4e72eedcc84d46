package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// spotifyTestServer stubs the profile and playlist-creation endpoints and
// records every batch of URIs sent to the add-tracks endpoint.
func spotifyTestServer(t *testing.T, addStatus int) (*httptest.Server, *[][]string) {
	t.Helper()

	var batches [][]string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "user1"})
	})
	mux.HandleFunc("POST /users/user1/playlists", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"pl1","name":"Road Trip","external_urls":{"spotify":"https://open.spotify.com/playlist/pl1"}}`)
	})
	mux.HandleFunc("POST /playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode add body: %v", err)
		}
		batches = append(batches, body.URIs)
		if addStatus != http.StatusCreated {
			w.WriteHeader(addStatus)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &batches
}

func newTestSpotifyExporter(t *testing.T, serverURL string) *SpotifyExporter {
	t.Helper()

	e := NewSpotifyExporter(newTestTokenManager(t, ""), nil, nil)
	e.baseURL = serverURL
	e.sleep = func(context.Context, time.Duration) error { return nil }
	return e
}

func TestSpotifyExport(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path batches both tracks in one call", func(t *testing.T) {
		server, batches := spotifyTestServer(t, http.StatusCreated)
		e := newTestSpotifyExporter(t, server.URL)

		playlist := &models.Playlist{
			Name: "Road Trip",
			Songs: []models.Song{
				{Title: "First", Artists: "A", SpotifyID: "abc"},
				{Title: "Second", Artists: "B", SpotifyID: "def"},
			},
		}

		result, err := e.Export(ctx, playlist, spotifyAccount())
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		if result.ExportedTracks != 2 || result.FailedTracks != 0 {
			t.Errorf("counts = %d/%d, want 2/0", result.ExportedTracks, result.FailedTracks)
		}
		if result.PlaylistID != "pl1" {
			t.Errorf("PlaylistID = %q, want pl1", result.PlaylistID)
		}
		if result.PlaylistURL != "https://open.spotify.com/playlist/pl1" {
			t.Errorf("PlaylistURL = %q", result.PlaylistURL)
		}

		if len(*batches) != 1 {
			t.Fatalf("add called %d times, want 1", len(*batches))
		}
		want := []string{"spotify:track:abc", "spotify:track:def"}
		for i, uri := range want {
			if (*batches)[0][i] != uri {
				t.Errorf("uri[%d] = %q, want %q", i, (*batches)[0][i], uri)
			}
		}
	})

	t.Run("songs without a spotify id fail with no add call", func(t *testing.T) {
		server, batches := spotifyTestServer(t, http.StatusCreated)
		e := newTestSpotifyExporter(t, server.URL)

		playlist := &models.Playlist{
			Name: "Mixed",
			Songs: []models.Song{
				{Title: "Known", Artists: "A", SpotifyID: "abc"},
				{Title: "Unknown", Artists: "B"},
			},
		}

		result, err := e.Export(ctx, playlist, spotifyAccount())
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if result.ExportedTracks != 1 || result.FailedTracks != 1 {
			t.Errorf("counts = %d/%d, want 1/1", result.ExportedTracks, result.FailedTracks)
		}
		if len(*batches) != 1 || len((*batches)[0]) != 1 {
			t.Errorf("batches = %v, want one batch of one uri", *batches)
		}
	})

	t.Run("long playlists split into batches of 100", func(t *testing.T) {
		server, batches := spotifyTestServer(t, http.StatusCreated)
		e := newTestSpotifyExporter(t, server.URL)

		playlist := &models.Playlist{Name: "Marathon"}
		for i := 0; i < 150; i++ {
			playlist.Songs = append(playlist.Songs, models.Song{
				Title: fmt.Sprintf("Track %d", i), Artists: "A", SpotifyID: fmt.Sprintf("id%d", i),
			})
		}

		result, err := e.Export(ctx, playlist, spotifyAccount())
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if result.ExportedTracks != 150 || result.FailedTracks != 0 {
			t.Errorf("counts = %d/%d, want 150/0", result.ExportedTracks, result.FailedTracks)
		}
		if len(*batches) != 2 {
			t.Fatalf("add called %d times, want 2", len(*batches))
		}
		if len((*batches)[0]) != 100 || len((*batches)[1]) != 50 {
			t.Errorf("batch sizes = %d/%d, want 100/50", len((*batches)[0]), len((*batches)[1]))
		}
	})

	t.Run("failing batch is retried then counted failed", func(t *testing.T) {
		server, batches := spotifyTestServer(t, http.StatusBadGateway)
		e := newTestSpotifyExporter(t, server.URL)

		sleeps := 0
		e.sleep = func(context.Context, time.Duration) error { sleeps++; return nil }

		playlist := &models.Playlist{
			Name:  "Doomed",
			Songs: []models.Song{{Title: "T", Artists: "A", SpotifyID: "abc"}},
		}

		result, err := e.Export(ctx, playlist, spotifyAccount())
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if result.ExportedTracks != 0 || result.FailedTracks != 1 {
			t.Errorf("counts = %d/%d, want 0/1", result.ExportedTracks, result.FailedTracks)
		}
		if len(*batches) != maxAddAttempts {
			t.Errorf("add called %d times, want %d", len(*batches), maxAddAttempts)
		}
		if sleeps != maxAddAttempts-1 {
			t.Errorf("slept %d times, want %d", sleeps, maxAddAttempts-1)
		}
	})

	t.Run("not connected fails before any call", func(t *testing.T) {
		server, batches := spotifyTestServer(t, http.StatusCreated)
		e := newTestSpotifyExporter(t, server.URL)

		_, err := e.Export(ctx, &models.Playlist{Name: "X"}, &models.Account{Platform: models.PlatformSpotify})
		if !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if len(*batches) != 0 {
			t.Errorf("add called %d times, want 0", len(*batches))
		}
	})

	t.Run("playlist creation failure aborts the export", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"id": "user1"})
		})
		mux.HandleFunc("POST /users/user1/playlists", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"status":403,"message":"Insufficient scope"}}`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		e := newTestSpotifyExporter(t, server.URL)

		_, err := e.Export(ctx, &models.Playlist{
			Name:  "X",
			Songs: []models.Song{{SpotifyID: "abc"}},
		}, spotifyAccount())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
