// Spotify export strategy.
//
// Endpoint shapes follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"mixport/internal/auth"
	"mixport/internal/models"
	"mixport/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// Spotify caps a single add-tracks call at 100 URIs.
	spotifyBatchSize = 100
)

// SpotifyExporter exports playlists to Spotify. Songs carry their Spotify
// track id from the source catalog, so no search resolution is needed; songs
// without one are counted failed without a network call.
type SpotifyExporter struct {
	client  *apiClient
	baseURL string
	sleep   sleepFunc
	logger  *log.Logger
}

func NewSpotifyExporter(tokens *auth.TokenManager, httpClient *http.Client, logger *log.Logger) *SpotifyExporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyExporter{
		client:  newAPIClient(models.PlatformSpotify, schemeBearer, tokens, httpClient, logger),
		baseURL: spotifyBaseURL,
		logger:  logger,
	}
}

func (e *SpotifyExporter) Platform() models.Platform { return models.PlatformSpotify }

func (e *SpotifyExporter) IsConnected(account *models.Account) bool { return isConnected(account) }

type spotifyProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyPlaylist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// Export creates a private Spotify playlist and fills it with the songs'
// track URIs in batches of up to 100 per add call.
func (e *SpotifyExporter) Export(ctx context.Context, playlist *models.Playlist, account *models.Account) (*models.ExportResult, error) {
	if !e.IsConnected(account) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotConnected, models.PlatformSpotify)
	}

	var profile spotifyProfile
	if err := e.client.Get(ctx, account, e.baseURL+"/me", &profile); err != nil {
		return nil, fmt.Errorf("failed to load spotify profile: %w", err)
	}

	created, err := e.createPlaylist(ctx, account, profile.ID, remoteName(playlist))
	if err != nil {
		return nil, err
	}

	result := &models.ExportResult{
		Platform:    models.PlatformSpotify,
		PlaylistID:  created.ID,
		PlaylistURL: created.ExternalURLs.Spotify,
	}

	uris := make([]string, 0, len(playlist.Songs))
	for _, song := range playlist.Songs {
		if song.SpotifyID == "" {
			e.logger.Warn("song has no spotify id", "title", song.Title, "artists", song.Artists)
			result.FailedTracks++
			continue
		}
		uris = append(uris, "spotify:track:"+song.SpotifyID)
	}

	for start := 0; start < len(uris); start += spotifyBatchSize {
		end := min(start+spotifyBatchSize, len(uris))
		batch := uris[start:end]

		err := withBackoff(ctx, e.logger, e.sleep, func() error {
			return e.client.Post(ctx, account, e.baseURL+"/playlists/"+created.ID+"/tracks",
				map[string]any{"uris": batch}, nil)
		})
		if err != nil {
			e.logger.Error("batch add failed", "platform", models.PlatformSpotify,
				"playlist", created.ID, "batch_size", len(batch), "error", err)
			result.FailedTracks += len(batch)
			continue
		}
		result.ExportedTracks += len(batch)
	}

	e.logger.Info("export finished", "platform", models.PlatformSpotify,
		"playlist", created.ID, "exported", result.ExportedTracks, "failed", result.FailedTracks)
	return result, nil
}

func (e *SpotifyExporter) createPlaylist(ctx context.Context, account *models.Account, userID, name string) (*spotifyPlaylist, error) {
	body := map[string]any{
		"name":        name,
		"public":      false,
		"description": "Exported from Mixport",
	}

	var created spotifyPlaylist
	if err := e.client.Post(ctx, account, e.baseURL+"/users/"+userID+"/playlists", body, &created); err != nil {
		return nil, fmt.Errorf("failed to create spotify playlist: %w", err)
	}
	return &created, nil
}
