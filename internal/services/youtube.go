// YouTube export strategy, against the YouTube Data API v3.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"mixport/internal/auth"
	"mixport/internal/models"
	"mixport/internal/shared"
)

const (
	youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// Music category; keeps searches from matching lyric compilations and
	// unrelated uploads.
	youtubeMusicCategory = "10"

	youtubeSearchResults = "5"
)

// youtubeAddInterval spaces successive playlistItems inserts to stay under
// the API quota. The limiter lets the first add through immediately and adds
// no delay after the last one.
var youtubeAddInterval = rate.Every(500 * time.Millisecond)

// YouTubeExporter exports playlists to YouTube. Tracks are resolved by a
// single title+artist search in the music category, taking the first hit.
type YouTubeExporter struct {
	client  *apiClient
	baseURL string
	limiter *rate.Limiter
	sleep   sleepFunc
	logger  *log.Logger
}

func NewYouTubeExporter(tokens *auth.TokenManager, httpClient *http.Client, logger *log.Logger) *YouTubeExporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &YouTubeExporter{
		client:  newAPIClient(models.PlatformGoogle, schemeBearer, tokens, httpClient, logger),
		baseURL: youtubeBaseURL,
		limiter: rate.NewLimiter(youtubeAddInterval, 1),
		logger:  logger,
	}
}

func (e *YouTubeExporter) Platform() models.Platform { return models.PlatformGoogle }

func (e *YouTubeExporter) IsConnected(account *models.Account) bool { return isConnected(account) }

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubePlaylistResponse struct {
	ID string `json:"id"`
}

// Export creates a private YouTube playlist and inserts one video per song.
func (e *YouTubeExporter) Export(ctx context.Context, playlist *models.Playlist, account *models.Account) (*models.ExportResult, error) {
	if !e.IsConnected(account) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotConnected, models.PlatformGoogle)
	}

	playlistID, err := e.createPlaylist(ctx, account, remoteName(playlist))
	if err != nil {
		return nil, err
	}

	result := &models.ExportResult{
		Platform:    models.PlatformGoogle,
		PlaylistID:  playlistID,
		PlaylistURL: "https://www.youtube.com/playlist?list=" + playlistID,
	}

	for _, song := range playlist.Songs {
		if song.Title == "" || song.Artists == "" {
			e.logger.Warn("song missing title or artists", "title", song.Title, "artists", song.Artists)
			result.FailedTracks++
			continue
		}

		videoID, err := e.searchVideo(ctx, account, song.Title, song.Artists)
		if err != nil || videoID == "" {
			e.logger.Warn("no video found", "title", song.Title, "artists", song.Artists, "error", err)
			result.FailedTracks++
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		err = withBackoff(ctx, e.logger, e.sleep, func() error {
			return e.addVideo(ctx, account, playlistID, videoID)
		})
		if err != nil {
			e.logger.Error("failed to add video", "playlist", playlistID, "video", videoID,
				"title", song.Title, "error", err)
			result.FailedTracks++
			continue
		}
		result.ExportedTracks++
	}

	e.logger.Info("export finished", "platform", models.PlatformGoogle,
		"playlist", playlistID, "exported", result.ExportedTracks, "failed", result.FailedTracks)
	return result, nil
}

func (e *YouTubeExporter) createPlaylist(ctx context.Context, account *models.Account, name string) (string, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"title":       name,
			"description": "Exported from Mixport",
		},
		"status": map[string]any{"privacyStatus": "private"},
	}

	var created youtubePlaylistResponse
	err := e.client.Post(ctx, account, e.baseURL+"/playlists?part=snippet,status", body, &created)
	if err != nil {
		return "", fmt.Errorf("failed to create youtube playlist: %w", err)
	}
	return created.ID, nil
}

// searchVideo returns the first music-category hit for "title artists", or ""
// when the search comes back empty.
func (e *YouTubeExporter) searchVideo(ctx context.Context, account *models.Account, title, artists string) (string, error) {
	params := url.Values{}
	params.Set("part", "id")
	params.Set("q", title+" "+artists)
	params.Set("type", "video")
	params.Set("videoCategoryId", youtubeMusicCategory)
	params.Set("maxResults", youtubeSearchResults)

	var resp youtubeSearchResponse
	if err := e.client.Get(ctx, account, e.baseURL+"/search?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].ID.VideoID, nil
}

func (e *YouTubeExporter) addVideo(ctx context.Context, account *models.Account, playlistID, videoID string) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]any{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}
	return e.client.Post(ctx, account, e.baseURL+"/playlistItems?part=snippet", body, nil)
}
