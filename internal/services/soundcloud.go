// SoundCloud export strategy.
//
// SoundCloud has no source-catalog id on our songs and no atomic append
// endpoint, so tracks are resolved by fuzzy search and added with a
// read-modify-write of the full playlist track list. Its track and playlist
// ids are numeric on the wire but surface as opaque strings everywhere else.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"

	"mixport/internal/auth"
	"mixport/internal/matching"
	"mixport/internal/models"
	"mixport/internal/shared"
)

const (
	soundcloudBaseURL = "https://api.soundcloud.com"

	soundcloudSearchLimit = "10"
)

// SoundCloudExporter exports playlists to SoundCloud.
type SoundCloudExporter struct {
	client  *apiClient
	baseURL string
	cache   ResolutionCache
	sleep   sleepFunc
	logger  *log.Logger
}

func NewSoundCloudExporter(tokens *auth.TokenManager, httpClient *http.Client, cache ResolutionCache, logger *log.Logger) *SoundCloudExporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SoundCloudExporter{
		client:  newAPIClient(models.PlatformSoundCloud, schemeOAuth, tokens, httpClient, logger),
		baseURL: soundcloudBaseURL,
		cache:   cache,
		logger:  logger,
	}
}

func (e *SoundCloudExporter) Platform() models.Platform { return models.PlatformSoundCloud }

func (e *SoundCloudExporter) IsConnected(account *models.Account) bool { return isConnected(account) }

type soundcloudTrackRef struct {
	ID int64 `json:"id"`
}

type soundcloudUser struct {
	Username string `json:"username"`
}

type soundcloudTrack struct {
	ID    int64          `json:"id"`
	Title string         `json:"title"`
	User  soundcloudUser `json:"user"`
}

type soundcloudPlaylist struct {
	ID           int64                `json:"id"`
	PermalinkURL string               `json:"permalink_url"`
	Tracks       []soundcloudTrackRef `json:"tracks"`
}

// Export creates a private SoundCloud playlist and adds every song the fuzzy
// matcher can resolve.
func (e *SoundCloudExporter) Export(ctx context.Context, playlist *models.Playlist, account *models.Account) (*models.ExportResult, error) {
	if !e.IsConnected(account) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotConnected, models.PlatformSoundCloud)
	}

	created, err := e.createPlaylist(ctx, account, remoteName(playlist))
	if err != nil {
		return nil, err
	}

	playlistID := strconv.FormatInt(created.ID, 10)
	result := &models.ExportResult{
		Platform:    models.PlatformSoundCloud,
		PlaylistID:  playlistID,
		PlaylistURL: created.PermalinkURL,
	}

	matcher := matching.NewMatcher(e.searchFunc(account), e.logger)

	for _, song := range playlist.Songs {
		if song.Title == "" || song.Artists == "" {
			e.logger.Warn("song missing title or artists", "title", song.Title, "artists", song.Artists)
			result.FailedTracks++
			continue
		}

		trackID, ok := e.resolve(ctx, matcher, song)
		if !ok {
			e.logger.Warn("no soundcloud match", "title", song.Title, "artists", song.Artists)
			result.FailedTracks++
			continue
		}

		err := withBackoff(ctx, e.logger, e.sleep, func() error {
			return e.addTrack(ctx, account, playlistID, trackID)
		})
		if err != nil {
			e.logger.Error("failed to add track", "playlist", playlistID, "track", trackID,
				"title", song.Title, "error", err)
			result.FailedTracks++
			continue
		}
		result.ExportedTracks++
	}

	e.logger.Info("export finished", "platform", models.PlatformSoundCloud,
		"playlist", playlistID, "exported", result.ExportedTracks, "failed", result.FailedTracks)
	return result, nil
}

// resolve finds a native track id for a song, consulting the resolution cache
// before falling back to the multi-query matcher.
func (e *SoundCloudExporter) resolve(ctx context.Context, matcher *matching.Matcher, song models.Song) (string, bool) {
	if e.cache != nil {
		if id, hit := e.cache.Lookup(models.PlatformSoundCloud, song.Title, song.Artists); hit {
			return id, true
		}
	}

	id, ok := matcher.Match(ctx, song.Title, song.Artists)
	if !ok {
		return "", false
	}

	if e.cache != nil {
		if err := e.cache.Store(models.PlatformSoundCloud, song.Title, song.Artists, id); err != nil {
			e.logger.Warn("failed to cache resolution", "title", song.Title, "error", err)
		}
	}
	return id, true
}

// searchFunc adapts the /tracks search endpoint to the matcher's contract.
func (e *SoundCloudExporter) searchFunc(account *models.Account) matching.SearchFunc {
	return func(ctx context.Context, query string) ([]matching.Candidate, error) {
		params := url.Values{}
		params.Set("q", query)
		params.Set("limit", soundcloudSearchLimit)
		params.Set("access", "playable")

		var tracks []soundcloudTrack
		if err := e.client.Get(ctx, account, e.baseURL+"/tracks?"+params.Encode(), &tracks); err != nil {
			return nil, err
		}

		candidates := make([]matching.Candidate, 0, len(tracks))
		for _, t := range tracks {
			candidates = append(candidates, matching.Candidate{
				ID:     strconv.FormatInt(t.ID, 10),
				Title:  t.Title,
				Artist: t.User.Username,
			})
		}
		return candidates, nil
	}
}

func (e *SoundCloudExporter) createPlaylist(ctx context.Context, account *models.Account, name string) (*soundcloudPlaylist, error) {
	body := map[string]any{
		"playlist": map[string]any{
			"title":   name,
			"sharing": "private",
		},
	}

	var created soundcloudPlaylist
	if err := e.client.Post(ctx, account, e.baseURL+"/playlists", body, &created); err != nil {
		return nil, fmt.Errorf("failed to create soundcloud playlist: %w", err)
	}
	return &created, nil
}

// addTrack appends one track with a read-modify-write of the playlist's full
// track list, since the API has no atomic append.
func (e *SoundCloudExporter) addTrack(ctx context.Context, account *models.Account, playlistID, trackID string) error {
	id, err := strconv.ParseInt(trackID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid soundcloud track id %q", shared.ErrInvalidInput, trackID)
	}

	var current soundcloudPlaylist
	if err := e.client.Get(ctx, account, e.baseURL+"/playlists/"+playlistID, &current); err != nil {
		return err
	}

	tracks := append(current.Tracks, soundcloudTrackRef{ID: id})
	body := map[string]any{
		"playlist": map[string]any{"tracks": tracks},
	}
	return e.client.Put(ctx, account, e.baseURL+"/playlists/"+playlistID, body, nil)
}
