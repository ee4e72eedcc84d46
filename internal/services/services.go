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

// Exporter reproduces a local playlist on one streaming platform.
type Exporter interface {
	// Platform identifies which platform this exporter targets.
	Platform() models.Platform
	// IsConnected reports whether the account can be used for export, which
	// requires a stored access token. Token validity is not checked here; an
	// expired token surfaces as a 401 during export and triggers a refresh.
	IsConnected(account *models.Account) bool
	// Export creates a remote playlist named after the local one, adds every
	// resolvable track, and returns the aggregated result. Track-level
	// failures are tallied, not raised; the returned result always satisfies
	// ExportedTracks+FailedTracks == len(playlist.Songs).
	Export(ctx context.Context, playlist *models.Playlist, account *models.Account) (*models.ExportResult, error)
}

// ResolutionCache remembers successful track resolutions so repeat exports
// skip the search round trips. Lookup misses and Store failures are both
// non-fatal to the caller.
type ResolutionCache interface {
	Lookup(platform models.Platform, title, artists string) (string, bool)
	Store(platform models.Platform, title, artists, nativeID string) error
}

func isConnected(account *models.Account) bool {
	return account != nil && account.AccessToken != ""
}

// remoteName returns the title for the remote copy of a playlist, falling
// back to a default when the local playlist has no name.
func remoteName(playlist *models.Playlist) string {
	if playlist.Name == "" {
		return "Untitled Playlist"
	}
	return playlist.Name
}

// FactoryOpts carries the collaborators shared by every exporter.
type FactoryOpts struct {
	Tokens     *auth.TokenManager
	HTTPClient *http.Client
	Cache      ResolutionCache
	Logger     *log.Logger
}

// Factory dispatches export requests to the strategy for a platform.
type Factory struct {
	exporters map[models.Platform]Exporter
}

// NewFactory builds the fixed set of platform exporters.
func NewFactory(opts FactoryOpts) *Factory {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Factory{
		exporters: map[models.Platform]Exporter{
			models.PlatformSpotify:    NewSpotifyExporter(opts.Tokens, opts.HTTPClient, opts.Logger),
			models.PlatformGoogle:     NewYouTubeExporter(opts.Tokens, opts.HTTPClient, opts.Logger),
			models.PlatformSoundCloud: NewSoundCloudExporter(opts.Tokens, opts.HTTPClient, opts.Cache, opts.Logger),
		},
	}
}

// Exporter returns the strategy for a platform, or
// [shared.ErrUnsupportedPlatform] for anything outside the fixed set.
func (f *Factory) Exporter(platform models.Platform) (Exporter, error) {
	exporter, ok := f.exporters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
	return exporter, nil
}

// Supported reports whether name parses to a platform with a strategy.
func (f *Factory) Supported(name string) bool {
	platform, err := models.ParsePlatform(name)
	if err != nil {
		return false
	}
	_, ok := f.exporters[platform]
	return ok
}

// All returns every platform strategy keyed by platform.
func (f *Factory) All() map[models.Platform]Exporter {
	out := make(map[models.Platform]Exporter, len(f.exporters))
	for platform, exporter := range f.exporters {
		out[platform] = exporter
	}
	return out
}
