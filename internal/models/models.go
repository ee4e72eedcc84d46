package models

import (
	"fmt"
	"strings"
	"time"

	"mixport/internal/shared"
)

// Model defines the base interface for all persistent models in the export service.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Platform identifies a streaming platform an export can target.
type Platform string

const (
	PlatformSpotify    Platform = "spotify"
	PlatformGoogle     Platform = "google"
	PlatformSoundCloud Platform = "soundcloud"
)

// Platforms lists every supported export target in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformSpotify, PlatformGoogle, PlatformSoundCloud}
}

// ParsePlatform converts a platform name into a [Platform].
// Matching is exact apart from case and surrounding whitespace.
func ParsePlatform(name string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(name))) {
	case PlatformSpotify:
		return PlatformSpotify, nil
	case PlatformGoogle:
		return PlatformGoogle, nil
	case PlatformSoundCloud:
		return PlatformSoundCloud, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedPlatform, name)
	}
}

func (p Platform) String() string { return string(p) }

// DisplayName returns the user-facing name of the platform.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformSpotify:
		return "Spotify"
	case PlatformGoogle:
		return "YouTube"
	case PlatformSoundCloud:
		return "SoundCloud"
	default:
		return string(p)
	}
}

// Song is a single entry of a locally-built playlist.
//
// Title and Artists are display strings and may both be empty; Artists is the
// comma-joined form ("Artist A, Artist B"). SpotifyID is set when the song was
// originally picked from the Spotify catalog and lets the Spotify exporter skip
// search entirely.
type Song struct {
	Title     string `json:"title,omitempty"`
	Artists   string `json:"artists,omitempty"`
	SpotifyID string `json:"spotify_id,omitempty"`
}

// MainArtist returns the first comma-separated segment of Artists.
func (s Song) MainArtist() string {
	main, _, _ := strings.Cut(s.Artists, ",")
	return strings.TrimSpace(main)
}

// Playlist is the ordered song list handed to an exporter.
// Exporters treat it as read-only input.
type Playlist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Songs []Song `json:"songs"`
}

// Account holds the OAuth credential tuple for one user's connection to a platform.
//
// AccessToken is required to attempt any call. An empty RefreshToken means a 401
// is terminal rather than recoverable. A successful refresh mutates the record
// in place (new access token, and refresh token when the platform rotates it).
type Account struct {
	RecordID     string
	UserID       string
	Platform     Platform
	AccessToken  string
	RefreshToken string
}

// SetTokens replaces the access token and, when rotated is non-empty, the refresh token.
func (a *Account) SetTokens(access, rotated string) {
	a.AccessToken = access
	if rotated != "" {
		a.RefreshToken = rotated
	}
}

// ExportResult is the outcome of reproducing one playlist on one platform.
//
// PlaylistID is the remote playlist's native identifier, always surfaced as an
// opaque string even on platforms that use numeric ids internally.
// ExportedTracks + FailedTracks always equals the number of songs considered.
type ExportResult struct {
	Platform       Platform `json:"platform"`
	PlaylistID     string   `json:"playlist_id"`
	PlaylistURL    string   `json:"playlist_url"`
	ExportedTracks int      `json:"exported_tracks"`
	FailedTracks   int      `json:"failed_tracks"`
}

// User is a local account owning connected platform accounts and playlists.
type User struct {
	id        string
	sequence  int
	email     string
	name      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewUser creates a User with the given sequence, email, and display name.
func NewUser(sequence int, email, name string) *User {
	now := time.Now()
	return &User{
		sequence:  sequence,
		email:     email,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) Email() string         { return u.email }
func (u *User) Name() string          { return u.name }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)           { u.id = id }
func (u *User) SetUpdatedAt(t time.Time)  { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// Validate checks required user fields.
func (u *User) Validate() error {
	if u.email == "" {
		return fmt.Errorf("user email is required")
	}
	if u.name == "" {
		return fmt.Errorf("user name is required")
	}
	return nil
}
