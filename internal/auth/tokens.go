package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// credentialStyle selects how a platform expects client credentials on the
// token endpoint: Spotify wants an HTTP Basic header, Google and SoundCloud
// want them embedded in the form body.
type credentialStyle int

const (
	styleBasicHeader credentialStyle = iota
	styleBodyParams
)

// tokenEndpoint describes one platform's refresh endpoint.
type tokenEndpoint struct {
	URL   string
	Style credentialStyle
}

func defaultEndpoints() map[models.Platform]tokenEndpoint {
	return map[models.Platform]tokenEndpoint{
		models.PlatformSpotify:    {URL: "https://accounts.spotify.com/api/token", Style: styleBasicHeader},
		models.PlatformGoogle:     {URL: "https://oauth2.googleapis.com/token", Style: styleBodyParams},
		models.PlatformSoundCloud: {URL: "https://secure.soundcloud.com/oauth/token", Style: styleBodyParams},
	}
}

// AccountStore persists token updates after a successful refresh.
//
// Implementations must be immediately consistent within the process: a
// refresh-then-reread must observe the new token.
type AccountStore interface {
	UpdateTokens(account *models.Account) error
}

// TokenManager hands out and refreshes OAuth2 tokens for connected accounts.
type TokenManager struct {
	creds      shared.CredentialsConfig
	store      AccountStore
	endpoints  map[models.Platform]tokenEndpoint
	httpClient *http.Client
	logger     *log.Logger
}

// NewTokenManager creates a TokenManager using the given OAuth application
// credentials. store may be nil, in which case refreshed tokens are only
// mutated on the in-memory account.
func NewTokenManager(creds shared.CredentialsConfig, store AccountStore, client *http.Client, logger *log.Logger) *TokenManager {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &TokenManager{
		creds:      creds,
		store:      store,
		endpoints:  defaultEndpoints(),
		httpClient: client,
		logger:     logger,
	}
}

// SetEndpointURL overrides the token endpoint URL for a platform, keeping its
// credential style. Lets tests point refresh calls at a local server.
func (m *TokenManager) SetEndpointURL(platform models.Platform, url string) {
	endpoint := m.endpoints[platform]
	endpoint.URL = url
	m.endpoints[platform] = endpoint
}

// AccessToken returns the stored access token for the account.
//
// The token is returned as-is without an expiry check; an expired token will
// surface as a 401 downstream and trigger [TokenManager.Refresh].
func (m *TokenManager) AccessToken(account *models.Account) (string, error) {
	if account == nil || account.AccessToken == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrNoAccessToken, platformName(account))
	}
	return account.AccessToken, nil
}

// HasRefreshToken reports whether the account can recover from an expired access token.
func (m *TokenManager) HasRefreshToken(account *models.Account) bool {
	return account != nil && account.RefreshToken != ""
}

// tokenResponse is the common shape of OAuth2 token endpoint responses.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh exchanges the account's refresh token for a new access token.
//
// On success the account is mutated in place (rotated refresh tokens
// included) and persisted through the store before the new token is returned.
func (m *TokenManager) Refresh(ctx context.Context, account *models.Account) (string, error) {
	if !m.HasRefreshToken(account) {
		return "", fmt.Errorf("%w: %s", shared.ErrNoRefreshToken, platformName(account))
	}

	endpoint, ok := m.endpoints[account.Platform]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, account.Platform)
	}

	app, err := appFor(m.creds, account.Platform)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", account.RefreshToken)
	if endpoint.Style == styleBodyParams {
		form.Set("client_id", app.ClientID)
		form.Set("client_secret", app.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if endpoint.Style == styleBasicHeader {
		req.SetBasicAuth(app.ClientID, app.ClientSecret)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", shared.ErrRefreshFailed, account.Platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w for %s: reading response: %v", shared.ErrRefreshFailed, account.Platform, err)
	}

	if resp.StatusCode != http.StatusOK {
		m.logger.Error("token refresh rejected", "platform", account.Platform, "status", resp.StatusCode)
		return "", fmt.Errorf("%w for %s: status %d", shared.ErrRefreshFailed, account.Platform, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w for %s: decoding response: %v", shared.ErrRefreshFailed, account.Platform, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w for %s: empty access token in response", shared.ErrRefreshFailed, account.Platform)
	}

	account.SetTokens(token.AccessToken, token.RefreshToken)

	if m.store != nil {
		if err := m.store.UpdateTokens(account); err != nil {
			return "", fmt.Errorf("failed to persist refreshed token for %s: %w", account.Platform, err)
		}
	}

	m.logger.Debug("access token refreshed", "platform", account.Platform, "rotated", token.RefreshToken != "")
	return token.AccessToken, nil
}

// appFor selects the OAuth application registration for a platform.
func appFor(creds shared.CredentialsConfig, platform models.Platform) (shared.OAuthAppConfig, error) {
	var app shared.OAuthAppConfig
	switch platform {
	case models.PlatformSpotify:
		app = creds.Spotify
	case models.PlatformGoogle:
		app = creds.Google
	case models.PlatformSoundCloud:
		app = creds.SoundCloud
	default:
		return shared.OAuthAppConfig{}, fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}

	if !app.Configured() {
		return shared.OAuthAppConfig{}, fmt.Errorf("%w: %s client_id/client_secret not set", shared.ErrMissingCredentials, platform)
	}
	return app, nil
}

func platformName(account *models.Account) string {
	if account == nil {
		return "unknown"
	}
	return string(account.Platform)
}
