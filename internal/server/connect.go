package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// platformScopes are the minimum grants each platform needs to create private
// playlists and add tracks on the user's behalf.
var platformScopes = map[models.Platform][]string{
	models.PlatformSpotify:    {"playlist-modify-private", "playlist-modify-public", "user-read-private"},
	models.PlatformGoogle:     {"https://www.googleapis.com/auth/youtube"},
	models.PlatformSoundCloud: nil,
}

func platformEndpoint(platform models.Platform) (oauth2.Endpoint, error) {
	switch platform {
	case models.PlatformSpotify:
		return oauth2.Endpoint{
			AuthURL:  "https://accounts.spotify.com/authorize",
			TokenURL: "https://accounts.spotify.com/api/token",
		}, nil
	case models.PlatformGoogle:
		return oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		}, nil
	case models.PlatformSoundCloud:
		return oauth2.Endpoint{
			AuthURL:  "https://secure.soundcloud.com/authorize",
			TokenURL: "https://secure.soundcloud.com/oauth/token",
		}, nil
	default:
		return oauth2.Endpoint{}, fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
}

// AccountSaver persists a freshly connected account. Satisfied by
// repositories.AccountRepository.
type AccountSaver interface {
	Save(account *models.Account) error
}

// ConnectFlow runs the OAuth2 authorization code flow for one platform:
// loopback callback server up, browser to the consent page, wait for the
// exchange, persist the tokens.
type ConnectFlow struct {
	config *shared.Config
	saver  AccountSaver
	logger *log.Logger

	// openBrowser and tokenURL are swapped out in tests.
	openBrowser func(url string) error
	tokenURL    string
}

// NewConnectFlow creates a ConnectFlow using the app credentials and callback
// server settings in config.
func NewConnectFlow(config *shared.Config, saver AccountSaver, logger *log.Logger) *ConnectFlow {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ConnectFlow{
		config:      config,
		saver:       saver,
		logger:      logger,
		openBrowser: shared.OpenBrowser,
	}
}

// Connect links the platform to the user and returns the stored account.
//
// Blocks until the user completes or rejects authorization in the browser, or
// ctx expires.
func (f *ConnectFlow) Connect(ctx context.Context, userID string, platform models.Platform) (*models.Account, error) {
	app, err := f.config.Platform(string(platform))
	if err != nil {
		return nil, err
	}

	endpoint, err := platformEndpoint(platform)
	if err != nil {
		return nil, err
	}
	if f.tokenURL != "" {
		endpoint.TokenURL = f.tokenURL
	}

	oauthConfig := &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  app.RedirectURI,
		Endpoint:     endpoint,
		Scopes:       platformScopes[platform],
	}

	state := shared.GenerateID()
	handler := NewOAuthHandler(oauthConfig, state, platform.DisplayName())

	router := NewBasicRouter()
	router.Use(RequestLogger(f.logger))
	router.Handler(handler)

	addr := net.JoinHostPort(f.config.Server.Host, fmt.Sprintf("%d", f.config.Server.Port))
	srv := &http.Server{Addr: addr, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	// Offline access so Google hands back a refresh token; the other
	// platforms ignore these options.
	authURL := oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	f.logger.Info("opening browser for authorization", "platform", platform, "url", authURL)
	if err := f.openBrowser(authURL); err != nil {
		f.logger.Warn("failed to open browser, visit the URL manually", "url", authURL, "error", err)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, fmt.Errorf("authorization failed for %s: %w", platform, result.Error())
		}
		return f.persist(userID, platform, result.Token)
	case err := <-errChan:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *ConnectFlow) persist(userID string, platform models.Platform, token *oauth2.Token) (*models.Account, error) {
	account := &models.Account{
		UserID:       userID,
		Platform:     platform,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if f.saver != nil {
		if err := f.saver.Save(account); err != nil {
			return nil, fmt.Errorf("failed to persist connected account: %w", err)
		}
	}

	f.logger.Info("platform connected", "platform", platform, "user", userID,
		"has_refresh_token", token.RefreshToken != "")
	return account, nil
}
