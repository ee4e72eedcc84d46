package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mixport/internal/models"
	"mixport/internal/shared"
)

type fakeAccountStore struct {
	updates []*models.Account
	err     error
}

func (s *fakeAccountStore) UpdateTokens(account *models.Account) error {
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, account)
	return nil
}

func testCredentials() shared.CredentialsConfig {
	return shared.CredentialsConfig{
		Spotify:    shared.OAuthAppConfig{ClientID: "spotify-id", ClientSecret: "spotify-secret"},
		Google:     shared.OAuthAppConfig{ClientID: "google-id", ClientSecret: "google-secret"},
		SoundCloud: shared.OAuthAppConfig{ClientID: "sc-id", ClientSecret: "sc-secret"},
	}
}

// refreshStub records the form and credential placement of each refresh call.
type refreshStub struct {
	server    *httptest.Server
	form      map[string]string
	basicUser string
	basicPass string
	status    int
	response  map[string]any
}

func newRefreshStub(t *testing.T) *refreshStub {
	t.Helper()

	stub := &refreshStub{
		status:   http.StatusOK,
		response: map[string]any{"access_token": "new-access", "token_type": "Bearer", "expires_in": 3600},
	}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse refresh form: %v", err)
		}
		stub.form = map[string]string{}
		for key := range r.PostForm {
			stub.form[key] = r.PostFormValue(key)
		}
		stub.basicUser, stub.basicPass, _ = r.BasicAuth()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stub.status)
		json.NewEncoder(w).Encode(stub.response)
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func refreshableAccount(platform models.Platform) *models.Account {
	return &models.Account{
		UserID:       "u1",
		Platform:     platform,
		AccessToken:  "stale-access",
		RefreshToken: "refresh-1",
	}
}

func TestAccessToken(t *testing.T) {
	manager := NewTokenManager(testCredentials(), nil, nil, nil)

	t.Run("returns stored token without expiry checks", func(t *testing.T) {
		token, err := manager.AccessToken(refreshableAccount(models.PlatformSpotify))
		if err != nil {
			t.Fatalf("AccessToken failed: %v", err)
		}
		if token != "stale-access" {
			t.Errorf("token = %q", token)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := manager.AccessToken(&models.Account{Platform: models.PlatformSpotify})
		if !errors.Is(err, shared.ErrNoAccessToken) {
			t.Errorf("expected ErrNoAccessToken, got %v", err)
		}
	})

	t.Run("nil account", func(t *testing.T) {
		_, err := manager.AccessToken(nil)
		if !errors.Is(err, shared.ErrNoAccessToken) {
			t.Errorf("expected ErrNoAccessToken, got %v", err)
		}
	})
}

func TestHasRefreshToken(t *testing.T) {
	manager := NewTokenManager(testCredentials(), nil, nil, nil)

	if !manager.HasRefreshToken(refreshableAccount(models.PlatformSpotify)) {
		t.Error("expected true for account with refresh token")
	}
	if manager.HasRefreshToken(&models.Account{AccessToken: "tok"}) {
		t.Error("expected false without refresh token")
	}
	if manager.HasRefreshToken(nil) {
		t.Error("expected false for nil account")
	}
}

func TestRefresh(t *testing.T) {
	t.Run("sends client credentials in basic auth header", func(t *testing.T) {
		stub := newRefreshStub(t)
		manager := NewTokenManager(testCredentials(), nil, nil, nil)
		manager.SetEndpointURL(models.PlatformSpotify, stub.server.URL)

		account := refreshableAccount(models.PlatformSpotify)
		token, err := manager.Refresh(context.Background(), account)
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if token != "new-access" {
			t.Errorf("token = %q", token)
		}

		if stub.basicUser != "spotify-id" || stub.basicPass != "spotify-secret" {
			t.Errorf("basic auth = %q/%q", stub.basicUser, stub.basicPass)
		}
		if stub.form["grant_type"] != "refresh_token" || stub.form["refresh_token"] != "refresh-1" {
			t.Errorf("form = %v", stub.form)
		}
		if _, ok := stub.form["client_id"]; ok {
			t.Error("client_id should not appear in the form body")
		}
	})

	t.Run("sends client credentials in form body", func(t *testing.T) {
		stub := newRefreshStub(t)
		manager := NewTokenManager(testCredentials(), nil, nil, nil)
		manager.SetEndpointURL(models.PlatformGoogle, stub.server.URL)

		if _, err := manager.Refresh(context.Background(), refreshableAccount(models.PlatformGoogle)); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		if stub.basicUser != "" {
			t.Errorf("unexpected basic auth user %q", stub.basicUser)
		}
		if stub.form["client_id"] != "google-id" || stub.form["client_secret"] != "google-secret" {
			t.Errorf("form credentials = %v", stub.form)
		}
	})

	t.Run("mutates account and persists through the store", func(t *testing.T) {
		stub := newRefreshStub(t)
		stub.response["refresh_token"] = "refresh-2"

		store := &fakeAccountStore{}
		manager := NewTokenManager(testCredentials(), store, nil, nil)
		manager.SetEndpointURL(models.PlatformSpotify, stub.server.URL)

		account := refreshableAccount(models.PlatformSpotify)
		if _, err := manager.Refresh(context.Background(), account); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		if account.AccessToken != "new-access" {
			t.Errorf("access token = %q", account.AccessToken)
		}
		if account.RefreshToken != "refresh-2" {
			t.Errorf("rotated refresh token = %q", account.RefreshToken)
		}
		if len(store.updates) != 1 || store.updates[0] != account {
			t.Errorf("store updates = %v", store.updates)
		}
	})

	t.Run("keeps refresh token when the response omits one", func(t *testing.T) {
		stub := newRefreshStub(t)
		manager := NewTokenManager(testCredentials(), nil, nil, nil)
		manager.SetEndpointURL(models.PlatformSpotify, stub.server.URL)

		account := refreshableAccount(models.PlatformSpotify)
		if _, err := manager.Refresh(context.Background(), account); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if account.RefreshToken != "refresh-1" {
			t.Errorf("refresh token = %q, want original kept", account.RefreshToken)
		}
	})

	t.Run("non-200 response", func(t *testing.T) {
		stub := newRefreshStub(t)
		stub.status = http.StatusBadRequest
		stub.response = map[string]any{"error": "invalid_grant"}

		manager := NewTokenManager(testCredentials(), nil, nil, nil)
		manager.SetEndpointURL(models.PlatformSpotify, stub.server.URL)

		account := refreshableAccount(models.PlatformSpotify)
		_, err := manager.Refresh(context.Background(), account)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if account.AccessToken != "stale-access" {
			t.Errorf("account mutated on failed refresh: %q", account.AccessToken)
		}
	})

	t.Run("empty access token in response", func(t *testing.T) {
		stub := newRefreshStub(t)
		stub.response = map[string]any{"token_type": "Bearer"}

		manager := NewTokenManager(testCredentials(), nil, nil, nil)
		manager.SetEndpointURL(models.PlatformSpotify, stub.server.URL)

		_, err := manager.Refresh(context.Background(), refreshableAccount(models.PlatformSpotify))
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
	})

	t.Run("no refresh token", func(t *testing.T) {
		manager := NewTokenManager(testCredentials(), nil, nil, nil)
		_, err := manager.Refresh(context.Background(), &models.Account{Platform: models.PlatformSpotify, AccessToken: "tok"})
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("missing app credentials", func(t *testing.T) {
		manager := NewTokenManager(shared.CredentialsConfig{}, nil, nil, nil)
		_, err := manager.Refresh(context.Background(), refreshableAccount(models.PlatformSpotify))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		stub := newRefreshStub(t)
		store := &fakeAccountStore{err: errors.New("disk full")}

		manager := NewTokenManager(testCredentials(), store, nil, nil)
		manager.SetEndpointURL(models.PlatformSpotify, stub.server.URL)

		_, err := manager.Refresh(context.Background(), refreshableAccount(models.PlatformSpotify))
		if err == nil || !errors.Is(err, store.err) {
			t.Errorf("expected store error, got %v", err)
		}
	})
}
