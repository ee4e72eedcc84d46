// Parametrized HTTP client shared by all platform strategies.
//
// The platforms differ only in base URL, auth header scheme, and error body
// shape; everything else (auth injection, error normalization, the
// 401-refresh-retry-once policy) is identical and lives here.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"mixport/internal/auth"
	"mixport/internal/models"
	"mixport/internal/shared"
)

// authScheme selects the Authorization header prefix a platform expects.
type authScheme int

const (
	schemeBearer authScheme = iota // Spotify, YouTube
	schemeOAuth                    // SoundCloud
)

func (s authScheme) header(token string) string {
	if s == schemeOAuth {
		return "OAuth " + token
	}
	return "Bearer " + token
}

// apiClient performs authenticated JSON calls against one platform's API.
//
// On a 401 it refreshes the account's access token through the token manager
// and retries the request exactly once. A second 401 surfaces as
// [shared.ErrRefreshRetryFailed]; there is no refresh loop beyond that.
type apiClient struct {
	platform   models.Platform
	scheme     authScheme
	tokens     *auth.TokenManager
	httpClient *http.Client
	logger     *log.Logger
}

func newAPIClient(platform models.Platform, scheme authScheme, tokens *auth.TokenManager, httpClient *http.Client, logger *log.Logger) *apiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &apiClient{
		platform:   platform,
		scheme:     scheme,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Get issues an authenticated GET and decodes the response into out.
func (c *apiClient) Get(ctx context.Context, account *models.Account, url string, out any) error {
	return c.do(ctx, account, http.MethodGet, url, nil, out)
}

// Post issues an authenticated POST with a JSON body and decodes the response into out.
func (c *apiClient) Post(ctx context.Context, account *models.Account, url string, body, out any) error {
	return c.do(ctx, account, http.MethodPost, url, body, out)
}

// Put issues an authenticated PUT with a JSON body and decodes the response into out.
func (c *apiClient) Put(ctx context.Context, account *models.Account, url string, body, out any) error {
	return c.do(ctx, account, http.MethodPut, url, body, out)
}

func (c *apiClient) do(ctx context.Context, account *models.Account, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request body: %w", c.platform, err)
		}
	}

	token, err := c.tokens.AccessToken(account)
	if err != nil {
		return err
	}

	err = c.attempt(ctx, token, method, url, payload, out)
	if !shared.IsUnauthorized(err) {
		return err
	}

	if !c.tokens.HasRefreshToken(account) {
		return fmt.Errorf("%w: %s", shared.ErrTokenExpiredNoRefresh, c.platform)
	}

	c.logger.Debug("access token rejected, refreshing", "platform", c.platform, "url", url)

	token, err = c.tokens.Refresh(ctx, account)
	if err != nil {
		return err
	}

	if err := c.attempt(ctx, token, method, url, payload, out); err != nil {
		if shared.IsUnauthorized(err) {
			return fmt.Errorf("%w for %s: %v", shared.ErrRefreshRetryFailed, c.platform, err)
		}
		return err
	}
	return nil
}

// attempt performs a single request-response cycle. Wire failures are
// normalized into an [shared.APIError] with status code zero so callers have
// one error shape to inspect.
func (c *apiClient) attempt(ctx context.Context, token, method, url string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", c.platform, err)
	}

	req.Header.Set("Authorization", c.scheme.header(token))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &shared.APIError{Platform: string(c.platform), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &shared.APIError{Platform: string(c.platform), Message: "reading response: " + err.Error()}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", c.platform, err)
		}
		return nil
	default:
		return &shared.APIError{
			Platform:   string(c.platform),
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(respBody),
		}
	}
}

// apiErrorMessage extracts a human-readable message from an error response
// body. Checked in order: error.message, error.errors (serialized), top-level
// message, then a generic fallback. Covers the Spotify/Google envelope and
// SoundCloud's flatter shapes.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "Unknown error"
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		var inner struct {
			Message string          `json:"message"`
			Errors  json.RawMessage `json:"errors"`
		}
		if err := json.Unmarshal(envelope.Error, &inner); err == nil {
			if inner.Message != "" {
				return inner.Message
			}
			if len(inner.Errors) > 0 && string(inner.Errors) != "null" {
				return string(inner.Errors)
			}
		}
	}

	if envelope.Message != "" {
		return envelope.Message
	}
	return "Unknown error"
}
