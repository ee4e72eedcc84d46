package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Connection and platform errors
	ErrNotConnected        = fmt.Errorf("account not connected")
	ErrUnsupportedPlatform = fmt.Errorf("unsupported platform")

	// Token errors
	ErrNoAccessToken         = fmt.Errorf("no access token available")
	ErrNoRefreshToken        = fmt.Errorf("no refresh token available")
	ErrRefreshFailed         = fmt.Errorf("token refresh failed")
	ErrTokenExpiredNoRefresh = fmt.Errorf("access token expired and no refresh token available")
	ErrRefreshRetryFailed    = fmt.Errorf("request failed after token refresh")

	// API and export errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrExportFailed     = fmt.Errorf("export failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// APIError describes a failed platform API call.
//
// Wire-level failures (timeouts, DNS) and non-2xx responses both surface as an
// APIError; the former carry StatusCode 0. Unwraps to [ErrAPIRequest] so
// callers can match with [errors.Is].
type APIError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API request failed: %s", e.Platform, e.Message)
	}
	return fmt.Sprintf("%s API request failed (status %d): %s", e.Platform, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPIRequest }

// IsUnauthorized reports whether err is an [APIError] carrying HTTP 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
