// package testing contains shared testing utilities
package testing

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"

	"mixport/internal/models"
)

// MockExporter is a test double for [services.Exporter].
type MockExporter struct {
	PlatformValue models.Platform
	Connected     bool
	Result        *models.ExportResult
	Err           error

	mu    sync.Mutex
	calls []string
}

func (m *MockExporter) Platform() models.Platform {
	return m.PlatformValue
}

func (m *MockExporter) IsConnected(account *models.Account) bool {
	return m.Connected
}

func (m *MockExporter) Export(ctx context.Context, playlist *models.Playlist, account *models.Account) (*models.ExportResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, playlist.ID)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.ExportResult{
		Platform:       m.PlatformValue,
		PlaylistID:     "remote-" + playlist.ID,
		ExportedTracks: len(playlist.Songs),
	}, nil
}

// Calls returns the playlist IDs passed to Export, in order.
func (m *MockExporter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
