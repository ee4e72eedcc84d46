package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"mixport/internal/export"
	"mixport/internal/models"
	"mixport/internal/repositories"
	"mixport/internal/services"
	"mixport/internal/shared"
	tu "mixport/internal/testing"
)

type fakeResolver struct {
	exporters map[models.Platform]services.Exporter
}

func (f *fakeResolver) Exporter(platform models.Platform) (services.Exporter, error) {
	exporter, ok := f.exporters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
	return exporter, nil
}

type fakeConnector struct {
	saver *repositories.AccountRepository
	calls int
}

func (f *fakeConnector) Connect(ctx context.Context, userID string, platform models.Platform) (*models.Account, error) {
	f.calls++
	account := &models.Account{
		UserID:       userID,
		Platform:     platform,
		AccessToken:  "connected-token",
		RefreshToken: "connected-refresh",
	}
	if err := f.saver.Save(account); err != nil {
		return nil, err
	}
	return account, nil
}

// newTestRunner wires a Runner against an in-memory database with mock
// exporters standing in for the platform strategies.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, map[models.Platform]*tu.MockExporter) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		DB:     db,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	if err := runner.open(); err != nil {
		t.Fatalf("failed to open runner: %v", err)
	}

	mocks := map[models.Platform]*tu.MockExporter{
		models.PlatformSpotify: {PlatformValue: models.PlatformSpotify, Connected: true},
		models.PlatformGoogle:  {PlatformValue: models.PlatformGoogle, Connected: true},
	}
	resolver := &fakeResolver{exporters: map[models.Platform]services.Exporter{}}
	for platform, mock := range mocks {
		resolver.exporters[platform] = mock
	}

	runner.exporter = export.NewService(resolver, runner.exports, runner.logger)
	runner.connect = &fakeConnector{saver: runner.accounts}

	return runner, output, mocks
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{Name: "mixport", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"mixport"}, args...))
}

func seedPlaylist(t *testing.T, r *Runner, userEmail string) *models.Playlist {
	t.Helper()

	user, err := r.ensureUser(userEmail)
	if err != nil {
		t.Fatalf("ensureUser failed: %v", err)
	}

	playlist := &models.Playlist{
		ID:   "pl1",
		Name: "Summer Mix",
		Songs: []models.Song{
			{Title: "One", Artists: "A", SpotifyID: "sp1"},
			{Title: "Two", Artists: "B", SpotifyID: "sp2"},
		},
	}
	if err := r.playlists.Create(user.ID(), playlist); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	return playlist
}

func seedAccount(t *testing.T, r *Runner, userEmail string, platform models.Platform) {
	t.Helper()

	user, err := r.ensureUser(userEmail)
	if err != nil {
		t.Fatalf("ensureUser failed: %v", err)
	}
	err = r.accounts.Save(&models.Account{
		UserID:       user.ID(),
		Platform:     platform,
		AccessToken:  "tok",
		RefreshToken: "ref",
	})
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
}

func TestNewRunner(t *testing.T) {
	t.Run("with all dependencies provided", func(t *testing.T) {
		config := shared.DefaultConfig()
		logger := shared.NewLogger(io.Discard)
		output := &bytes.Buffer{}
		httpClient := &http.Client{}

		runner := NewRunner(RunnerOpts{
			Config:     config,
			Logger:     logger,
			Output:     output,
			HTTPClient: httpClient,
		})

		if runner.config != config {
			t.Error("expected config to be set")
		}
		if runner.logger != logger {
			t.Error("expected logger to be set")
		}
		if runner.output != output {
			t.Error("expected output to be set")
		}
		if runner.httpClient != httpClient {
			t.Error("expected httpClient to be set")
		}
	})

	t.Run("zero opts use defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		if runner.config == nil {
			t.Error("expected default config to be set")
		}
		if runner.logger == nil {
			t.Error("expected default logger to be set")
		}
		if runner.output != os.Stdout {
			t.Error("expected output to default to os.Stdout")
		}
		if runner.httpClient != http.DefaultClient {
			t.Error("expected httpClient to default to http.DefaultClient")
		}
	})
}

func TestSetupCommand(t *testing.T) {
	tempDir := t.TempDir()
	originalDir := tu.MustGetwd(t)
	tu.MustChdir(t, tempDir)
	defer tu.MustChdir(t, originalDir)

	runner := NewRunner(RunnerOpts{
		Logger: shared.NewLogger(io.Discard),
		Output: &bytes.Buffer{},
	})
	defer func() {
		if runner.db != nil {
			runner.db.Close()
		}
	}()

	configPath := filepath.Join(tempDir, "config.toml")
	if err := run(t, runner, "setup", "--config", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, filepath.Join(tempDir, "mixport.db"))

	content := tu.MustReadFile(t, configPath)
	if !strings.Contains(content, "[credentials.spotify]") {
		t.Errorf("config template missing credentials section: %s", content)
	}
}

func TestConnectCommand(t *testing.T) {
	t.Run("stores the connected account", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		if err := run(t, runner, "connect", "spotify"); err != nil {
			t.Fatalf("connect failed: %v", err)
		}

		if !strings.Contains(output.String(), "Spotify connected") {
			t.Errorf("output = %q", output.String())
		}

		user, err := runner.ensureUser("local@mixport")
		if err != nil {
			t.Fatalf("ensureUser failed: %v", err)
		}
		account, err := runner.accounts.GetByUserPlatform(user.ID(), models.PlatformSpotify)
		if err != nil {
			t.Fatalf("account not stored: %v", err)
		}
		if account.AccessToken != "connected-token" {
			t.Errorf("access token = %q", account.AccessToken)
		}
	})

	t.Run("rejects unknown platforms", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		err := run(t, runner, "connect", "tiktok")
		if !errors.Is(err, shared.ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})

	t.Run("requires a platform argument", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		err := run(t, runner, "connect")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestDisconnectCommand(t *testing.T) {
	runner, output, _ := newTestRunner(t)
	seedAccount(t, runner, "local@mixport", models.PlatformSpotify)

	if err := run(t, runner, "disconnect", "spotify"); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}
	if !strings.Contains(output.String(), "Spotify disconnected") {
		t.Errorf("output = %q", output.String())
	}

	user, _ := runner.ensureUser("local@mixport")
	if _, err := runner.accounts.GetByUserPlatform(user.ID(), models.PlatformSpotify); !errors.Is(err, shared.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected after disconnect, got %v", err)
	}
}

func TestPlatformsCommand(t *testing.T) {
	runner, output, _ := newTestRunner(t)
	seedAccount(t, runner, "local@mixport", models.PlatformSoundCloud)

	if err := run(t, runner, "platforms"); err != nil {
		t.Fatalf("platforms failed: %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "SoundCloud") {
		t.Errorf("missing connected platform: %q", got)
	}
	if !strings.Contains(got, "Spotify (not connected)") {
		t.Errorf("missing disconnected platform: %q", got)
	}
}

func TestPlaylistsCommands(t *testing.T) {
	t.Run("import then show", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		path := filepath.Join(t.TempDir(), "playlist.json")
		payload := `{"id":"pl-json","name":"From File","songs":[{"title":"One","artists":"A","spotify_id":"sp1"}]}`
		if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
			t.Fatalf("failed to write playlist file: %v", err)
		}

		if err := run(t, runner, "playlists", "import", "--file", path); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(output.String(), `Imported "From File" with 1 song(s)`) {
			t.Errorf("import output = %q", output.String())
		}

		output.Reset()
		if err := run(t, runner, "playlists", "show", "pl-json"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "From File") || !strings.Contains(output.String(), "1. One") {
			t.Errorf("show output = %q", output.String())
		}
	})

	t.Run("import rejects a nameless playlist", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		path := filepath.Join(t.TempDir(), "playlist.json")
		if err := os.WriteFile(path, []byte(`{"songs":[]}`), 0644); err != nil {
			t.Fatalf("failed to write playlist file: %v", err)
		}

		err := run(t, runner, "playlists", "import", "--file", path)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		seedPlaylist(t, runner, "local@mixport")

		if err := run(t, runner, "playlists", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Summer Mix") {
			t.Errorf("list output = %q", output.String())
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("exports to one platform and records history", func(t *testing.T) {
		runner, output, mocks := newTestRunner(t)
		seedPlaylist(t, runner, "local@mixport")
		seedAccount(t, runner, "local@mixport", models.PlatformSpotify)

		if err := run(t, runner, "export", "--playlist", "pl1", "--platform", "spotify"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		if calls := mocks[models.PlatformSpotify].Calls(); len(calls) != 1 || calls[0] != "pl1" {
			t.Errorf("exporter calls = %v", calls)
		}
		if !strings.Contains(output.String(), "Exported to Spotify") {
			t.Errorf("output = %q", output.String())
		}

		user, _ := runner.ensureUser("local@mixport")
		records, err := runner.exports.ListByUser(user.ID())
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if len(records) != 1 || records[0].ExportedTracks != 2 {
			t.Errorf("history = %+v", records)
		}
	})

	t.Run("unconnected platform fails before the strategy runs", func(t *testing.T) {
		runner, _, mocks := newTestRunner(t)
		seedPlaylist(t, runner, "local@mixport")

		err := run(t, runner, "export", "--playlist", "pl1", "--platform", "google")
		if !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if calls := mocks[models.PlatformGoogle].Calls(); len(calls) != 0 {
			t.Errorf("exporter should not run, calls = %v", calls)
		}
	})

	t.Run("missing playlist", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		err := run(t, runner, "export", "--playlist", "nope", "--platform", "spotify")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("all exports every connected platform", func(t *testing.T) {
		runner, output, mocks := newTestRunner(t)
		seedPlaylist(t, runner, "local@mixport")
		seedAccount(t, runner, "local@mixport", models.PlatformSpotify)
		seedAccount(t, runner, "local@mixport", models.PlatformGoogle)

		if err := run(t, runner, "export", "--playlist", "pl1", "--all"); err != nil {
			t.Fatalf("export --all failed: %v", err)
		}

		if len(mocks[models.PlatformSpotify].Calls()) != 1 || len(mocks[models.PlatformGoogle].Calls()) != 1 {
			t.Error("expected both exporters to run once")
		}
		if !strings.Contains(output.String(), "Exported to 2 platform(s)") {
			t.Errorf("output = %q", output.String())
		}
		if !strings.Contains(output.String(), "2 succeeded, 0 failed") {
			t.Errorf("output = %q", output.String())
		}
	})

	t.Run("all with nothing connected", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		seedPlaylist(t, runner, "local@mixport")

		err := run(t, runner, "export", "--playlist", "pl1", "--all")
		if !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	runner, output, _ := newTestRunner(t)
	seedPlaylist(t, runner, "local@mixport")
	seedAccount(t, runner, "local@mixport", models.PlatformSpotify)

	if err := run(t, runner, "export", "--playlist", "pl1", "--platform", "spotify"); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	output.Reset()
	if err := run(t, runner, "history"); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "Export history (1)") {
		t.Errorf("history output = %q", got)
	}
	if !strings.Contains(got, "Spotify: 2 exported, 0 failed") {
		t.Errorf("history output = %q", got)
	}
}
