package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"mixport/internal/formatter"
	"mixport/internal/models"
	"mixport/internal/shared"
)

// PlaylistsList prints the user's stored playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.ensureUser(cmd.String("user"))
	if err != nil {
		return err
	}

	playlists, err := r.playlists.ListByUser(user.ID())
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.PlaylistsText(playlists))
}

// PlaylistsShow prints one playlist with its songs.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.playlists.Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}
	return r.writePlain("%s", formatter.PlaylistText(playlist))
}

// PlaylistsImport loads a playlist from a JSON file into the local store.
func (r *Runner) PlaylistsImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.ensureUser(cmd.String("user"))
	if err != nil {
		return err
	}

	path := cmd.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read playlist file: %w", err)
	}

	var playlist models.Playlist
	if err := json.Unmarshal(data, &playlist); err != nil {
		return fmt.Errorf("%w: failed to parse playlist JSON: %v", shared.ErrInvalidInput, err)
	}
	if playlist.Name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}

	if err := r.playlists.Create(user.ID(), &playlist); err != nil {
		return err
	}

	r.writePlain("✓ Imported %q with %d song(s)\n", playlist.Name, len(playlist.Songs))
	r.writePlain("Playlist ID: %s\n", playlist.ID)
	return nil
}
