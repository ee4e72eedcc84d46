package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"mixport/internal/export"
	"mixport/internal/formatter"
	"mixport/internal/models"
	"mixport/internal/shared"
)

// Export reproduces a stored playlist on one platform, or on every connected
// platform with --all.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
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

	playlist, err := r.playlists.Get(cmd.String("playlist"))
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		return r.exportAll(ctx, cmd, user.ID(), playlist)
	}

	platformName := cmd.String("platform")
	if platformName == "" {
		return fmt.Errorf("%w: --platform or --all", shared.ErrMissingArgument)
	}

	platform, err := models.ParsePlatform(platformName)
	if err != nil {
		return err
	}

	account, err := r.accounts.GetByUserPlatform(user.ID(), platform)
	if err != nil {
		if errors.Is(err, shared.ErrNotConnected) {
			return fmt.Errorf("%w: run 'mixport connect %s' first", err, platform)
		}
		return err
	}

	result, err := r.exporter.Export(ctx, playlist, account, platformName)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s", formatter.ExportResultText(result))
}

// exportAll fans the playlist out to every connected platform.
func (r *Runner) exportAll(ctx context.Context, cmd *cli.Command, userID string, playlist *models.Playlist) error {
	stored, err := r.accounts.ListByUser(userID)
	if err != nil {
		return err
	}

	accounts := make(map[models.Platform]*models.Account, len(stored))
	for _, account := range stored {
		if account.AccessToken != "" {
			accounts[account.Platform] = account
		}
	}
	if len(accounts) == 0 {
		return fmt.Errorf("%w: no platforms connected", shared.ErrNotConnected)
	}

	prog := make(chan export.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result := r.exporter.BulkExport(ctx, prog, playlist, accounts, export.BulkExportOpts{
		NumWorkers: cmd.Int("workers"),
	})
	close(prog)
	wg.Wait()

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("\n%s", formatter.BulkResultText(result))
}

// History prints the user's past exports, most recent first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
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

	records, err := r.exports.ListByUser(user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	return r.writePlain("%s", formatter.HistoryText(records))
}
