package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"mixport/internal/formatter"
	"mixport/internal/models"
	"mixport/internal/shared"
)

// Connect runs the OAuth flow for one platform and stores the tokens.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	platform, err := r.platformArg(cmd)
	if err != nil {
		return err
	}

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

	account, err := r.connect.Connect(ctx, user.ID(), platform)
	if err != nil {
		return err
	}

	r.writePlain("✓ %s connected\n", platform.DisplayName())
	if account.RefreshToken == "" {
		r.writePlain("No refresh token was issued; you will need to reconnect when the access token expires.\n")
	}
	return nil
}

// Disconnect removes a stored platform connection.
func (r *Runner) Disconnect(ctx context.Context, cmd *cli.Command) error {
	platform, err := r.platformArg(cmd)
	if err != nil {
		return err
	}

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

	if err := r.accounts.Disconnect(user.ID(), platform); err != nil {
		return err
	}

	r.writePlain("✓ %s disconnected\n", platform.DisplayName())
	return nil
}

// Platforms prints the connection status of every supported platform.
func (r *Runner) Platforms(ctx context.Context, cmd *cli.Command) error {
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

	accounts, err := r.accounts.ListByUser(user.ID())
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.ConnectionsText(accounts))
}

func (r *Runner) platformArg(cmd *cli.Command) (models.Platform, error) {
	name := cmd.StringArg("platform")
	if name == "" {
		return "", fmt.Errorf("%w: platform (spotify, google, soundcloud)", shared.ErrMissingArgument)
	}
	return models.ParsePlatform(name)
}
