// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Local user email",
		Value:   "local@mixport",
	}
}

// setupCommand initializes configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// connectCommand links a platform account through OAuth.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect a streaming platform account via OAuth",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "platform"},
		},
		Flags:  []cli.Flag{configFlag(), userFlag()},
		Action: r.Connect,
	}
}

// disconnectCommand removes a platform connection.
func disconnectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Disconnect a streaming platform account",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "platform"},
		},
		Flags:  []cli.Flag{configFlag(), userFlag()},
		Action: r.Disconnect,
	}
}

// platformsCommand shows connection status per platform.
func platformsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "platforms",
		Usage:  "Show which platforms are connected",
		Flags:  []cli.Flag{configFlag(), userFlag()},
		Action: r.Platforms,
	}
}

// playlistsCommand manages local playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage local playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored playlists",
				Flags:  []cli.Flag{configFlag(), userFlag()},
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show one playlist with its songs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:  "import",
				Usage: "Import a playlist from a JSON file",
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to playlist JSON",
						Required: true,
					},
				},
				Action: r.PlaylistsImport,
			},
		},
	}
}

// exportCommand reproduces a playlist on one or all connected platforms.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a playlist to streaming platforms",
		Flags: []cli.Flag{
			configFlag(),
			userFlag(),
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist ID to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "platform",
				Usage: "Target platform (spotify, google, soundcloud)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export to every connected platform",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent platform exports with --all",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Export,
	}
}

// historyCommand lists past exports.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show export history",
		Flags: []cli.Flag{
			configFlag(),
			userFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.History,
	}
}
