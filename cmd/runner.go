package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"mixport/internal/auth"
	"mixport/internal/export"
	"mixport/internal/models"
	"mixport/internal/repositories"
	"mixport/internal/server"
	"mixport/internal/services"
	"mixport/internal/shared"
)

// connector links a platform account through the OAuth flow. Satisfied by
// [server.ConnectFlow].
type connector interface {
	Connect(ctx context.Context, userID string, platform models.Platform) (*models.Account, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	users     *repositories.UserRepository
	accounts  *repositories.AccountRepository
	playlists *repositories.PlaylistRepository
	exports   *repositories.ExportRepository

	exporter *export.Service
	connect  connector
}

// RunnerOpts contains configuration options for creating a Runner. Zero-value
// fields fall back to production defaults; tests inject their own.
type RunnerOpts struct {
	Config     *shared.Config
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Exporter   *export.Service
	Connect    connector
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		exporter:   opts.Exporter,
		connect:    opts.Connect,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, disconnectCommand, platformsCommand, playlistsCommand, exportCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig replaces the runner's config with the file named by --config when
// it exists; a missing file keeps the current config.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// open wires the database-backed collaborators: repositories, the token
// manager, the exporter factory, and the export service. Pre-injected pieces
// (from tests) are kept as-is.
func (r *Runner) open() error {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return err
		}
		r.db = db
	}

	if r.users == nil {
		r.users = repositories.NewUserRepository(r.db)
		r.accounts = repositories.NewAccountRepository(r.db)
		r.playlists = repositories.NewPlaylistRepository(r.db)
		r.exports = repositories.NewExportRepository(r.db)
	}

	if r.exporter == nil {
		tokens := auth.NewTokenManager(r.config.Credentials, r.accounts, r.httpClient, r.logger)
		factory := services.NewFactory(services.FactoryOpts{
			Tokens:     tokens,
			HTTPClient: r.httpClient,
			Cache:      repositories.NewResolutionRepository(r.db),
			Logger:     r.logger,
		})
		r.exporter = export.NewService(factory, r.exports, r.logger)
	}

	if r.connect == nil {
		r.connect = server.NewConnectFlow(r.config, r.accounts, r.logger)
	}

	return nil
}

// ensureUser resolves the local user for --user, creating it on first use.
func (r *Runner) ensureUser(email string) (*models.User, error) {
	user, err := r.users.GetByEmail(email)
	if err == nil {
		return user, nil
	}

	user = models.NewUser(0, email, email)
	if err := r.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	r.logger.Debug("created local user", "email", email)
	return user, nil
}

func (r *Runner) writeJSON(v any, pretty bool) error {
	data, err := shared.MarshalJSON(v, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
