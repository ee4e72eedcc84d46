package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"mixport/internal/models"
	"mixport/internal/services"
	"mixport/internal/shared"
)

// History records finished exports. Implemented by the exports repository;
// recording failures are logged, never fatal to the export itself.
type History interface {
	Record(userID, playlistID string, result *models.ExportResult, exportErr error) error
}

// StrategyResolver yields the export strategy for a platform. Satisfied by
// [services.Factory].
type StrategyResolver interface {
	Exporter(platform models.Platform) (services.Exporter, error)
}

// Service orchestrates playlist exports across platforms.
type Service struct {
	factory StrategyResolver
	history History
	logger  *log.Logger
}

// NewService creates the export orchestrator. history may be nil.
func NewService(factory StrategyResolver, history History, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{factory: factory, history: history, logger: logger}
}

// Export reproduces the playlist on the named platform using the account's
// stored credentials.
//
// Unsupported platforms fail before any credential access; missing
// connections fail before any network call. Both propagate unmodified.
// Anything the strategy raises after that is wrapped in
// [shared.ErrExportFailed].
func (s *Service) Export(ctx context.Context, playlist *models.Playlist, account *models.Account, platformName string) (*models.ExportResult, error) {
	platform, err := models.ParsePlatform(platformName)
	if err != nil {
		return nil, err
	}

	exporter, err := s.factory.Exporter(platform)
	if err != nil {
		return nil, err
	}

	if !exporter.IsConnected(account) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotConnected, platform)
	}

	s.logger.Info("starting export", "platform", platform, "playlist", playlist.Name, "songs", len(playlist.Songs))

	result, err := exporter.Export(ctx, playlist, account)
	s.record(playlist, account, result, err)
	if err != nil {
		if errors.Is(err, shared.ErrNotConnected) || errors.Is(err, shared.ErrUnsupportedPlatform) {
			return nil, err
		}
		s.logger.Error("export failed", "platform", platform, "playlist", playlist.Name, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrExportFailed, err)
	}

	return result, nil
}

func (s *Service) record(playlist *models.Playlist, account *models.Account, result *models.ExportResult, exportErr error) {
	if s.history == nil || account == nil {
		return
	}
	if err := s.history.Record(account.UserID, playlist.ID, result, exportErr); err != nil {
		s.logger.Warn("failed to record export", "playlist", playlist.ID, "error", err)
	}
}
