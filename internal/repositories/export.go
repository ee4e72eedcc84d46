package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// ExportRecord is one row of export history: which playlist went to which
// platform, what landed remotely, and how the counts came out.
type ExportRecord struct {
	ID                string
	UserID            string
	PlaylistID        string
	Platform          models.Platform
	RemotePlaylistID  string
	RemotePlaylistURL string
	ExportedTracks    int
	FailedTracks      int
	ErrorMessage      string
	CreatedAt         time.Time
}

// ExportRepository records export outcomes. Satisfies export.History.
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new ExportRepository with the given database connection
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Record inserts one export outcome. result may be nil when the export failed
// before producing one; exportErr may be nil on success.
func (r *ExportRepository) Record(userID, playlistID string, result *models.ExportResult, exportErr error) error {
	sequence, err := NextSequence(r.db, "exports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	record := ExportRecord{
		ID:         shared.GenerateID(),
		UserID:     userID,
		PlaylistID: playlistID,
	}
	if result != nil {
		record.Platform = result.Platform
		record.RemotePlaylistID = result.PlaylistID
		record.RemotePlaylistURL = result.PlaylistURL
		record.ExportedTracks = result.ExportedTracks
		record.FailedTracks = result.FailedTracks
	}
	if exportErr != nil {
		record.ErrorMessage = exportErr.Error()
	}

	now := time.Now()
	query := `
		INSERT INTO exports (
			id, sequence, user_id, playlist_id, platform,
			remote_playlist_id, remote_playlist_url,
			exported_tracks, failed_tracks, error_message,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		record.ID,
		sequence,
		record.UserID,
		record.PlaylistID,
		string(record.Platform),
		nullableString(record.RemotePlaylistID),
		nullableString(record.RemotePlaylistURL),
		record.ExportedTracks,
		record.FailedTracks,
		nullableString(record.ErrorMessage),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert export record: %w", err)
	}

	return nil
}

// ListByUser retrieves a user's export history, most recent first.
func (r *ExportRepository) ListByUser(userID string) ([]ExportRecord, error) {
	query := `
		SELECT id, user_id, playlist_id, platform,
			remote_playlist_id, remote_playlist_url,
			exported_tracks, failed_tracks, error_message, created_at
		FROM exports
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var (
			record   ExportRecord
			platform string
			remoteID sql.NullString
			url      sql.NullString
			errMsg   sql.NullString
		)

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.PlaylistID,
			&platform,
			&remoteID,
			&url,
			&record.ExportedTracks,
			&record.FailedTracks,
			&errMsg,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}

		record.Platform = models.Platform(platform)
		record.RemotePlaylistID = remoteID.String
		record.RemotePlaylistURL = url.String
		record.ErrorMessage = errMsg.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
