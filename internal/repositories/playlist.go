package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// PlaylistRepository persists locally-built playlists and their ordered songs.
//
// Songs are stored denormalized on the playlist: position-ordered rows with
// optional title/artists/spotify_id, matching what the exporter consumes.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a playlist and its songs in one transaction, generating an
// id when the playlist does not carry one.
func (r *PlaylistRepository) Create(userID string, playlist *models.Playlist) error {
	if playlist.Name == "" {
		return fmt.Errorf("%w: playlist requires a name", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	now := time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO playlists (id, sequence, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, playlist.ID, sequence, userID, playlist.Name, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	for position, song := range playlist.Songs {
		_, err = tx.Exec(`
			INSERT INTO songs (id, playlist_id, position, title, artists, spotify_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			shared.GenerateID(),
			playlist.ID,
			position,
			nullableString(song.Title),
			nullableString(song.Artists),
			nullableString(song.SpotifyID),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert song at position %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist with its songs in position order, excluding
// soft-deleted playlists.
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := `
		SELECT id, name
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	var playlist models.Playlist
	err := r.db.QueryRow(query, id).Scan(&playlist.ID, &playlist.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	songs, err := r.songs(id)
	if err != nil {
		return nil, err
	}
	playlist.Songs = songs

	return &playlist, nil
}

func (r *PlaylistRepository) songs(playlistID string) ([]models.Song, error) {
	rows, err := r.db.Query(`
		SELECT title, artists, spotify_id
		FROM songs
		WHERE playlist_id = ?
		ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var title, artists, spotifyID sql.NullString
		if err := rows.Scan(&title, &artists, &spotifyID); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, models.Song{
			Title:     title.String,
			Artists:   artists.String,
			SpotifyID: spotifyID.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// ListByUser retrieves a user's playlists without their songs, newest last.
func (r *PlaylistRepository) ListByUser(userID string) ([]*models.Playlist, error) {
	rows, err := r.db.Query(`
		SELECT id, name
		FROM playlists
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		var playlist models.Playlist
		if err := rows.Scan(&playlist.ID, &playlist.Name); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, &playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// Delete soft-deletes a playlist by ID. Its songs stay in place for history.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	return nil
}
