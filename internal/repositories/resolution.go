package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// ResolutionRepository caches successful fuzzy-search resolutions so repeat
// exports of the same song skip the multi-query search. Satisfies
// services.ResolutionCache.
//
// Duplicate entries are silently ignored via the platform+title+artists
// UNIQUE constraint.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Lookup returns the cached native id for a platform+title+artists triple.
func (r *ResolutionRepository) Lookup(platform models.Platform, title, artists string) (string, bool) {
	query := `
		SELECT native_id FROM resolutions
		WHERE platform = ? AND title = ? AND artists = ?
	`

	var nativeID string
	err := r.db.QueryRow(query, string(platform), title, artists).Scan(&nativeID)
	if err != nil {
		return "", false
	}
	return nativeID, true
}

// Store caches a resolution. Returns nil if the triple is already cached.
func (r *ResolutionRepository) Store(platform models.Platform, title, artists, nativeID string) error {
	query := `
		INSERT INTO resolutions (id, platform, title, artists, native_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, shared.GenerateID(), string(platform), title, artists, nativeID, time.Now())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache resolution: %w", err)
	}

	return nil
}
