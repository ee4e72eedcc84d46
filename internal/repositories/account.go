package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"mixport/internal/models"
	"mixport/internal/shared"
)

// AccountRepository persists connected platform accounts and their OAuth
// tokens. Satisfies auth.AccountStore so a token refresh lands in the same
// row the next export reads.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Save inserts the account or, if the user already connected this platform,
// replaces its tokens. One row per user+platform pair.
func (r *AccountRepository) Save(account *models.Account) error {
	if account.UserID == "" || account.Platform == "" {
		return fmt.Errorf("%w: account requires user id and platform", shared.ErrInvalidInput)
	}
	if account.AccessToken == "" {
		return fmt.Errorf("%w: account requires an access token", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if account.RecordID == "" {
		account.RecordID = shared.GenerateID()
	}

	now := time.Now()
	query := `
		INSERT INTO accounts (id, sequence, user_id, platform, access_token, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.Exec(query,
		account.RecordID,
		sequence,
		account.UserID,
		account.Platform,
		account.AccessToken,
		nullableString(account.RefreshToken),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}

// GetByUserPlatform retrieves a user's account for one platform, excluding
// soft-deleted rows.
func (r *AccountRepository) GetByUserPlatform(userID string, platform models.Platform) (*models.Account, error) {
	query := `
		SELECT id, user_id, platform, access_token, refresh_token
		FROM accounts
		WHERE user_id = ? AND platform = ? AND deleted_at IS NULL
	`

	account, err := scanAccount(r.db.QueryRow(query, userID, platform))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotConnected, platform)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

// UpdateTokens writes the account's current tokens back to its row. Called by
// the token manager after a successful refresh.
func (r *AccountRepository) UpdateTokens(account *models.Account) error {
	query := `
		UPDATE accounts
		SET access_token = ?, refresh_token = ?, updated_at = ?
		WHERE user_id = ? AND platform = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		account.AccessToken,
		nullableString(account.RefreshToken),
		time.Now(),
		account.UserID,
		account.Platform,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found: %s/%s", account.UserID, account.Platform)
	}

	return nil
}

// ListByUser retrieves all of a user's connected accounts, excluding
// soft-deleted rows.
func (r *AccountRepository) ListByUser(userID string) ([]*models.Account, error) {
	query := `
		SELECT id, user_id, platform, access_token, refresh_token
		FROM accounts
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

// Disconnect soft-deletes a user's account for one platform.
func (r *AccountRepository) Disconnect(userID string, platform models.Platform) error {
	query := `
		UPDATE accounts
		SET deleted_at = ?
		WHERE user_id = ? AND platform = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), userID, platform)
	if err != nil {
		return fmt.Errorf("failed to disconnect account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotConnected, platform)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account      models.Account
		platform     string
		refreshToken sql.NullString
	)

	err := row.Scan(&account.RecordID, &account.UserID, &platform, &account.AccessToken, &refreshToken)
	if err != nil {
		return nil, err
	}

	account.Platform = models.Platform(platform)
	if refreshToken.Valid {
		account.RefreshToken = refreshToken.String
	}
	return &account, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
