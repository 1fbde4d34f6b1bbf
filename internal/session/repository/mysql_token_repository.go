package repository

import (
	"context"
	"database/sql"
	"fmt"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
)

// MySQLTokenRepository persists session tokens as key/value rows per client,
// one row per storage key.
type MySQLTokenRepository struct {
	db *sql.DB
}

func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}

func (r *MySQLTokenRepository) Load(ctx context.Context, clientID string) (domain.SessionTokens, error) {
	query := `
		SELECT storageKey, value
		FROM ClientStorage
		WHERE clientId = ? AND storageKey IN (?, ?)
	`

	rows, err := r.db.QueryContext(ctx, query, clientID, domain.StorageKeyAccessToken, domain.StorageKeyRefreshToken)
	if err != nil {
		return domain.SessionTokens{}, fmt.Errorf("querying client storage: %w", err)
	}
	defer rows.Close()

	var tokens domain.SessionTokens
	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.SessionTokens{}, fmt.Errorf("scanning client storage row: %w", err)
		}
		found = true
		switch key {
		case domain.StorageKeyAccessToken:
			tokens.AccessToken = value
		case domain.StorageKeyRefreshToken:
			tokens.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return domain.SessionTokens{}, fmt.Errorf("iterating client storage rows: %w", err)
	}

	if !found {
		return domain.SessionTokens{}, errors.NewNotFoundError(fmt.Sprintf("no stored session for client %s", clientID))
	}

	return tokens, nil
}

// Save replaces both token keys atomically. An empty refresh token removes
// the stored one.
func (r *MySQLTokenRepository) Save(ctx context.Context, clientID string, tokens domain.SessionTokens) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.upsert(ctx, tx, clientID, domain.StorageKeyAccessToken, tokens.AccessToken); err != nil {
		return err
	}

	if tokens.RefreshToken == "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ClientStorage WHERE clientId = ? AND storageKey = ?`,
			clientID, domain.StorageKeyRefreshToken); err != nil {
			return fmt.Errorf("deleting refresh token: %w", err)
		}
	} else if err := r.upsert(ctx, tx, clientID, domain.StorageKeyRefreshToken, tokens.RefreshToken); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (r *MySQLTokenRepository) upsert(ctx context.Context, tx *sql.Tx, clientID, key, value string) error {
	query := `
		INSERT INTO ClientStorage (clientId, storageKey, value)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)
	`

	if _, err := tx.ExecContext(ctx, query, clientID, key, value); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}

	return nil
}

func (r *MySQLTokenRepository) Clear(ctx context.Context, clientID string) error {
	query := `DELETE FROM ClientStorage WHERE clientId = ? AND storageKey IN (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, clientID, domain.StorageKeyAccessToken, domain.StorageKeyRefreshToken); err != nil {
		return fmt.Errorf("clearing client storage: %w", err)
	}

	return nil
}
