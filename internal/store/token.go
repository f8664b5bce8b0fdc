package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepository handles persistence for session tokens. A user has at
// most one row; Save enforces that with an atomic upsert keyed by user_id.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, userID, token string) error {
	const query = `
		INSERT INTO tokens (user_id, token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, userID, token, time.Now())
	return err
}

func (r *TokenRepository) Get(ctx context.Context, userID string) (string, error) {
	const query = `SELECT token FROM tokens WHERE user_id = $1`
	var token string
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM tokens WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
