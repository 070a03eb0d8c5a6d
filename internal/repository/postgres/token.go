package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/imamteguh/backend-fullstack-taskman/internal/database"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
)

// TokenRepository implements repository.TokenRepository using PostgreSQL.
type TokenRepository struct {
	db database.DBTX
}

// NewTokenRepository creates a new PostgreSQL-backed token repository.
func NewTokenRepository(db database.DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new token record. The unique index on
// (account_id, purpose) keeps concurrent issuance from leaving two live
// tokens for the same account.
func (r *TokenRepository) Create(ctx context.Context, t *domain.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (id, account_id, purpose, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.AccountID,
		t.Purpose,
		t.TokenHash,
		t.ExpiresAt,
		t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.RequestAlreadyPending()
		}
		return fmt.Errorf("insert token: %w", err)
	}

	return nil
}

// GetByHash retrieves a token record by its hash.
func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.AuthToken, error) {
	query := `
		SELECT id, account_id, purpose, token_hash, expires_at, created_at
		FROM auth_tokens
		WHERE token_hash = $1`

	return r.scanToken(ctx, query, tokenHash)
}

// GetByAccountAndPurpose retrieves the token held by an account for the
// given purpose.
func (r *TokenRepository) GetByAccountAndPurpose(ctx context.Context, accountID string, purpose domain.TokenPurpose) (*domain.AuthToken, error) {
	query := `
		SELECT id, account_id, purpose, token_hash, expires_at, created_at
		FROM auth_tokens
		WHERE account_id = $1 AND purpose = $2`

	return r.scanToken(ctx, query, accountID, purpose)
}

// Delete removes a token record by its ID. A token already deleted by a
// concurrent consumer is not an error.
func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM auth_tokens WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}

	return nil
}

// scanToken is a helper that executes a query expected to return a single token row.
func (r *TokenRepository) scanToken(ctx context.Context, query string, args ...any) (*domain.AuthToken, error) {
	var t domain.AuthToken

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.AccountID,
		&t.Purpose,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}

	return &t, nil
}
