package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
	"github.com/imamteguh/backend-fullstack-taskman/internal/repository"
)

// TokenService implements the single-use token lifecycle shared by the
// verification, password-reset, and invitation flows. A token exists in
// two forms: the signed claim handed to the user, and a persisted record
// keyed by the claim's hash. The record is the source of truth for
// consumption; the claim alone is never sufficient.
type TokenService struct {
	tokenRepo repository.TokenRepository
	codec     *auth.TokenCodec
	logger    *slog.Logger
}

// NewTokenService creates a new token service.
func NewTokenService(tokenRepo repository.TokenRepository, codec *auth.TokenCodec, logger *slog.Logger) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		codec:     codec,
		logger:    logger,
	}
}

// Issue signs a claim for the account and purpose, persists the matching
// record, and returns the token string. It does not check for an
// existing active token; callers that must block reissuance consult
// FindActive first.
func (s *TokenService) Issue(ctx context.Context, accountID string, purpose domain.TokenPurpose, ttl time.Duration) (string, error) {
	tokenString, expiresAt, err := s.codec.Sign(accountID, purpose, ttl)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	record := &domain.AuthToken{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Purpose:   purpose,
		TokenHash: hashToken(tokenString),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "token issued",
		slog.String("account_id", accountID),
		slog.String("purpose", string(purpose)),
	)

	return tokenString, nil
}

// FindActive returns the unexpired token record held by the account for
// the given purpose. It returns (nil, nil) when no record exists, and
// the expired record with ErrTokenExpired when only a stale one does, so
// callers can branch on all three states.
func (s *TokenService) FindActive(ctx context.Context, accountID string, purpose domain.TokenPurpose) (*domain.AuthToken, error) {
	record, err := s.tokenRepo.GetByAccountAndPurpose(ctx, accountID, purpose)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if !record.Active(time.Now().UTC()) {
		return record, apperrors.ErrTokenExpired
	}

	return record, nil
}

// Validate checks a presented token string for the expected purpose and
// returns its persisted record. It never deletes the record; consumption
// is the caller's explicit step, taken only after every downstream check
// has passed, so a token is not burned by a request that fails for an
// unrelated reason.
func (s *TokenService) Validate(ctx context.Context, tokenString string, expectedPurpose domain.TokenPurpose) (*domain.AuthToken, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrClaimExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken()
	}

	if claims.Purpose != string(expectedPurpose) {
		return nil, apperrors.WrongPurpose()
	}

	record, err := s.tokenRepo.GetByHash(ctx, hashToken(tokenString))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Already consumed, superseded, or never issued here.
			return nil, apperrors.InvalidToken()
		}
		return nil, fmt.Errorf("look up token: %w", err)
	}

	if !record.Active(time.Now().UTC()) {
		return nil, apperrors.TokenExpired()
	}

	return record, nil
}

// Consume deletes the persisted record, permanently invalidating the
// token. Absence is not an error: a concurrent consumer may have won.
func (s *TokenService) Consume(ctx context.Context, recordID string) error {
	if err := s.tokenRepo.Delete(ctx, recordID); err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	return nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
