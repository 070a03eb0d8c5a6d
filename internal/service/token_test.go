package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
)

func newTestTokenService() (*TokenService, *fakeTokenRepo) {
	repo := newFakeTokenRepo()
	return NewTokenService(repo, newTestCodec(), newTestLogger()), repo
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	tokenString, err := svc.Issue(ctx, "acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	record, err := svc.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", record.AccountID)
	assert.Equal(t, domain.PurposeEmailVerification, record.Purpose)
}

func TestTokenService_ValidateDoesNotConsume(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	tokenString, err := svc.Issue(ctx, "acc-1", domain.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	// Repeated validation must keep succeeding until an explicit consume.
	for i := 0; i < 3; i++ {
		_, err := svc.Validate(ctx, tokenString, domain.PurposePasswordReset)
		require.NoError(t, err)
	}
}

func TestTokenService_ConsumeMakesTokenInvalid(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	tokenString, err := svc.Issue(ctx, "acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	record, err := svc.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	require.NoError(t, err)
	require.NoError(t, svc.Consume(ctx, record.ID))

	// The signed claim is still unexpired and authentic, but its
	// persisted witness is gone.
	_, err = svc.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_ConsumeIdempotent(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	tokenString, err := svc.Issue(ctx, "acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	record, err := svc.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	require.NoError(t, err)

	require.NoError(t, svc.Consume(ctx, record.ID))
	require.NoError(t, svc.Consume(ctx, record.ID))
}

func TestTokenService_WrongPurpose(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	resetToken, err := svc.Issue(ctx, "acc-1", domain.PurposePasswordReset, time.Hour)
	require.NoError(t, err)
	verifyToken, err := svc.Issue(ctx, "acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, resetToken, domain.PurposeEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrWrongPurpose)

	_, err = svc.Validate(ctx, verifyToken, domain.PurposePasswordReset)
	assert.ErrorIs(t, err, apperrors.ErrWrongPurpose)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc, repo := newTestTokenService()
	ctx := context.Background()

	tokenString, err := svc.Issue(ctx, "acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	repo.expire("acc-1", domain.PurposeEmailVerification)

	_, err = svc.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_ExpiredClaim(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	// Signed with a negative ttl: signature is authentic, expiry passed.
	tokenString, _, err := newTestCodec().Sign("acc-1", domain.PurposeEmailVerification, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_GarbageToken(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	_, err := svc.Validate(ctx, "not-a-real-token", domain.PurposeEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_ForeignToken(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	// Authentic signature from another issuer secret never validates.
	foreign, _, err := auth.NewTokenCodec("some-other-secret").Sign("acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, foreign, domain.PurposeEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_FindActive_ThreeStates(t *testing.T) {
	svc, repo := newTestTokenService()
	ctx := context.Background()

	// No token at all.
	record, err := svc.FindActive(ctx, "acc-1", domain.PurposePasswordReset)
	require.NoError(t, err)
	assert.Nil(t, record)

	// Active token.
	_, err = svc.Issue(ctx, "acc-1", domain.PurposePasswordReset, time.Hour)
	require.NoError(t, err)
	record, err = svc.FindActive(ctx, "acc-1", domain.PurposePasswordReset)
	require.NoError(t, err)
	require.NotNil(t, record)

	// Expired leftover: returned alongside ErrTokenExpired so the
	// caller can garbage-collect it.
	repo.expire("acc-1", domain.PurposePasswordReset)
	record, err = svc.FindActive(ctx, "acc-1", domain.PurposePasswordReset)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	assert.NotNil(t, record)
}

func TestTokenService_SecondIssuanceBlockedByStore(t *testing.T) {
	svc, _ := newTestTokenService()
	ctx := context.Background()

	_, err := svc.Issue(ctx, "acc-1", domain.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	_, err = svc.Issue(ctx, "acc-1", domain.PurposePasswordReset, time.Hour)
	assert.ErrorIs(t, err, apperrors.ErrRequestPending)
}
