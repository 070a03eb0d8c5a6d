package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imamteguh/backend-fullstack-taskman/internal/abuse"
	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
	"github.com/imamteguh/backend-fullstack-taskman/internal/event"
	"github.com/imamteguh/backend-fullstack-taskman/internal/notify"
	"github.com/imamteguh/backend-fullstack-taskman/internal/repository"
)

// Token lifetimes. Reset is deliberately tighter than verification:
// a reset link is higher-value and should have a smaller exposure window.
const (
	VerifyTokenTTL  = time.Hour
	ResetTokenTTL   = 15 * time.Minute
	SessionTokenTTL = 7 * 24 * time.Hour
)

// IdentityService orchestrates registration, login, email verification,
// and the password reset flows.
type IdentityService struct {
	accountRepo repository.AccountRepository
	tokens      *TokenService
	codec       *auth.TokenCodec
	hasher      auth.Hasher
	shield      abuse.Shield
	mailer      notify.Mailer
	producer    *event.Producer
	frontendURL string
	logger      *slog.Logger
}

// NewIdentityService creates a new identity service.
func NewIdentityService(
	accountRepo repository.AccountRepository,
	tokens *TokenService,
	codec *auth.TokenCodec,
	hasher auth.Hasher,
	shield abuse.Shield,
	mailer notify.Mailer,
	producer *event.Producer,
	frontendURL string,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		accountRepo: accountRepo,
		tokens:      tokens,
		codec:       codec,
		hasher:      hasher,
		shield:      shield,
		mailer:      mailer,
		producer:    producer,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a new account with an unverified email and sends the
// verification link. No session is issued at registration time.
//
// If the verification email cannot be delivered, the already-persisted
// account and token are NOT rolled back: the login path repairs a lost
// verification email, so the returned NotificationFailed is a delivery
// problem report, not a registration failure.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	email := normalizeEmail(input.Email)

	if err := s.shield.Allow(ctx, email); err != nil {
		return nil, err
	}

	if _, err := s.accountRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.EmailTaken(email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  passwordHash,
		Name:          input.Name,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// The unique constraint is the final arbiter: a concurrent
	// registration that raced past the pre-check surfaces here as
	// EmailTaken.
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if err := s.producer.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	if err := s.sendVerificationEmail(ctx, account); err != nil {
		return account, err
	}

	return account, nil
}

// LoginInput holds the parameters for login.
type LoginInput struct {
	Email    string
	Password string
}

// Login authenticates an account and issues a session credential. Login
// never succeeds for an unverified account; instead it opportunistically
// repairs a lost or expired verification email.
func (s *IdentityService) Login(ctx context.Context, input LoginInput) (*domain.Account, *domain.Session, error) {
	email := normalizeEmail(input.Email)

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Never distinguish "no such account" from "wrong password".
			return nil, nil, apperrors.InvalidCredentials()
		}
		return nil, nil, fmt.Errorf("look up account: %w", err)
	}

	if !account.EmailVerified {
		if err := s.repairVerification(ctx, account); err != nil {
			return nil, nil, err
		}
		return nil, nil, apperrors.EmailNotVerified()
	}

	if !s.hasher.Verify(input.Password, account.PasswordHash) {
		return nil, nil, apperrors.InvalidCredentials()
	}

	sessionToken, expiresAt, err := s.codec.Sign(account.ID, domain.PurposeLogin, SessionTokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("sign session token: %w", err)
	}

	now := time.Now().UTC()
	account.LastLoginAt = &now
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, nil, fmt.Errorf("record login time: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in",
		slog.String("account_id", account.ID),
	)

	return account, &domain.Session{Token: sessionToken, ExpiresAt: expiresAt}, nil
}

// repairVerification re-sends a verification email for an unverified
// account when no active token exists. An active token means the user
// should check their inbox, not receive another mail.
func (s *IdentityService) repairVerification(ctx context.Context, account *domain.Account) error {
	record, err := s.tokens.FindActive(ctx, account.ID, domain.PurposeEmailVerification)
	switch {
	case err == nil && record != nil:
		// Active token outstanding, nothing to repair.
		return nil
	case errors.Is(err, apperrors.ErrTokenExpired):
		if err := s.tokens.Consume(ctx, record.ID); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if err := s.sendVerificationEmail(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to resend verification email",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// VerifyEmail flips the account's emailVerified flag using a
// verification token, then consumes the token. The token is consumed
// only after every check has passed, so a failing request never burns
// a legitimate link.
func (s *IdentityService) VerifyEmail(ctx context.Context, tokenString string) error {
	record, err := s.tokens.Validate(ctx, tokenString, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}

	account, err := s.accountRepo.GetByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("account", record.AccountID)
		}
		return fmt.Errorf("load account: %w", err)
	}

	if account.EmailVerified {
		return apperrors.AlreadyVerified()
	}

	account.EmailVerified = true
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	if err := s.tokens.Consume(ctx, record.ID); err != nil {
		return err
	}

	// The proven address releases its registration attempt budget.
	if err := s.shield.Reset(ctx, account.Email); err != nil {
		s.logger.WarnContext(ctx, "failed to reset shield counter",
			slog.String("email", account.Email),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishAccountVerified(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.verified event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("account_id", account.ID),
	)

	return nil
}

// RequestPasswordReset issues a reset token and mails the reset link.
// Reset is gated behind email verification, and reissuance is blocked
// while an active reset token exists.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accountRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidEmail()
		}
		return fmt.Errorf("look up account: %w", err)
	}

	if !account.EmailVerified {
		return apperrors.EmailNotVerified()
	}

	record, err := s.tokens.FindActive(ctx, account.ID, domain.PurposePasswordReset)
	switch {
	case err == nil && record != nil:
		return apperrors.RequestAlreadyPending()
	case errors.Is(err, apperrors.ErrTokenExpired):
		if err := s.tokens.Consume(ctx, record.ID); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	tokenString, err := s.tokens.Issue(ctx, account.ID, domain.PurposePasswordReset, ResetTokenTTL)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nReset your password by opening the link below. The link expires in 15 minutes.\n\n%s/reset-password?token=%s\n\nIf you did not request this, you can ignore this email.",
		account.Name, s.frontendURL, tokenString,
	)
	if err := s.mailer.Send(ctx, account.Email, "Reset your password", body); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("account_id", account.ID),
	)

	return nil
}

// ResetPassword changes the account password using a reset token, then
// consumes the token. No session is issued; the caller logs in again.
func (s *IdentityService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	record, err := s.tokens.Validate(ctx, tokenString, domain.PurposePasswordReset)
	if err != nil {
		return err
	}

	account, err := s.accountRepo.GetByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("account", record.AccountID)
		}
		return fmt.Errorf("load account: %w", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	account.PasswordHash = passwordHash
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.Consume(ctx, record.ID); err != nil {
		return err
	}

	if err := s.producer.PublishAccountPasswordReset(ctx, account.ID, account.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.password_reset event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// GetProfile retrieves an account by its ID.
func (s *IdentityService) GetProfile(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account profile: %w", err)
	}
	return account, nil
}

// ValidateSession verifies a session token and returns the account ID
// it was issued for.
func (s *IdentityService) ValidateSession(tokenString string) (string, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return "", apperrors.InvalidToken()
	}
	if claims.Purpose != string(domain.PurposeLogin) {
		return "", apperrors.WrongPurpose()
	}
	return claims.Subject, nil
}

func (s *IdentityService) sendVerificationEmail(ctx context.Context, account *domain.Account) error {
	tokenString, err := s.tokens.Issue(ctx, account.ID, domain.PurposeEmailVerification, VerifyTokenTTL)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address by opening the link below. The link expires in 1 hour.\n\n%s/verify-email?token=%s",
		account.Name, s.frontendURL, tokenString,
	)
	return s.mailer.Send(ctx, account.Email, "Verify your email address", body)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
