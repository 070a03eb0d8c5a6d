package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamteguh/backend-fullstack-taskman/internal/abuse"
	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
	"github.com/imamteguh/backend-fullstack-taskman/internal/event"
	"github.com/imamteguh/backend-fullstack-taskman/internal/middleware"
	"github.com/imamteguh/backend-fullstack-taskman/internal/notify"
	"github.com/imamteguh/backend-fullstack-taskman/internal/service"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) Create(ctx context.Context, t *domain.AuthToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.AuthToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthToken), args.Error(1)
}

func (m *mockTokenRepo) GetByAccountAndPurpose(ctx context.Context, accountID string, purpose domain.TokenPurpose) (*domain.AuthToken, error) {
	args := m.Called(ctx, accountID, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthToken), args.Error(1)
}

func (m *mockTokenRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ============================================================================
// Fixture
// ============================================================================

type authTestFixture struct {
	handler  *AuthHandler
	identity *service.IdentityService
	accounts *mockAccountRepo
	tokens   *mockTokenRepo
	codec    *auth.TokenCodec
	hasher   *auth.BcryptHasher
}

func newAuthTestFixture(t *testing.T) *authTestFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	accounts := &mockAccountRepo{}
	tokens := &mockTokenRepo{}
	codec := auth.NewTokenCodec("handler-test-secret")
	hasher := auth.NewBcryptHasher(4)

	identity := service.NewIdentityService(
		accounts,
		service.NewTokenService(tokens, codec, logger),
		codec,
		hasher,
		abuse.NoopShield{},
		notify.NewLogMailer(logger),
		event.NewProducer(nil, logger),
		"https://app.example.com",
		logger,
	)

	return &authTestFixture{
		handler:  NewAuthHandler(identity, logger),
		identity: identity,
		accounts: accounts,
		tokens:   tokens,
		codec:    codec,
		hasher:   hasher,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// ============================================================================
// Register
// ============================================================================

func TestAuthHandler_Register_Success(t *testing.T) {
	f := newAuthTestFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "teguh@example.com").Return(nil, apperrors.ErrNotFound)
	f.accounts.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	f.tokens.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuthToken")).Return(nil)

	rr := postJSON(t, f.handler.Register, "/api/v1/auth/register", RegisterRequest{
		Email:           "teguh@example.com",
		Password:        "s3cret-password",
		ConfirmPassword: "s3cret-password",
		Name:            "Teguh",
	})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"teguh@example.com"`)
	assert.NotContains(t, rr.Body.String(), "password")
	f.accounts.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func TestAuthHandler_Register_PasswordMismatch(t *testing.T) {
	f := newAuthTestFixture(t)

	rr := postJSON(t, f.handler.Register, "/api/v1/auth/register", RegisterRequest{
		Email:           "teguh@example.com",
		Password:        "s3cret-password",
		ConfirmPassword: "different-password",
		Name:            "Teguh",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
	f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthHandler_Register_InvalidEmail(t *testing.T) {
	f := newAuthTestFixture(t)

	rr := postJSON(t, f.handler.Register, "/api/v1/auth/register", RegisterRequest{
		Email:           "not-an-email",
		Password:        "s3cret-password",
		ConfirmPassword: "s3cret-password",
		Name:            "Teguh",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	f := newAuthTestFixture(t)

	existing := &domain.Account{ID: "acc-1", Email: "teguh@example.com"}
	f.accounts.On("GetByEmail", mock.Anything, "teguh@example.com").Return(existing, nil)

	rr := postJSON(t, f.handler.Register, "/api/v1/auth/register", RegisterRequest{
		Email:           "teguh@example.com",
		Password:        "s3cret-password",
		ConfirmPassword: "s3cret-password",
		Name:            "Teguh",
	})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "EMAIL_TAKEN")
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	f := newAuthTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_INPUT")
}

// ============================================================================
// Login
// ============================================================================

func verifiedAccount(t *testing.T, hasher *auth.BcryptHasher, password string) *domain.Account {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	return &domain.Account{
		ID:            "acc-1",
		Email:         "teguh@example.com",
		PasswordHash:  hash,
		Name:          "Teguh",
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	f := newAuthTestFixture(t)

	account := verifiedAccount(t, f.hasher, "s3cret-password")
	f.accounts.On("GetByEmail", mock.Anything, "teguh@example.com").Return(account, nil)
	f.accounts.On("Update", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)

	rr := postJSON(t, f.handler.Login, "/api/v1/auth/login", LoginRequest{
		Email:    "teguh@example.com",
		Password: "s3cret-password",
	})

	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			Session struct {
				Token string `json:"token"`
			} `json:"session"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Session.Token)

	accountID, err := f.identity.ValidateSession(body.Data.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", accountID)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	f := newAuthTestFixture(t)

	account := verifiedAccount(t, f.hasher, "s3cret-password")
	f.accounts.On("GetByEmail", mock.Anything, "teguh@example.com").Return(account, nil)

	rr := postJSON(t, f.handler.Login, "/api/v1/auth/login", LoginRequest{
		Email:    "teguh@example.com",
		Password: "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandler_Login_UnknownEmail(t *testing.T) {
	f := newAuthTestFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	rr := postJSON(t, f.handler.Login, "/api/v1/auth/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
}

// ============================================================================
// Authenticated endpoints
// ============================================================================

func TestAuthHandler_Me(t *testing.T) {
	f := newAuthTestFixture(t)

	account := verifiedAccount(t, f.hasher, "s3cret-password")
	f.accounts.On("GetByID", mock.Anything, "acc-1").Return(account, nil)

	validate := func(token string) (*middleware.SessionClaims, error) {
		accountID, err := f.identity.ValidateSession(token)
		if err != nil {
			return nil, err
		}
		return &middleware.SessionClaims{AccountID: accountID}, nil
	}
	protected := middleware.Auth(validate)(http.HandlerFunc(f.handler.Me))

	sessionToken, _, err := f.codec.Sign("acc-1", domain.PurposeLogin, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"teguh@example.com"`)
}

func TestAuthHandler_Me_RejectsWithoutToken(t *testing.T) {
	f := newAuthTestFixture(t)

	validate := func(token string) (*middleware.SessionClaims, error) {
		accountID, err := f.identity.ValidateSession(token)
		if err != nil {
			return nil, err
		}
		return &middleware.SessionClaims{AccountID: accountID}, nil
	}
	protected := middleware.Auth(validate)(http.HandlerFunc(f.handler.Me))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_Me_RejectsVerificationToken(t *testing.T) {
	f := newAuthTestFixture(t)

	validate := func(token string) (*middleware.SessionClaims, error) {
		accountID, err := f.identity.ValidateSession(token)
		if err != nil {
			return nil, err
		}
		return &middleware.SessionClaims{AccountID: accountID}, nil
	}
	protected := middleware.Auth(validate)(http.HandlerFunc(f.handler.Me))

	verifyToken, _, err := f.codec.Sign("acc-1", domain.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+verifyToken)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
