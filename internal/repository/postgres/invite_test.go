package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
)

func newInviteTestFixture(t *testing.T) (*InviteRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewInviteRepository(mock)
	return repo, mock
}

func sampleInvite() *domain.WorkspaceInvite {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.WorkspaceInvite{
		ID:          "inv-1234",
		WorkspaceID: "ws-1234",
		Role:        domain.RoleMember,
		TokenHash:   "hash-abc",
		BoundEmail:  "bob@example.com",
		CreatedBy:   "acc-1234",
		ExpiresAt:   now.Add(7 * 24 * time.Hour),
		CreatedAt:   now,
	}
}

func inviteColumns() []string {
	return []string{
		"id", "workspace_id", "role", "token_hash",
		"bound_email", "created_by", "expires_at", "created_at",
	}
}

func inviteRow(inv *domain.WorkspaceInvite) *pgxmock.Rows {
	return pgxmock.NewRows(inviteColumns()).AddRow(
		inv.ID, inv.WorkspaceID, inv.Role, inv.TokenHash,
		inv.BoundEmail, inv.CreatedBy, inv.ExpiresAt, inv.CreatedAt,
	)
}

func TestInviteRepository_Create_Success(t *testing.T) {
	repo, mock := newInviteTestFixture(t)
	defer mock.Close()

	inv := sampleInvite()

	mock.ExpectExec("INSERT INTO workspace_invites").
		WithArgs(
			inv.ID, inv.WorkspaceID, inv.Role, inv.TokenHash,
			inv.BoundEmail, inv.CreatedBy, inv.ExpiresAt, inv.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), inv)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepository_GetByHash_Success(t *testing.T) {
	repo, mock := newInviteTestFixture(t)
	defer mock.Close()

	inv := sampleInvite()

	mock.ExpectQuery("SELECT .+ FROM workspace_invites WHERE token_hash =").
		WithArgs(inv.TokenHash).
		WillReturnRows(inviteRow(inv))

	got, err := repo.GetByHash(context.Background(), inv.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, inv.WorkspaceID, got.WorkspaceID)
	assert.Equal(t, inv.BoundEmail, got.BoundEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepository_GetByHash_NotFound(t *testing.T) {
	repo, mock := newInviteTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM workspace_invites WHERE token_hash =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByHash(context.Background(), "missing")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepository_ListByWorkspace_Empty(t *testing.T) {
	repo, mock := newInviteTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM workspace_invites WHERE workspace_id =").
		WithArgs("ws-1234").
		WillReturnRows(pgxmock.NewRows(inviteColumns()))

	got, err := repo.ListByWorkspace(context.Background(), "ws-1234")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepository_Delete_AlreadyGone(t *testing.T) {
	repo, mock := newInviteTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM workspace_invites").
		WithArgs("inv-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "inv-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
