package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
)

func newWorkspaceTestFixture(t *testing.T) (*WorkspaceRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewWorkspaceRepository(mock)
	return repo, mock
}

func sampleWorkspace() *domain.Workspace {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Workspace{
		ID:          "ws-1234",
		Name:        "Marketing",
		Description: "Campaign planning",
		Color:       "#3b82f6",
		OwnerID:     "acc-1234",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestWorkspaceRepository_Create_InsertsOwnerMembership(t *testing.T) {
	repo, mock := newWorkspaceTestFixture(t)
	defer mock.Close()

	w := sampleWorkspace()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").
		WithArgs(w.ID, w.Name, w.Description, w.Color, w.OwnerID, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO workspace_members").
		WithArgs(w.ID, w.OwnerID, domain.RoleOwner, w.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepository_Create_RollsBackOnMembershipFailure(t *testing.T) {
	repo, mock := newWorkspaceTestFixture(t)
	defer mock.Close()

	w := sampleWorkspace()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").
		WithArgs(w.ID, w.Name, w.Description, w.Color, w.OwnerID, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO workspace_members").
		WithArgs(w.ID, w.OwnerID, domain.RoleOwner, w.CreatedAt).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), w)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepository_AddMember_AlreadyMember(t *testing.T) {
	repo, mock := newWorkspaceTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	m := &domain.Member{WorkspaceID: "ws-1234", AccountID: "acc-5678", Role: domain.RoleMember, JoinedAt: now}

	mock.ExpectExec("INSERT INTO workspace_members").
		WithArgs(m.WorkspaceID, m.AccountID, m.Role, m.JoinedAt).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.AddMember(context.Background(), m)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyMember), "expected ErrAlreadyMember, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepository_RemoveMember_NotFound(t *testing.T) {
	repo, mock := newWorkspaceTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM workspace_members").
		WithArgs("ws-1234", "acc-5678").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.RemoveMember(context.Background(), "ws-1234", "acc-5678")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
