package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imamteguh/backend-fullstack-taskman/internal/database"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
)

// WorkspaceRepository implements repository.WorkspaceRepository using PostgreSQL.
type WorkspaceRepository struct {
	db database.DBTX
}

// NewWorkspaceRepository creates a new PostgreSQL-backed workspace repository.
func NewWorkspaceRepository(db database.DBTX) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create inserts a new workspace and its owner membership in a single transaction.
func (r *WorkspaceRepository) Create(ctx context.Context, w *domain.Workspace) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO workspaces (id, name, description, color, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Name, w.Description, w.Color, w.OwnerID, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO workspace_members (workspace_id, account_id, role, joined_at)
		 VALUES ($1, $2, $3, $4)`,
		w.ID, w.OwnerID, domain.RoleOwner, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by its ID.
func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	query := `
		SELECT id, name, description, color, owner_id, created_at, updated_at
		FROM workspaces
		WHERE id = $1`

	var w domain.Workspace
	err := r.db.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.Color,
		&w.OwnerID,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	return &w, nil
}

// ListByMember returns all workspaces the given account belongs to.
func (r *WorkspaceRepository) ListByMember(ctx context.Context, accountID string) ([]domain.Workspace, error) {
	query := `
		SELECT w.id, w.name, w.description, w.color, w.owner_id, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.account_id = $1
		ORDER BY w.created_at DESC`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []domain.Workspace
	for rows.Next() {
		var w domain.Workspace
		if err := rows.Scan(
			&w.ID,
			&w.Name,
			&w.Description,
			&w.Color,
			&w.OwnerID,
			&w.CreatedAt,
			&w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workspace row: %w", err)
		}
		workspaces = append(workspaces, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspace rows: %w", err)
	}

	if workspaces == nil {
		workspaces = []domain.Workspace{}
	}

	return workspaces, nil
}

// Update modifies an existing workspace in the database.
func (r *WorkspaceRepository) Update(ctx context.Context, w *domain.Workspace) error {
	w.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE workspaces
		SET name = $1, description = $2, color = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.db.Exec(ctx, query, w.Name, w.Description, w.Color, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("workspace", w.ID)
	}

	return nil
}

// Delete removes a workspace from the database by its ID. Memberships,
// invites, projects and tasks cascade at the schema level.
func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM workspaces WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("workspace", id)
	}

	return nil
}

// AddMember inserts a membership row for the workspace.
func (r *WorkspaceRepository) AddMember(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO workspace_members (workspace_id, account_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, m.WorkspaceID, m.AccountID, m.Role, m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyMember()
		}
		return fmt.Errorf("insert membership: %w", err)
	}

	return nil
}

// GetMember retrieves the membership of an account in a workspace.
func (r *WorkspaceRepository) GetMember(ctx context.Context, workspaceID, accountID string) (*domain.Member, error) {
	query := `
		SELECT workspace_id, account_id, role, joined_at
		FROM workspace_members
		WHERE workspace_id = $1 AND account_id = $2`

	var m domain.Member
	err := r.db.QueryRow(ctx, query, workspaceID, accountID).Scan(
		&m.WorkspaceID,
		&m.AccountID,
		&m.Role,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan membership: %w", err)
	}

	return &m, nil
}

// ListMembers returns all memberships of a workspace.
func (r *WorkspaceRepository) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	query := `
		SELECT workspace_id, account_id, role, joined_at
		FROM workspace_members
		WHERE workspace_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.WorkspaceID, &m.AccountID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership row: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate membership rows: %w", err)
	}

	if members == nil {
		members = []domain.Member{}
	}

	return members, nil
}

// RemoveMember deletes a membership row from the workspace.
func (r *WorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, accountID string) error {
	query := `DELETE FROM workspace_members WHERE workspace_id = $1 AND account_id = $2`

	ct, err := r.db.Exec(ctx, query, workspaceID, accountID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("membership", accountID)
	}

	return nil
}
