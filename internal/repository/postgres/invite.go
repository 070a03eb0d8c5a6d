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

// InviteRepository implements repository.InviteRepository using PostgreSQL.
type InviteRepository struct {
	db database.DBTX
}

// NewInviteRepository creates a new PostgreSQL-backed invite repository.
func NewInviteRepository(db database.DBTX) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create stores a new invitation record.
func (r *InviteRepository) Create(ctx context.Context, inv *domain.WorkspaceInvite) error {
	query := `
		INSERT INTO workspace_invites (id, workspace_id, role, token_hash, bound_email, created_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		inv.ID,
		inv.WorkspaceID,
		inv.Role,
		inv.TokenHash,
		inv.BoundEmail,
		inv.CreatedBy,
		inv.ExpiresAt,
		inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}

	return nil
}

// GetByHash retrieves an invitation by its token hash.
func (r *InviteRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.WorkspaceInvite, error) {
	query := `
		SELECT id, workspace_id, role, token_hash, bound_email, created_by, expires_at, created_at
		FROM workspace_invites
		WHERE token_hash = $1`

	var inv domain.WorkspaceInvite
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&inv.ID,
		&inv.WorkspaceID,
		&inv.Role,
		&inv.TokenHash,
		&inv.BoundEmail,
		&inv.CreatedBy,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan invite: %w", err)
	}

	return &inv, nil
}

// ListByWorkspace returns all pending invitations for a workspace.
func (r *InviteRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.WorkspaceInvite, error) {
	query := `
		SELECT id, workspace_id, role, token_hash, bound_email, created_by, expires_at, created_at
		FROM workspace_invites
		WHERE workspace_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var invites []domain.WorkspaceInvite
	for rows.Next() {
		var inv domain.WorkspaceInvite
		if err := rows.Scan(
			&inv.ID,
			&inv.WorkspaceID,
			&inv.Role,
			&inv.TokenHash,
			&inv.BoundEmail,
			&inv.CreatedBy,
			&inv.ExpiresAt,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invite row: %w", err)
		}
		invites = append(invites, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite rows: %w", err)
	}

	if invites == nil {
		invites = []domain.WorkspaceInvite{}
	}

	return invites, nil
}

// Delete removes an invitation record by its ID. An invitation already
// accepted by a concurrent request is not an error.
func (r *InviteRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM workspace_invites WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}

	return nil
}
