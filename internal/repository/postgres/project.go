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

// ProjectRepository implements repository.ProjectRepository using PostgreSQL.
type ProjectRepository struct {
	db database.DBTX
}

// NewProjectRepository creates a new PostgreSQL-backed project repository.
func NewProjectRepository(db database.DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project into the database.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	query := `
		INSERT INTO projects (id, workspace_id, title, description, status, start_date, due_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.WorkspaceID,
		p.Title,
		p.Description,
		p.Status,
		p.StartDate,
		p.DueDate,
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `
		SELECT id, workspace_id, title, description, status, start_date, due_date, created_by, created_at, updated_at
		FROM projects
		WHERE id = $1`

	var p domain.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.WorkspaceID,
		&p.Title,
		&p.Description,
		&p.Status,
		&p.StartDate,
		&p.DueDate,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}

	return &p, nil
}

// ListByWorkspace returns all projects in the given workspace.
func (r *ProjectRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	query := `
		SELECT id, workspace_id, title, description, status, start_date, due_date, created_by, created_at, updated_at
		FROM projects
		WHERE workspace_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(
			&p.ID,
			&p.WorkspaceID,
			&p.Title,
			&p.Description,
			&p.Status,
			&p.StartDate,
			&p.DueDate,
			&p.CreatedBy,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rows: %w", err)
	}

	if projects == nil {
		projects = []domain.Project{}
	}

	return projects, nil
}

// Update modifies an existing project in the database.
func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE projects
		SET title = $1, description = $2, status = $3, start_date = $4, due_date = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		p.Title,
		p.Description,
		p.Status,
		p.StartDate,
		p.DueDate,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("project", p.ID)
	}

	return nil
}

// Delete removes a project from the database by its ID.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("project", id)
	}

	return nil
}
