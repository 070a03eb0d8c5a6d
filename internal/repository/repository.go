package repository

import (
	"context"

	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
)

// AccountRepository defines the interface for account persistence operations.
type AccountRepository interface {
	// Create inserts a new account into the store.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByEmail retrieves an account by its email address.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Update modifies an existing account in the store.
	Update(ctx context.Context, account *domain.Account) error

	// Delete removes an account from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// TokenRepository defines the interface for single-use token persistence.
type TokenRepository interface {
	// Create stores a new token record.
	Create(ctx context.Context, token *domain.AuthToken) error

	// GetByHash retrieves a token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.AuthToken, error)

	// GetByAccountAndPurpose retrieves the token held by an account for
	// the given purpose. At most one such record exists at a time.
	GetByAccountAndPurpose(ctx context.Context, accountID string, purpose domain.TokenPurpose) (*domain.AuthToken, error)

	// Delete removes a token record by its identifier. Deleting a token
	// that no longer exists is not an error.
	Delete(ctx context.Context, id string) error
}

// InviteRepository defines the interface for workspace invitation persistence.
type InviteRepository interface {
	// Create stores a new invitation record.
	Create(ctx context.Context, invite *domain.WorkspaceInvite) error

	// GetByHash retrieves an invitation by its token hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.WorkspaceInvite, error)

	// ListByWorkspace returns all pending invitations for a workspace.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.WorkspaceInvite, error)

	// Delete removes an invitation record by its identifier. Deleting an
	// invitation that no longer exists is not an error.
	Delete(ctx context.Context, id string) error
}

// WorkspaceRepository defines the interface for workspace and membership
// persistence operations.
type WorkspaceRepository interface {
	// Create inserts a new workspace and its owner membership.
	Create(ctx context.Context, workspace *domain.Workspace) error

	// GetByID retrieves a workspace by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)

	// ListByMember returns all workspaces the given account belongs to.
	ListByMember(ctx context.Context, accountID string) ([]domain.Workspace, error)

	// Update modifies an existing workspace in the store.
	Update(ctx context.Context, workspace *domain.Workspace) error

	// Delete removes a workspace and its memberships from the store.
	Delete(ctx context.Context, id string) error

	// AddMember inserts a membership row for the workspace.
	AddMember(ctx context.Context, member *domain.Member) error

	// GetMember retrieves the membership of an account in a workspace.
	GetMember(ctx context.Context, workspaceID, accountID string) (*domain.Member, error)

	// ListMembers returns all memberships of a workspace.
	ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)

	// RemoveMember deletes a membership row from the workspace.
	RemoveMember(ctx context.Context, workspaceID, accountID string) error
}

// ProjectRepository defines the interface for project persistence operations.
type ProjectRepository interface {
	// Create inserts a new project into the store.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Project, error)

	// ListByWorkspace returns all projects in the given workspace.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error)

	// Update modifies an existing project in the store.
	Update(ctx context.Context, project *domain.Project) error

	// Delete removes a project from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// TaskRepository defines the interface for task persistence operations.
type TaskRepository interface {
	// Create inserts a new task into the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// ListByProject returns all tasks in the given project.
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)

	// ListByAssignee returns all tasks assigned to the given account
	// across a workspace.
	ListByAssignee(ctx context.Context, workspaceID, accountID string) ([]domain.Task, error)

	// Update modifies an existing task in the store.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
