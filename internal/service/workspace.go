package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
	"github.com/imamteguh/backend-fullstack-taskman/internal/event"
	"github.com/imamteguh/backend-fullstack-taskman/internal/notify"
	"github.com/imamteguh/backend-fullstack-taskman/internal/repository"
)

// InviteTokenTTL is the lifetime of a workspace invitation.
const InviteTokenTTL = 7 * 24 * time.Hour

// WorkspaceService implements workspace, project and task operations,
// plus the invitation flow.
type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	projectRepo   repository.ProjectRepository
	taskRepo      repository.TaskRepository
	inviteRepo    repository.InviteRepository
	accountRepo   repository.AccountRepository
	codec         *auth.TokenCodec
	mailer        notify.Mailer
	producer      *event.Producer
	frontendURL   string
	logger        *slog.Logger
}

// NewWorkspaceService creates a new workspace service.
func NewWorkspaceService(
	workspaceRepo repository.WorkspaceRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	inviteRepo repository.InviteRepository,
	accountRepo repository.AccountRepository,
	codec *auth.TokenCodec,
	mailer notify.Mailer,
	producer *event.Producer,
	frontendURL string,
	logger *slog.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		projectRepo:   projectRepo,
		taskRepo:      taskRepo,
		inviteRepo:    inviteRepo,
		accountRepo:   accountRepo,
		codec:         codec,
		mailer:        mailer,
		producer:      producer,
		frontendURL:   frontendURL,
		logger:        logger,
	}
}

// --- Workspace operations ---

// CreateWorkspaceInput holds the parameters for creating a workspace.
type CreateWorkspaceInput struct {
	Name        string
	Description string
	Color       string
}

// CreateWorkspace creates a workspace owned by the given account. The
// creator becomes the workspace's owner member.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, ownerID string, input CreateWorkspaceInput) (*domain.Workspace, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("workspace name is required")
	}

	now := time.Now().UTC()
	workspace := &domain.Workspace{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	s.logger.InfoContext(ctx, "workspace created",
		slog.String("workspace_id", workspace.ID),
		slog.String("owner_id", ownerID),
	)

	return workspace, nil
}

// ListWorkspaces returns all workspaces the account is a member of.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context, accountID string) ([]domain.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListByMember(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return workspaces, nil
}

// GetWorkspace returns a workspace, gated on the caller's membership.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, workspaceID, accountID string) (*domain.Workspace, error) {
	if _, err := s.requireMember(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return workspace, nil
}

// UpdateWorkspaceInput holds the parameters for updating a workspace.
type UpdateWorkspaceInput struct {
	Name        *string
	Description *string
	Color       *string
}

// UpdateWorkspace updates a workspace's fields. Only owners and admins
// may update.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, workspaceID, accountID string, input UpdateWorkspaceInput) (*domain.Workspace, error) {
	member, err := s.requireMember(ctx, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	if member.Role != domain.RoleOwner && member.Role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("only owners and admins can update the workspace")
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("workspace name must not be empty")
		}
		workspace.Name = *input.Name
	}
	if input.Description != nil {
		workspace.Description = *input.Description
	}
	if input.Color != nil {
		workspace.Color = *input.Color
	}

	if err := s.workspaceRepo.Update(ctx, workspace); err != nil {
		return nil, fmt.Errorf("update workspace: %w", err)
	}

	s.logger.InfoContext(ctx, "workspace updated",
		slog.String("workspace_id", workspaceID),
	)

	return workspace, nil
}

// DeleteWorkspace deletes a workspace and everything under it. Owner only.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, workspaceID, accountID string) error {
	member, err := s.requireMember(ctx, workspaceID, accountID)
	if err != nil {
		return err
	}
	if member.Role != domain.RoleOwner {
		return apperrors.Forbidden("only the owner can delete the workspace")
	}

	if err := s.workspaceRepo.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	s.logger.InfoContext(ctx, "workspace deleted",
		slog.String("workspace_id", workspaceID),
	)

	return nil
}

// ListMembers returns all memberships of a workspace, gated on the
// caller's membership.
func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID, accountID string) ([]domain.Member, error) {
	if _, err := s.requireMember(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}

	members, err := s.workspaceRepo.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// RemoveMember removes an account from a workspace. Owners and admins
// can remove others; any member can remove themselves to leave. The
// owner's membership cannot be removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, workspaceID, accountID, targetID string) error {
	member, err := s.requireMember(ctx, workspaceID, accountID)
	if err != nil {
		return err
	}
	if accountID != targetID && member.Role != domain.RoleOwner && member.Role != domain.RoleAdmin {
		return apperrors.Forbidden("only owners and admins can remove members")
	}

	target, err := s.workspaceRepo.GetMember(ctx, workspaceID, targetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("membership", targetID)
		}
		return fmt.Errorf("load membership: %w", err)
	}
	if target.Role == domain.RoleOwner {
		return apperrors.Forbidden("the workspace owner cannot be removed")
	}

	if err := s.workspaceRepo.RemoveMember(ctx, workspaceID, targetID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	s.logger.InfoContext(ctx, "member removed",
		slog.String("workspace_id", workspaceID),
		slog.String("account_id", targetID),
	)

	return nil
}

// --- Invitation flow ---

// CreateInviteInput holds the parameters for issuing an invitation.
type CreateInviteInput struct {
	// Email binds the invite to a specific address. Empty means an open
	// invite link any authenticated account can accept.
	Email string
	Role  string
}

// CreateInvite issues a workspace invitation token. Bound-email invites
// are also delivered by mail; open invites just return the link.
func (s *WorkspaceService) CreateInvite(ctx context.Context, workspaceID, creatorID string, input CreateInviteInput) (string, error) {
	member, err := s.requireMember(ctx, workspaceID, creatorID)
	if err != nil {
		return "", err
	}
	if member.Role != domain.RoleOwner && member.Role != domain.RoleAdmin {
		return "", apperrors.Forbidden("only owners and admins can invite members")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !domain.IsValidRole(role) || role == domain.RoleOwner {
		return "", apperrors.InvalidInput("invalid role for invitation")
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return "", fmt.Errorf("get workspace: %w", err)
	}

	tokenString, expiresAt, err := s.codec.Sign(workspaceID, domain.PurposeWorkspaceInvite, InviteTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign invite token: %w", err)
	}

	invite := &domain.WorkspaceInvite{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Role:        role,
		TokenHash:   hashToken(tokenString),
		BoundEmail:  normalizeEmail(input.Email),
		CreatedBy:   creatorID,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}

	s.logger.InfoContext(ctx, "invite created",
		slog.String("workspace_id", workspaceID),
		slog.String("invite_id", invite.ID),
		slog.String("role", role),
	)

	if invite.BoundEmail != "" {
		body := fmt.Sprintf(
			"You have been invited to join the workspace %q. Accept the invitation within 7 days:\n\n%s/invites/accept?token=%s",
			workspace.Name, s.frontendURL, tokenString,
		)
		if err := s.mailer.Send(ctx, invite.BoundEmail, "Workspace invitation", body); err != nil {
			// The invite stays valid; the creator can still share the link.
			return tokenString, err
		}
	}

	return tokenString, nil
}

// AcceptInvite validates an invitation token for the accepting account,
// appends the membership, and consumes the invite. A bound-email invite
// only accepts from the matching account.
func (s *WorkspaceService) AcceptInvite(ctx context.Context, accountID, tokenString string) (*domain.Member, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrClaimExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken()
	}
	if claims.Purpose != string(domain.PurposeWorkspaceInvite) {
		return nil, apperrors.WrongPurpose()
	}

	invite, err := s.inviteRepo.GetByHash(ctx, hashToken(tokenString))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidToken()
		}
		return nil, fmt.Errorf("look up invite: %w", err)
	}

	if !invite.Active(time.Now().UTC()) {
		return nil, apperrors.TokenExpired()
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if invite.BoundEmail != "" && invite.BoundEmail != account.Email {
		return nil, apperrors.Forbidden("this invitation was issued for a different email address")
	}

	if _, err := s.workspaceRepo.GetMember(ctx, invite.WorkspaceID, accountID); err == nil {
		return nil, apperrors.AlreadyMember()
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	member := &domain.Member{
		WorkspaceID: invite.WorkspaceID,
		AccountID:   accountID,
		Role:        invite.Role,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	// Consume only after the membership is recorded.
	if err := s.inviteRepo.Delete(ctx, invite.ID); err != nil {
		return nil, fmt.Errorf("consume invite: %w", err)
	}

	if err := s.producer.PublishInviteAccepted(ctx, invite.WorkspaceID, accountID, invite.Role); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish workspace.invite_accepted event",
			slog.String("workspace_id", invite.WorkspaceID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "invite accepted",
		slog.String("workspace_id", invite.WorkspaceID),
		slog.String("account_id", accountID),
		slog.String("role", invite.Role),
	)

	return member, nil
}

// ListInvites returns the pending invitations of a workspace, gated on
// owner or admin membership.
func (s *WorkspaceService) ListInvites(ctx context.Context, workspaceID, accountID string) ([]domain.WorkspaceInvite, error) {
	member, err := s.requireMember(ctx, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	if member.Role != domain.RoleOwner && member.Role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("only owners and admins can list invitations")
	}

	invites, err := s.inviteRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

// --- Project operations ---

// CreateProjectInput holds the parameters for creating a project.
type CreateProjectInput struct {
	Title       string
	Description string
	Status      string
	StartDate   *time.Time
	DueDate     *time.Time
}

// CreateProject creates a project in a workspace, gated on membership.
func (s *WorkspaceService) CreateProject(ctx context.Context, workspaceID, accountID string, input CreateProjectInput) (*domain.Project, error) {
	if _, err := s.requireMember(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}

	if input.Title == "" {
		return nil, apperrors.InvalidInput("project title is required")
	}

	status := input.Status
	if status == "" {
		status = domain.ProjectStatusPlanning
	}
	if !domain.IsValidProjectStatus(status) {
		return nil, apperrors.InvalidInput("invalid project status")
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		CreatedBy:   accountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.InfoContext(ctx, "project created",
		slog.String("workspace_id", workspaceID),
		slog.String("project_id", project.ID),
	)

	return project, nil
}

// ListProjects returns all projects in a workspace, gated on membership.
func (s *WorkspaceService) ListProjects(ctx context.Context, workspaceID, accountID string) ([]domain.Project, error) {
	if _, err := s.requireMember(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project, gated on workspace membership.
func (s *WorkspaceService) GetProject(ctx context.Context, projectID, accountID string) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return nil, err
	}

	return project, nil
}

// UpdateProjectInput holds the parameters for updating a project.
type UpdateProjectInput struct {
	Title       *string
	Description *string
	Status      *string
	StartDate   *time.Time
	DueDate     *time.Time
}

// UpdateProject updates a project's fields, gated on workspace membership.
func (s *WorkspaceService) UpdateProject(ctx context.Context, projectID, accountID string, input UpdateProjectInput) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project for update: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("project title must not be empty")
		}
		project.Title = *input.Title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !domain.IsValidProjectStatus(*input.Status) {
			return nil, apperrors.InvalidInput("invalid project status")
		}
		project.Status = *input.Status
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.DueDate != nil {
		project.DueDate = input.DueDate
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.logger.InfoContext(ctx, "project updated",
		slog.String("project_id", projectID),
	)

	return project, nil
}

// DeleteProject deletes a project and its tasks, gated on workspace
// membership.
func (s *WorkspaceService) DeleteProject(ctx context.Context, projectID, accountID string) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project for delete: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.logger.InfoContext(ctx, "project deleted",
		slog.String("project_id", projectID),
	)

	return nil
}

// --- Task operations ---

// CreateTaskInput holds the parameters for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  string
	DueDate     *time.Time
}

// CreateTask creates a task in a project, gated on workspace membership.
func (s *WorkspaceService) CreateTask(ctx context.Context, projectID, accountID string, input CreateTaskInput) (*domain.Task, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return nil, err
	}

	if input.Title == "" {
		return nil, apperrors.InvalidInput("task title is required")
	}

	status := input.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	if !domain.IsValidTaskStatus(status) {
		return nil, apperrors.InvalidInput("invalid task status")
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !domain.IsValidTaskPriority(priority) {
		return nil, apperrors.InvalidInput("invalid task priority")
	}

	if input.AssigneeID != "" {
		if _, err := s.workspaceRepo.GetMember(ctx, project.WorkspaceID, input.AssigneeID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.InvalidInput("assignee is not a workspace member")
			}
			return nil, fmt.Errorf("check assignee: %w", err)
		}
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		CreatedBy:   accountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.InfoContext(ctx, "task created",
		slog.String("project_id", projectID),
		slog.String("task_id", task.ID),
	)

	return task, nil
}

// ListTasks returns all tasks of a project, gated on workspace membership.
func (s *WorkspaceService) ListTasks(ctx context.Context, projectID, accountID string) ([]domain.Task, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task, gated on workspace membership.
func (s *WorkspaceService) GetTask(ctx context.Context, taskID, accountID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	project, err := s.projectRepo.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return nil, err
	}

	return task, nil
}

// ListAssignedTasks returns the caller's assigned tasks across a
// workspace, gated on membership.
func (s *WorkspaceService) ListAssignedTasks(ctx context.Context, workspaceID, accountID string) ([]domain.Task, error) {
	if _, err := s.requireMember(ctx, workspaceID, accountID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByAssignee(ctx, workspaceID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskInput holds the parameters for updating a task.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  *string
	DueDate     *time.Time
}

// UpdateTask updates a task's fields, gated on workspace membership.
func (s *WorkspaceService) UpdateTask(ctx context.Context, taskID, accountID string, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task for update: %w", err)
	}

	project, err := s.projectRepo.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("task title must not be empty")
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !domain.IsValidTaskStatus(*input.Status) {
			return nil, apperrors.InvalidInput("invalid task status")
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !domain.IsValidTaskPriority(*input.Priority) {
			return nil, apperrors.InvalidInput("invalid task priority")
		}
		task.Priority = *input.Priority
	}
	if input.AssigneeID != nil {
		if *input.AssigneeID != "" {
			if _, err := s.workspaceRepo.GetMember(ctx, project.WorkspaceID, *input.AssigneeID); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil, apperrors.InvalidInput("assignee is not a workspace member")
				}
				return nil, fmt.Errorf("check assignee: %w", err)
			}
		}
		task.AssigneeID = *input.AssigneeID
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.logger.InfoContext(ctx, "task updated",
		slog.String("task_id", taskID),
	)

	return task, nil
}

// DeleteTask deletes a task, gated on workspace membership.
func (s *WorkspaceService) DeleteTask(ctx context.Context, taskID, accountID string) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task for delete: %w", err)
	}

	project, err := s.projectRepo.GetByID(ctx, task.ProjectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	if _, err := s.requireMember(ctx, project.WorkspaceID, accountID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.logger.InfoContext(ctx, "task deleted",
		slog.String("task_id", taskID),
	)

	return nil
}

// requireMember loads the caller's membership, mapping absence to NotFound
// so non-members cannot distinguish a hidden workspace from a missing one.
func (s *WorkspaceService) requireMember(ctx context.Context, workspaceID, accountID string) (*domain.Member, error) {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("workspace", workspaceID)
		}
		return nil, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}
