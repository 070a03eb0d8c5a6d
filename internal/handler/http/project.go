package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imamteguh/backend-fullstack-taskman/internal/middleware"
	"github.com/imamteguh/backend-fullstack-taskman/internal/service"
)

// ProjectHandler handles HTTP requests for project and task endpoints.
type ProjectHandler struct {
	workspaces *service.WorkspaceService
	logger     *slog.Logger
}

// NewProjectHandler creates a new project HTTP handler.
func NewProjectHandler(workspaces *service.WorkspaceService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{workspaces: workspaces, logger: logger}
}

// --- Request DTOs ---

// CreateProjectRequest is the JSON request body for creating a project.
type CreateProjectRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=planning in_progress on_hold completed"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateProjectRequest is the JSON request body for updating a project.
type UpdateProjectRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=planning in_progress on_hold completed"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateTaskRequest is the JSON request body for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  string     `json:"assignee_id" validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest is the JSON request body for updating a task.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

// --- Project handlers ---

// Create handles POST /api/v1/workspaces/{id}/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	project, err := h.workspaces.CreateProject(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()), service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: project})
}

// List handles GET /api/v1/workspaces/{id}/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.workspaces.ListProjects(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: projects})
}

// Get handles GET /api/v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.workspaces.GetProject(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: project})
}

// Update handles PUT /api/v1/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	project, err := h.workspaces.UpdateProject(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()), service.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: project})
}

// Delete handles DELETE /api/v1/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if err := h.workspaces.DeleteProject(r.Context(), projectID, middleware.AccountIDFromContext(r.Context())); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": projectID, "status": "deleted"}})
}

// --- Task handlers ---

// CreateTask handles POST /api/v1/projects/{id}/tasks
func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	task, err := h.workspaces.CreateTask(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: task})
}

// ListTasks handles GET /api/v1/projects/{id}/tasks
func (h *ProjectHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.workspaces.ListTasks(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: tasks})
}

// ListAssignedTasks handles GET /api/v1/workspaces/{id}/tasks/assigned
func (h *ProjectHandler) ListAssignedTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.workspaces.ListAssignedTasks(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: tasks})
}

// GetTask handles GET /api/v1/tasks/{id}
func (h *ProjectHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.workspaces.GetTask(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: task})
}

// UpdateTask handles PUT /api/v1/tasks/{id}
func (h *ProjectHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	task, err := h.workspaces.UpdateTask(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()), service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: task})
}

// DeleteTask handles DELETE /api/v1/tasks/{id}
func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if err := h.workspaces.DeleteTask(r.Context(), taskID, middleware.AccountIDFromContext(r.Context())); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": taskID, "status": "deleted"}})
}
