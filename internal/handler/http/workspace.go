package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imamteguh/backend-fullstack-taskman/internal/middleware"
	"github.com/imamteguh/backend-fullstack-taskman/internal/service"
)

// WorkspaceHandler handles HTTP requests for workspace, membership and
// invitation endpoints.
type WorkspaceHandler struct {
	workspaces *service.WorkspaceService
	logger     *slog.Logger
}

// NewWorkspaceHandler creates a new workspace HTTP handler.
func NewWorkspaceHandler(workspaces *service.WorkspaceService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, logger: logger}
}

// --- Request DTOs ---

// CreateWorkspaceRequest is the JSON request body for creating a workspace.
type CreateWorkspaceRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Color       string `json:"color" validate:"omitempty,max=20"`
}

// UpdateWorkspaceRequest is the JSON request body for updating a workspace.
type UpdateWorkspaceRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,max=20"`
}

// CreateInviteRequest is the JSON request body for issuing an invitation.
type CreateInviteRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member viewer"`
}

// AcceptInviteRequest is the JSON request body for accepting an invitation.
type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Workspace handlers ---

// Create handles POST /api/v1/workspaces
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkspaceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	workspace, err := h.workspaces.CreateWorkspace(r.Context(), middleware.AccountIDFromContext(r.Context()), service.CreateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: workspace})
}

// List handles GET /api/v1/workspaces
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.workspaces.ListWorkspaces(r.Context(), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: workspaces})
}

// Get handles GET /api/v1/workspaces/{id}
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspace, err := h.workspaces.GetWorkspace(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: workspace})
}

// Update handles PUT /api/v1/workspaces/{id}
func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateWorkspaceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	workspace, err := h.workspaces.UpdateWorkspace(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()), service.UpdateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: workspace})
}

// Delete handles DELETE /api/v1/workspaces/{id}
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")
	if err := h.workspaces.DeleteWorkspace(r.Context(), workspaceID, middleware.AccountIDFromContext(r.Context())); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": workspaceID, "status": "deleted"}})
}

// --- Membership handlers ---

// ListMembers handles GET /api/v1/workspaces/{id}/members
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.workspaces.ListMembers(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: members})
}

// RemoveMember handles DELETE /api/v1/workspaces/{id}/members/{accountId}
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "accountId")

	if err := h.workspaces.RemoveMember(r.Context(), workspaceID, middleware.AccountIDFromContext(r.Context()), targetID); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"account_id": targetID, "status": "removed"}})
}

// --- Invitation handlers ---

// CreateInvite handles POST /api/v1/workspaces/{id}/invites
func (h *WorkspaceHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req CreateInviteRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	token, err := h.workspaces.CreateInvite(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()), service.CreateInviteInput{
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: map[string]string{"token": token}})
}

// ListInvites handles GET /api/v1/workspaces/{id}/invites
func (h *WorkspaceHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.workspaces.ListInvites(r.Context(), chi.URLParam(r, "id"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: invites})
}

// AcceptInvite handles POST /api/v1/invites/accept
func (h *WorkspaceHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	member, err := h.workspaces.AcceptInvite(r.Context(), middleware.AccountIDFromContext(r.Context()), req.Token)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: member})
}
