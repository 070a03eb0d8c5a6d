package domain

import (
	"time"
)

// Member role constants define the allowed workspace roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ValidRoles returns the set of valid workspace member roles.
func ValidRoles() []string {
	return []string{RoleOwner, RoleAdmin, RoleMember, RoleViewer}
}

// IsValidRole checks whether the given role string is a valid member role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Workspace groups projects and members under one tenant.
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is a workspace membership entry.
type Member struct {
	WorkspaceID string    `json:"workspace_id"`
	AccountID   string    `json:"account_id"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}
