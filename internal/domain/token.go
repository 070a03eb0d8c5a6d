package domain

import (
	"time"
)

// TokenPurpose is the intended one-time use of a token. A token issued for one
// purpose is never accepted for another.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email-verification"
	PurposePasswordReset     TokenPurpose = "password-reset"
	PurposeWorkspaceInvite   TokenPurpose = "workspace-invite"
	PurposeLogin             TokenPurpose = "login"
)

// ValidPurposes returns the set of purposes that get a persisted token record.
func ValidPurposes() []TokenPurpose {
	return []TokenPurpose{PurposeEmailVerification, PurposePasswordReset, PurposeWorkspaceInvite}
}

// AuthToken is the persisted witness record for an outstanding single-use
// token. The signed claim string proves authenticity; this record is the
// source of truth for exactly-once consumption. Only the SHA-256 hash of the
// signed string is stored.
type AuthToken struct {
	ID        string       `json:"id"`
	AccountID string       `json:"account_id"`
	Purpose   TokenPurpose `json:"purpose"`
	TokenHash string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// Active reports whether the record's expiry has not yet passed.
func (t *AuthToken) Active(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// WorkspaceInvite is the persisted record for an outstanding workspace
// invitation token. BoundEmail is empty for open "generate link" invites that
// any authenticated account may accept.
type WorkspaceInvite struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Role        string    `json:"role"`
	TokenHash   string    `json:"-"`
	BoundEmail  string    `json:"bound_email,omitempty"`
	CreatedBy   string    `json:"created_by"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Active reports whether the invite's expiry has not yet passed.
func (i *WorkspaceInvite) Active(now time.Time) bool {
	return now.Before(i.ExpiresAt)
}
