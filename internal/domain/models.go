package domain

import "time"

// Role bundles a set of permission strings under an opaque identifier.
// Permissions carry set semantics: order-irrelevant, no duplicates, never
// nil once the role exists (empty is valid).
type Role struct {
	ID          string    `json:"id"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdminPermissionGroup is a role-like permission bundle keyed additionally
// by an identity-provider group id. GroupID is unique across all groups.
type AdminPermissionGroup struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OneLoginData records a user's link to an external OneLogin identity.
type OneLoginData struct {
	UserID   string    `json:"user_id"`
	LinkedAt time.Time `json:"linked_at"`
}

// User is an account profile plus its assigned-roles set. Roles holds role
// identifiers, never the role records themselves; a role deleted after
// assignment leaves a dangling identifier behind, which is accepted.
type User struct {
	ID          string        `json:"id"`
	Forename    string        `json:"forename"`
	Surname     string        `json:"surname"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email"`
	Locale      string        `json:"locale"`
	Roles       []string      `json:"roles"`
	OneLogin    *OneLoginData `json:"one_login,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	UnlinkedBy  string        `json:"unlinked_by,omitempty"`
	UnlinkedAt  *time.Time    `json:"unlinked_at,omitempty"`
}

// AuthorizationRecord is a previously issued OAuth2 credential as stored by
// the token-issuing subsystem. This service only reads it and checks expiry.
type AuthorizationRecord struct {
	Token            string            `json:"token"`
	Expires          int64             `json:"expires"` // epoch seconds
	RequestedScope   string            `json:"requested_scope"`
	Permissions      map[string]bool   `json:"permissions"`
	TokenPermissions map[string]string `json:"token_permissions"`
	Revoked          bool              `json:"revoked"`
	UserID           string            `json:"user_id"`
	UserEmail        string            `json:"user_email"`
}
