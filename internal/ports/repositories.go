package ports

import (
	"context"
	"time"

	"account-gateway/internal/domain"
)

// RoleStore owns Role records. Write operations that report a modified
// count follow the backing store's single-record atomicity: a count of 1
// means the record was found and changed, 0 means no such record. Success
// is never inferred from the absence of an error alone.
type RoleStore interface {
	ListAll(ctx context.Context) ([]domain.Role, error)
	// Create persists a new role. Returns domain.ErrDuplicate when the
	// identifier is already taken.
	Create(ctx context.Context, role domain.Role) error
	// Delete removes the role and re-verifies the record is gone. True
	// only when it existed and the removal took effect.
	Delete(ctx context.Context, roleID string) (bool, error)
	// SetPermissions replaces the role's permission set in one atomic
	// update and returns the number of records modified.
	SetPermissions(ctx context.Context, roleID string, permissions []string, updatedAt time.Time) (int64, error)
}

// AdminGroupStore owns AdminPermissionGroup records, keyed by the external
// identity-provider group id.
type AdminGroupStore interface {
	ListAll(ctx context.Context) ([]domain.AdminPermissionGroup, error)
	Create(ctx context.Context, group domain.AdminPermissionGroup) error
	Delete(ctx context.Context, groupID string) (bool, error)
	SetPermissions(ctx context.Context, groupID string, permissions []string, updatedAt time.Time) (int64, error)
}

// UserStore reads user profiles and performs single-record role and
// linkage updates.
type UserStore interface {
	GetByID(ctx context.Context, userID string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	// SetRoles replaces the user's assigned-roles set and returns the
	// number of records modified (0 when the user does not exist).
	SetRoles(ctx context.Context, userID string, roleIDs []string, updatedAt time.Time) (int64, error)
	// UnsetOneLogin removes the OneLogin linkage and stamps the unlink
	// audit fields. Returns the number of records modified.
	UnsetOneLogin(ctx context.Context, userID, actor string, unlinkedAt time.Time) (int64, error)
}

// AuthorizationStore resolves opaque tokens to stored authorization
// records. Issuance and revocation are owned elsewhere.
type AuthorizationStore interface {
	GetByToken(ctx context.Context, token string) (domain.AuthorizationRecord, error)
}

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

// Clock abstracts the current time source so expiry checks are testable.
type Clock interface {
	Now() time.Time
}
