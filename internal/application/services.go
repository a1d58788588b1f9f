package application

import (
	"context"
	"errors"

	"account-gateway/internal/domain"
	"account-gateway/internal/ports"
)

// dedupe collapses a permission or role list into a set, preserving first
// occurrence order. A nil input yields an empty, non-nil slice so stored
// sets are never null.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// RoleService is the permission store surface for Role records.
type RoleService struct {
	repo   ports.RoleStore
	clock  ports.Clock
	logger ports.Logger
}

func NewRoleService(repo ports.RoleStore, clock ports.Clock, logger ports.Logger) *RoleService {
	return &RoleService{repo: repo, clock: clock, logger: logger}
}

// ListAll returns the full unordered role set. An empty result means no
// roles are configured and is not an error.
func (s *RoleService) ListAll(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return roles, nil
}

// Add creates a role. False when the identifier is already taken or either
// required field is absent; the store itself only enforces uniqueness.
func (s *RoleService) Add(ctx context.Context, role domain.Role) (bool, error) {
	if role.ID == "" || len(role.Permissions) == 0 {
		return false, domain.ErrInvalidInput
	}
	role.Permissions = dedupe(role.Permissions)
	now := s.clock.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now
	err := s.repo.Create(ctx, role)
	if errors.Is(err, domain.ErrDuplicate) {
		s.logger.Info(ctx, "role already exists", "role_id", role.ID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete returns true only when the role existed and the store verified
// its removal took effect.
func (s *RoleService) Delete(ctx context.Context, roleID string) (bool, error) {
	if roleID == "" {
		return false, domain.ErrInvalidInput
	}
	return s.repo.Delete(ctx, roleID)
}

// Edit replaces the role's permission set. The incoming list is collapsed
// into a set; the update never merges with the stored set. True iff exactly
// one record was modified, so a missing role reports false rather than
// creating anything.
func (s *RoleService) Edit(ctx context.Context, roleID string, permissions []string) (bool, error) {
	if roleID == "" {
		return false, domain.ErrInvalidInput
	}
	count, err := s.repo.SetPermissions(ctx, roleID, dedupe(permissions), s.clock.Now().UTC())
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// AdminGroupService is the permission store surface for admin permission
// groups, keyed by the external identity-provider group id.
type AdminGroupService struct {
	repo   ports.AdminGroupStore
	newID  func() string
	clock  ports.Clock
	logger ports.Logger
}

func NewAdminGroupService(repo ports.AdminGroupStore, newID func() string, clock ports.Clock, logger ports.Logger) *AdminGroupService {
	return &AdminGroupService{repo: repo, newID: newID, clock: clock, logger: logger}
}

func (s *AdminGroupService) ListAll(ctx context.Context) ([]domain.AdminPermissionGroup, error) {
	groups, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []domain.AdminPermissionGroup{}
	}
	return groups, nil
}

// Add inserts a group. A duplicate external group id yields no created
// record and created=false.
func (s *AdminGroupService) Add(ctx context.Context, group domain.AdminPermissionGroup) (domain.AdminPermissionGroup, bool, error) {
	if group.GroupID == "" || group.Name == "" {
		return domain.AdminPermissionGroup{}, false, domain.ErrInvalidInput
	}
	group.ID = s.newID()
	group.Permissions = dedupe(group.Permissions)
	now := s.clock.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	err := s.repo.Create(ctx, group)
	if errors.Is(err, domain.ErrDuplicate) {
		s.logger.Info(ctx, "admin permission group already exists", "group_id", group.GroupID)
		return domain.AdminPermissionGroup{}, false, nil
	}
	if err != nil {
		return domain.AdminPermissionGroup{}, false, err
	}
	return group, true, nil
}

func (s *AdminGroupService) Delete(ctx context.Context, groupID string) (bool, error) {
	if groupID == "" {
		return false, domain.ErrInvalidInput
	}
	return s.repo.Delete(ctx, groupID)
}

// Edit replaces the group's permission set; true iff exactly one record
// was modified.
func (s *AdminGroupService) Edit(ctx context.Context, groupID string, permissions []string) (bool, error) {
	if groupID == "" {
		return false, domain.ErrInvalidInput
	}
	count, err := s.repo.SetPermissions(ctx, groupID, dedupe(permissions), s.clock.Now().UTC())
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// UserService owns user lookups, role assignment and OneLogin unlinking.
type UserService struct {
	userRepo ports.UserStore
	roleRepo ports.RoleStore
	clock    ports.Clock
	logger   ports.Logger
}

func NewUserService(userRepo ports.UserStore, roleRepo ports.RoleStore, clock ports.Clock, logger ports.Logger) *UserService {
	return &UserService{userRepo: userRepo, roleRepo: roleRepo, clock: clock, logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.ErrInvalidInput
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if email == "" {
		return domain.User{}, domain.ErrInvalidInput
	}
	return s.userRepo.FindByEmail(ctx, email)
}

// SetRoles validates every identifier against the role store before
// committing. Any unknown identifiers fail the whole assignment, all of
// them named in the error; nothing is partially applied. When valid, the
// deduplicated set replaces the user's roles in one atomic update and the
// modified count is returned as-is so callers can distinguish a missing
// user (0) themselves.
//
// An empty list is valid and clears the assignment. The existence check
// and the commit are two store calls: a role deleted in between leaves a
// dangling reference, which is accepted.
func (s *UserService) SetRoles(ctx context.Context, userID string, roleIDs []string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	known, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]struct{}, len(known))
	for _, role := range known {
		existing[role.ID] = struct{}{}
	}
	assigned := dedupe(roleIDs)
	var unknown []string
	for _, id := range assigned {
		if _, ok := existing[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return 0, &domain.UnknownRolesError{RoleIDs: unknown}
	}
	return s.userRepo.SetRoles(ctx, userID, assigned, s.clock.Now().UTC())
}

// UnlinkOneLogin removes the user's OneLogin linkage and stamps the unlink
// audit fields with the acting identity. A user with no linkage is a no-op
// success: no store mutation is attempted. The returned bool reports
// whether a mutation happened.
func (s *UserService) UnlinkOneLogin(ctx context.Context, userID, actor string) (bool, error) {
	if userID == "" {
		return false, domain.ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.OneLogin == nil {
		s.logger.Debug(ctx, "user has no one login linkage", "user_id", userID)
		return false, nil
	}
	count, err := s.userRepo.UnsetOneLogin(ctx, userID, actor, s.clock.Now().UTC())
	if err != nil {
		return false, err
	}
	if count != 1 {
		// The record was just read, so a zero count is a store fault,
		// not a missing user.
		s.logger.Error(ctx, "unlink updated no records", "user_id", userID)
		return false, domain.ErrNoRecordUpdated
	}
	return true, nil
}
