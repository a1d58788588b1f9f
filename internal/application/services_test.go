package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"account-gateway/internal/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testClock = fixedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Debug(context.Context, string, ...any) {}

type roleStoreMock struct{ mock.Mock }

func (m *roleStoreMock) ListAll(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *roleStoreMock) Create(ctx context.Context, role domain.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *roleStoreMock) Delete(ctx context.Context, roleID string) (bool, error) {
	args := m.Called(ctx, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *roleStoreMock) SetPermissions(ctx context.Context, roleID string, permissions []string, updatedAt time.Time) (int64, error) {
	args := m.Called(ctx, roleID, permissions, updatedAt)
	return args.Get(0).(int64), args.Error(1)
}

type groupStoreMock struct{ mock.Mock }

func (m *groupStoreMock) ListAll(ctx context.Context) ([]domain.AdminPermissionGroup, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AdminPermissionGroup), args.Error(1)
}

func (m *groupStoreMock) Create(ctx context.Context, group domain.AdminPermissionGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *groupStoreMock) Delete(ctx context.Context, groupID string) (bool, error) {
	args := m.Called(ctx, groupID)
	return args.Bool(0), args.Error(1)
}

func (m *groupStoreMock) SetPermissions(ctx context.Context, groupID string, permissions []string, updatedAt time.Time) (int64, error) {
	args := m.Called(ctx, groupID, permissions, updatedAt)
	return args.Get(0).(int64), args.Error(1)
}

type userStoreMock struct{ mock.Mock }

func (m *userStoreMock) GetByID(ctx context.Context, userID string) (domain.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userStoreMock) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userStoreMock) SetRoles(ctx context.Context, userID string, roleIDs []string, updatedAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, roleIDs, updatedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *userStoreMock) UnsetOneLogin(ctx context.Context, userID, actor string, unlinkedAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, actor, unlinkedAt)
	return args.Get(0).(int64), args.Error(1)
}

func TestRoleService_Add(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})

	repo.On("Create", mock.Anything, mock.MatchedBy(func(role domain.Role) bool {
		return role.ID == "admin" &&
			assert.ObjectsAreEqual([]string{"p1", "p2"}, role.Permissions) &&
			role.CreatedAt.Equal(testClock.now) && role.UpdatedAt.Equal(testClock.now)
	})).Return(nil)

	created, err := svc.Add(context.Background(), domain.Role{ID: "admin", Permissions: []string{"p1", "p2", "p1"}})
	require.NoError(t, err)
	assert.True(t, created)
	repo.AssertExpectations(t)
}

func TestRoleService_AddDuplicate(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicate)

	created, err := svc.Add(context.Background(), domain.Role{ID: "admin", Permissions: []string{"p1"}})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRoleService_AddInvalidInput(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})

	_, err := svc.Add(context.Background(), domain.Role{ID: "", Permissions: []string{"p1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Add(context.Background(), domain.Role{ID: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRoleService_ListAllEmptyIsNotAnError(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})
	repo.On("ListAll", mock.Anything).Return([]domain.Role(nil), nil)

	roles, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, roles)
	assert.Empty(t, roles)
}

func TestRoleService_EditReplacesAndDeduplicates(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})
	repo.On("SetPermissions", mock.Anything, "supervisor", []string{"p99"}, testClock.now).Return(int64(1), nil)

	updated, err := svc.Edit(context.Background(), "supervisor", []string{"p99", "p99"})
	require.NoError(t, err)
	assert.True(t, updated)
	repo.AssertExpectations(t)
}

func TestRoleService_EditMissingRole(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})
	repo.On("SetPermissions", mock.Anything, "ghost", []string{"p1"}, testClock.now).Return(int64(0), nil)

	updated, err := svc.Edit(context.Background(), "ghost", []string{"p1"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestRoleService_Delete(t *testing.T) {
	repo := new(roleStoreMock)
	svc := NewRoleService(repo, testClock, nopLogger{})
	repo.On("Delete", mock.Anything, "admin").Return(true, nil)

	removed, err := svc.Delete(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, removed)
}

// memoryRoleStore backs the end-to-end store scenario where mock
// expectations would obscure the stateful sequence.
type memoryRoleStore struct {
	roles map[string][]string
}

func newMemoryRoleStore() *memoryRoleStore {
	return &memoryRoleStore{roles: map[string][]string{}}
}

func (s *memoryRoleStore) ListAll(context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(s.roles))
	for id, perms := range s.roles {
		out = append(out, domain.Role{ID: id, Permissions: perms})
	}
	return out, nil
}

func (s *memoryRoleStore) Create(_ context.Context, role domain.Role) error {
	if _, ok := s.roles[role.ID]; ok {
		return domain.ErrDuplicate
	}
	s.roles[role.ID] = role.Permissions
	return nil
}

func (s *memoryRoleStore) Delete(_ context.Context, roleID string) (bool, error) {
	if _, ok := s.roles[roleID]; !ok {
		return false, nil
	}
	delete(s.roles, roleID)
	_, stillThere := s.roles[roleID]
	return !stillThere, nil
}

func (s *memoryRoleStore) SetPermissions(_ context.Context, roleID string, permissions []string, _ time.Time) (int64, error) {
	if _, ok := s.roles[roleID]; !ok {
		return 0, nil
	}
	s.roles[roleID] = permissions
	return 1, nil
}

func TestRoleService_StoreScenario(t *testing.T) {
	store := newMemoryRoleStore()
	svc := NewRoleService(store, testClock, nopLogger{})
	ctx := context.Background()

	created, err := svc.Add(ctx, domain.Role{ID: "admin", Permissions: []string{"p1", "p2"}})
	require.NoError(t, err)
	require.True(t, created)
	created, err = svc.Add(ctx, domain.Role{ID: "supervisor", Permissions: []string{"p3", "p4"}})
	require.NoError(t, err)
	require.True(t, created)

	roles, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	removed, err := svc.Delete(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, removed)

	roles, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	updated, err := svc.Edit(ctx, "supervisor", []string{"p99"})
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, []string{"p99"}, store.roles["supervisor"])
}

func TestAdminGroupService_Add(t *testing.T) {
	repo := new(groupStoreMock)
	svc := NewAdminGroupService(repo, func() string { return "generated-id" }, testClock, nopLogger{})

	repo.On("Create", mock.Anything, mock.MatchedBy(func(g domain.AdminPermissionGroup) bool {
		return g.ID == "generated-id" && g.GroupID == "idp-group-1" && g.Name == "Support"
	})).Return(nil)

	group, created, err := svc.Add(context.Background(), domain.AdminPermissionGroup{
		GroupID:     "idp-group-1",
		Name:        "Support",
		Permissions: []string{"p1"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "generated-id", group.ID)
}

func TestAdminGroupService_AddDuplicateGroupID(t *testing.T) {
	repo := new(groupStoreMock)
	svc := NewAdminGroupService(repo, func() string { return "generated-id" }, testClock, nopLogger{})
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicate)

	group, created, err := svc.Add(context.Background(), domain.AdminPermissionGroup{GroupID: "idp-group-1", Name: "Support"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, group.ID, "no record may be created for a duplicate external group id")
}

func TestAdminGroupService_EditMissingGroup(t *testing.T) {
	repo := new(groupStoreMock)
	svc := NewAdminGroupService(repo, func() string { return "generated-id" }, testClock, nopLogger{})
	repo.On("SetPermissions", mock.Anything, "ghost", []string{"p1"}, testClock.now).Return(int64(0), nil)

	updated, err := svc.Edit(context.Background(), "ghost", []string{"p1"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestUserService_SetRolesUnknownRole(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	roleRepo.On("ListAll", mock.Anything).Return([]domain.Role{{ID: "admin"}}, nil)

	_, err := svc.SetRoles(context.Background(), "user-1", []string{"admin", "dummy-unknown-role", "other-unknown"})

	var unknownErr *domain.UnknownRolesError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, []string{"dummy-unknown-role", "other-unknown"}, unknownErr.RoleIDs)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	userRepo.AssertNotCalled(t, "SetRoles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_SetRolesDeduplicates(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	roleRepo.On("ListAll", mock.Anything).Return([]domain.Role{{ID: "r"}}, nil)
	userRepo.On("SetRoles", mock.Anything, "user-1", []string{"r"}, testClock.now).Return(int64(1), nil)

	count, err := svc.SetRoles(context.Background(), "user-1", []string{"r", "r"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	userRepo.AssertExpectations(t)
}

func TestUserService_SetRolesEmptyListClears(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	roleRepo.On("ListAll", mock.Anything).Return([]domain.Role{}, nil)
	userRepo.On("SetRoles", mock.Anything, "user-1", []string{}, testClock.now).Return(int64(1), nil)

	count, err := svc.SetRoles(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserService_SetRolesMissingUser(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	roleRepo.On("ListAll", mock.Anything).Return([]domain.Role{{ID: "admin"}}, nil)
	userRepo.On("SetRoles", mock.Anything, "ghost", []string{"admin"}, testClock.now).Return(int64(0), nil)

	count, err := svc.SetRoles(context.Background(), "ghost", []string{"admin"})
	require.NoError(t, err, "a missing user is reported by count, not error")
	assert.Equal(t, int64(0), count)
}

func TestUserService_UnlinkOneLoginAlreadyUnlinked(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	userRepo.On("GetByID", mock.Anything, "user-1").Return(domain.User{ID: "user-1"}, nil)

	mutated, err := svc.UnlinkOneLogin(context.Background(), "user-1", "system-key")
	require.NoError(t, err)
	assert.False(t, mutated)
	userRepo.AssertNotCalled(t, "UnsetOneLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_UnlinkOneLogin(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	userRepo.On("GetByID", mock.Anything, "user-1").Return(domain.User{
		ID:       "user-1",
		OneLogin: &domain.OneLoginData{UserID: "ol-123"},
	}, nil)
	userRepo.On("UnsetOneLogin", mock.Anything, "user-1", "system-key", testClock.now).Return(int64(1), nil)

	mutated, err := svc.UnlinkOneLogin(context.Background(), "user-1", "system-key")
	require.NoError(t, err)
	assert.True(t, mutated)
	userRepo.AssertExpectations(t)
}

func TestUserService_UnlinkOneLoginZeroCountIsInternalError(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	userRepo.On("GetByID", mock.Anything, "user-1").Return(domain.User{
		ID:       "user-1",
		OneLogin: &domain.OneLoginData{UserID: "ol-123"},
	}, nil)
	userRepo.On("UnsetOneLogin", mock.Anything, "user-1", "system-key", testClock.now).Return(int64(0), nil)

	_, err := svc.UnlinkOneLogin(context.Background(), "user-1", "system-key")
	assert.ErrorIs(t, err, domain.ErrNoRecordUpdated)
}

func TestUserService_SetRolesListError(t *testing.T) {
	userRepo := new(userStoreMock)
	roleRepo := new(roleStoreMock)
	svc := NewUserService(userRepo, roleRepo, testClock, nopLogger{})
	storeErr := errors.New("store down")
	roleRepo.On("ListAll", mock.Anything).Return([]domain.Role(nil), storeErr)

	_, err := svc.SetRoles(context.Background(), "user-1", []string{"admin"})
	assert.ErrorIs(t, err, storeErr)
}
