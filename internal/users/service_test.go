package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (r *memoryRepo) add(u User) User {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u
}

func (r *memoryRepo) ListUsers(ctx context.Context, scope identity.Scope) ([]User, error) {
	var out []User
	for _, u := range r.users {
		switch scope.Kind {
		case identity.ScopePartner:
			if u.PartnerID == nil || *u.PartnerID != scope.PartnerID {
				continue
			}
		case identity.ScopeSelf:
			if u.ID != scope.UserID {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: usuário %d", httpx.ErrNotFound, id)
	}
	return &u, nil
}

func (r *memoryRepo) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	u := r.add(User{
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Role:      params.Role,
		PartnerID: params.PartnerID,
		IsClient:  params.IsClient,
		IsActive:  true,
	})
	return &u, nil
}

func (r *memoryRepo) UpdateUser(ctx context.Context, id int64, params UpdateUserParams) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: usuário %d", httpx.ErrNotFound, id)
	}
	u.Role = params.Role
	u.IsActive = params.IsActive
	r.users[id] = u
	return &u, nil
}

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) NotifyEmail(ctx context.Context, to, subject, body string) error {
	n.sent = append(n.sent, to)
	return nil
}

func ptr(v int64) *int64 { return &v }

func seedRepo(t *testing.T) *memoryRepo {
	t.Helper()
	repo := newMemoryRepo()
	repo.add(User{Email: "root@numen.local", Role: identity.RoleAdmin, IsActive: true})
	repo.add(User{Email: "gerente@x.local", Role: identity.RoleManager, PartnerID: ptr(1), IsActive: true})
	repo.add(User{Email: "dev@x.local", Role: identity.RoleFunctional, PartnerID: ptr(1), IsActive: true})
	repo.add(User{Email: "gerente@y.local", Role: identity.RoleManager, PartnerID: ptr(2), IsActive: true})
	return repo
}

func TestListUsersScoping(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil)
	ctx := context.Background()

	admin := identity.Identity{ID: 1, Role: identity.RoleAdmin, IsActive: true}
	all, err := svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 4)

	managerX := identity.Identity{ID: 2, Role: identity.RoleManager, PartnerID: ptr(1), IsActive: true}
	scoped, err := svc.ListUsers(ctx, managerX)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	for _, u := range scoped {
		require.NotNil(t, u.PartnerID)
		require.EqualValues(t, 1, *u.PartnerID)
	}

	loner := identity.Identity{ID: 3, Role: identity.RoleFunctional, IsActive: true}
	own, err := svc.ListUsers(ctx, loner)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.EqualValues(t, 3, own[0].ID)
}

func TestClientAdminStaysPartnerScoped(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil)

	clientAdmin := identity.Identity{ID: 5, Role: identity.RoleAdmin, IsClient: true, PartnerID: ptr(1), IsActive: true}
	scoped, err := svc.ListUsers(context.Background(), clientAdmin)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	svc := NewService(seedRepo(t), nil)
	manager := identity.Identity{ID: 2, Role: identity.RoleManager, PartnerID: ptr(1), IsActive: true}

	_, err := svc.CreateUser(context.Background(), manager, "novo@x.local", "password123", "Novo", "Usuário", identity.RoleFunctional, nil, false)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateUserForcesPartnerForScopedAdmin(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil)
	clientAdmin := identity.Identity{ID: 5, Role: identity.RoleAdmin, IsClient: true, PartnerID: ptr(1), IsActive: true}

	// The payload claims partner 2; the caller's own partner wins.
	user, err := svc.CreateUser(context.Background(), clientAdmin, "novo@x.local", "password123", "Novo", "Usuário", identity.RoleFunctional, ptr(2), true)
	require.NoError(t, err)
	require.NotNil(t, user.PartnerID)
	require.EqualValues(t, 1, *user.PartnerID)
}

func TestCreateUserHashesPasswordAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	admin := identity.Identity{ID: 1, Role: identity.RoleAdmin, IsActive: true}

	var captured CreateUserParams
	repoSpy := &spyRepo{memoryRepo: newMemoryRepo(), onCreate: func(p CreateUserParams) { captured = p }}
	svc := NewService(repoSpy, notifier)

	user, err := svc.CreateUser(context.Background(), admin, "ana@numen.local", "supersecret", "Ana", "Souza", identity.RoleManager, nil, false)
	require.NoError(t, err)
	require.NotEqual(t, "supersecret", captured.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("supersecret")))
	require.Equal(t, []string{user.Email}, notifier.sent)
}

type spyRepo struct {
	*memoryRepo
	onCreate func(CreateUserParams)
}

func (s *spyRepo) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	if s.onCreate != nil {
		s.onCreate(params)
	}
	return s.memoryRepo.CreateUser(ctx, params)
}

func TestUpdateUserOutsidePartnerIsForbidden(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil)
	clientAdmin := identity.Identity{ID: 5, Role: identity.RoleAdmin, IsClient: true, PartnerID: ptr(1), IsActive: true}

	// User 4 belongs to partner 2.
	_, err := svc.UpdateUser(context.Background(), clientAdmin, 4, UpdateUserParams{Role: identity.RoleFunctional, IsActive: true})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// User 3 belongs to partner 1 and may be updated.
	updated, err := svc.UpdateUser(context.Background(), clientAdmin, 3, UpdateUserParams{Role: identity.RoleManager, IsActive: false})
	require.NoError(t, err)
	require.Equal(t, identity.RoleManager, updated.Role)
	require.False(t, updated.IsActive)
}

func TestUpdateUserRejectsInvalidRole(t *testing.T) {
	svc := NewService(seedRepo(t), nil)
	admin := identity.Identity{ID: 1, Role: identity.RoleAdmin, IsActive: true}

	_, err := svc.UpdateUser(context.Background(), admin, 2, UpdateUserParams{Role: identity.Role(9), IsActive: true})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.False(t, errors.Is(err, httpx.ErrForbidden))
}
