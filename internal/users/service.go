package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, scope identity.Scope) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	UpdateUser(ctx context.Context, id int64, params UpdateUserParams) (*User, error)
}

// Notifier enqueues outbound notification mail.
type Notifier interface {
	NotifyEmail(ctx context.Context, to, subject, body string) error
}

// CreateUserParams carries the fields for a new account.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         identity.Role
	PartnerID    *int64
	IsClient     bool
}

// UpdateUserParams carries the mutable administration fields.
type UpdateUserParams struct {
	Role     identity.Role
	IsActive bool
}

// Service handles user administration logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// ListUsers returns the users visible to the caller. Only a
// non-client admin sees every row; everyone else is narrowed to their
// partner or to themselves before the query runs.
func (s *Service) ListUsers(ctx context.Context, caller identity.Identity) ([]User, error) {
	return s.repo.ListUsers(ctx, caller.Scope())
}

// CreateUser registers a new account. Admins only; a partner-scoped
// admin can only create accounts inside their own partner.
func (s *Service) CreateUser(ctx context.Context, caller identity.Identity, email, password, firstName, lastName string, role identity.Role, partnerID *int64, isClient bool) (*User, error) {
	if caller.Role != identity.RoleAdmin {
		return nil, fmt.Errorf("%w: apenas administradores gerenciam usuários", httpx.ErrForbidden)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: perfil inválido", httpx.ErrValidation)
	}
	scope := caller.Scope()
	if scope.Kind != identity.ScopeUnrestricted {
		if scope.Kind != identity.ScopePartner {
			return nil, fmt.Errorf("%w: sem parceiro associado", httpx.ErrForbidden)
		}
		pid := scope.PartnerID
		partnerID = &pid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		PartnerID:    partnerID,
		IsClient:     isClient,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		// Fire-and-forget: delivery problems never fail the request.
		_ = s.notifier.NotifyEmail(ctx, user.Email,
			"Bem-vindo ao EasyTime",
			"Sua conta foi criada. Acesse /auth/update-password para definir sua senha.")
	}
	return user, nil
}

// UpdateUser changes role or active flag. Same admin rules as
// CreateUser; a partner-scoped admin cannot touch accounts outside
// their partner.
func (s *Service) UpdateUser(ctx context.Context, caller identity.Identity, id int64, params UpdateUserParams) (*User, error) {
	if caller.Role != identity.RoleAdmin {
		return nil, fmt.Errorf("%w: apenas administradores gerenciam usuários", httpx.ErrForbidden)
	}
	if !params.Role.Valid() {
		return nil, fmt.Errorf("%w: perfil inválido", httpx.ErrValidation)
	}
	scope := caller.Scope()
	if scope.Kind != identity.ScopeUnrestricted {
		target, err := s.repo.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if scope.Kind != identity.ScopePartner || target.PartnerID == nil || *target.PartnerID != scope.PartnerID {
			return nil, fmt.Errorf("%w: usuário fora do seu parceiro", httpx.ErrForbidden)
		}
	}
	return s.repo.UpdateUser(ctx, id, params)
}
