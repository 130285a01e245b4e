package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Project, error)
	ListByPartner(ctx context.Context, partnerID int64, onlyAMS bool) ([]Project, error)
	ListAllocated(ctx context.Context, userID int64) ([]Project, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	CreateProject(ctx context.Context, params CreateProjectParams) (*Project, error)
	UpdateProject(ctx context.Context, id int64, name, description string, active bool) (*Project, error)
}

// CreateProjectParams carries the fields for a new project.
type CreateProjectParams struct {
	PartnerID   int64
	Name        string
	Kind        Kind
	Description string
}

// Service handles project listing and administration.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListProjects narrows results by the caller:
//   - unrestricted admins see everything;
//   - client callers see only their partner's AMS contracts;
//   - internal partner-affiliated callers see their partner's projects;
//   - internal callers without a partner see projects they are
//     allocated to. Note this last branch scopes managers differently
//     from the partner branch; the inconsistency is inherited from
//     the product's behavior and intentionally not unified here.
func (s *Service) ListProjects(ctx context.Context, caller identity.Identity) ([]Project, error) {
	scope := caller.Scope()
	switch scope.Kind {
	case identity.ScopeUnrestricted:
		return s.repo.ListAll(ctx)
	case identity.ScopePartner:
		return s.repo.ListByPartner(ctx, scope.PartnerID, caller.IsClient)
	default:
		return s.repo.ListAllocated(ctx, scope.UserID)
	}
}

// CreateProject registers a project. Internal admins and managers
// only.
func (s *Service) CreateProject(ctx context.Context, caller identity.Identity, params CreateProjectParams) (*Project, error) {
	if caller.IsClient || caller.Role == identity.RoleFunctional {
		return nil, fmt.Errorf("%w: sem permissão para criar projetos", httpx.ErrForbidden)
	}
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, fmt.Errorf("%w: nome do projeto é obrigatório", httpx.ErrValidation)
	}
	if !params.Kind.Valid() {
		return nil, fmt.Errorf("%w: tipo de projeto inválido", httpx.ErrValidation)
	}
	return s.repo.CreateProject(ctx, params)
}

// UpdateProject edits a project. Internal admins and managers only;
// a partner-scoped caller cannot touch other partners' projects.
func (s *Service) UpdateProject(ctx context.Context, caller identity.Identity, id int64, name, description string, active bool) (*Project, error) {
	if caller.IsClient || caller.Role == identity.RoleFunctional {
		return nil, fmt.Errorf("%w: sem permissão para editar projetos", httpx.ErrForbidden)
	}
	scope := caller.Scope()
	if scope.Kind == identity.ScopePartner {
		current, err := s.repo.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.PartnerID != scope.PartnerID {
			return nil, fmt.Errorf("%w: projeto de outro parceiro", httpx.ErrForbidden)
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome do projeto é obrigatório", httpx.ErrValidation)
	}
	return s.repo.UpdateProject(ctx, id, name, description, active)
}
