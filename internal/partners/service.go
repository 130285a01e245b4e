package partners

import (
	"context"
	"fmt"
	"strings"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// RepositoryPort defines data access methods for partners.
type RepositoryPort interface {
	ListPartners(ctx context.Context) ([]Partner, error)
	GetPartner(ctx context.Context, id int64) (*Partner, error)
	CreatePartner(ctx context.Context, name, taxID string) (*Partner, error)
	UpdatePartner(ctx context.Context, id int64, name, taxID string) (*Partner, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service handles partner administration. Every operation is
// restricted to unrestricted admins; the client-admin asymmetry
// applies here the same way it does for query scoping.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func requireUnrestricted(caller identity.Identity) error {
	if caller.Scope().Kind != identity.ScopeUnrestricted {
		return fmt.Errorf("%w: somente administradores internos gerenciam parceiros", httpx.ErrForbidden)
	}
	return nil
}

// ListPartners returns all partners.
func (s *Service) ListPartners(ctx context.Context, caller identity.Identity) ([]Partner, error) {
	if err := requireUnrestricted(caller); err != nil {
		return nil, err
	}
	return s.repo.ListPartners(ctx)
}

// CreatePartner registers a new partner.
func (s *Service) CreatePartner(ctx context.Context, caller identity.Identity, name, taxID string) (*Partner, error) {
	if err := requireUnrestricted(caller); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome do parceiro é obrigatório", httpx.ErrValidation)
	}
	return s.repo.CreatePartner(ctx, name, strings.TrimSpace(taxID))
}

// UpdatePartner edits partner master data.
func (s *Service) UpdatePartner(ctx context.Context, caller identity.Identity, id int64, name, taxID string) (*Partner, error) {
	if err := requireUnrestricted(caller); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome do parceiro é obrigatório", httpx.ErrValidation)
	}
	return s.repo.UpdatePartner(ctx, id, name, strings.TrimSpace(taxID))
}

// SetActive toggles a partner. Simple single-row update; concurrent
// conflicting updates are last-write-wins.
func (s *Service) SetActive(ctx context.Context, caller identity.Identity, id int64, active bool) error {
	if err := requireUnrestricted(caller); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id, active)
}
