package timesheet

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// RepositoryPort defines data access for timesheet entries.
type RepositoryPort interface {
	ListEntries(ctx context.Context, scope identity.Scope, year int, month time.Month) ([]Entry, error)
	GetEntry(ctx context.Context, id int64) (*Entry, error)
	CreateEntry(ctx context.Context, userID, projectID int64, workedOn time.Time, minutes int, note string) (*Entry, error)
	UpdateEntry(ctx context.Context, id int64, minutes int, note string) (*Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	SumByProject(ctx context.Context, userID int64, year int, month time.Month) ([]ProjectTotal, error)
	SumByDay(ctx context.Context, userID int64, year int, month time.Month) ([]DayTotal, error)
}

// Service handles timesheet business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func requireStaff(caller identity.Identity) error {
	if caller.IsClient {
		return fmt.Errorf("%w: apontamentos são restritos à equipe interna", httpx.ErrForbidden)
	}
	return nil
}

// ListEntries returns entries the caller may see for one month.
// Managers see their whole partner, everyone else only themselves.
func (s *Service) ListEntries(ctx context.Context, caller identity.Identity, year int, month time.Month) ([]Entry, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	scope := caller.Scope()
	if caller.Role != identity.RoleManager && scope.Kind != identity.ScopeUnrestricted {
		scope = identity.Scope{Kind: identity.ScopeSelf, UserID: caller.ID}
	}
	return s.repo.ListEntries(ctx, scope, year, month)
}

// CreateEntry records worked time for the caller.
func (s *Service) CreateEntry(ctx context.Context, caller identity.Identity, projectID int64, workedOn time.Time, minutes int, note string) (*Entry, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if minutes <= 0 || minutes > 24*60 {
		return nil, fmt.Errorf("%w: minutos fora do intervalo", httpx.ErrValidation)
	}
	if workedOn.After(time.Now().AddDate(0, 0, 1)) {
		return nil, fmt.Errorf("%w: data futura", httpx.ErrValidation)
	}
	return s.repo.CreateEntry(ctx, caller.ID, projectID, workedOn, minutes, note)
}

// UpdateEntry edits an entry. Only the owner may edit it.
func (s *Service) UpdateEntry(ctx context.Context, caller identity.Identity, id int64, minutes int, note string) (*Entry, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if minutes <= 0 || minutes > 24*60 {
		return nil, fmt.Errorf("%w: minutos fora do intervalo", httpx.ErrValidation)
	}
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != caller.ID {
		return nil, fmt.Errorf("%w: apontamento de outro usuário", httpx.ErrForbidden)
	}
	return s.repo.UpdateEntry(ctx, id, minutes, note)
}

// DeleteEntry removes an entry. Only the owner may remove it.
func (s *Service) DeleteEntry(ctx context.Context, caller identity.Identity, id int64) error {
	if err := requireStaff(caller); err != nil {
		return err
	}
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if entry.UserID != caller.ID {
		return fmt.Errorf("%w: apontamento de outro usuário", httpx.ErrForbidden)
	}
	return s.repo.DeleteEntry(ctx, id)
}

// MonthlySummary builds the caller's report for one month. The two
// aggregates are independent queries and run concurrently.
func (s *Service) MonthlySummary(ctx context.Context, caller identity.Identity, year int, month time.Month) (*MonthlySummary, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if year < 2000 || month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: competência inválida", httpx.ErrValidation)
	}

	var (
		byProject []ProjectTotal
		byDay     []DayTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byProject, err = s.repo.SumByProject(gctx, caller.ID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		byDay, err = s.repo.SumByDay(gctx, caller.ID, year, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range byProject {
		total += p.Minutes
	}
	return &MonthlySummary{
		Year:         year,
		Month:        month,
		TotalMinutes: total,
		ByProject:    byProject,
		ByDay:        byDay,
	}, nil
}
