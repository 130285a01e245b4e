package tickets

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

type memoryRepo struct {
	tickets  map[int64]Ticket
	messages map[int64][]Message
	hours    map[int64][]HourEntry
	rules    map[int64]SLARule
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		tickets:  make(map[int64]Ticket),
		messages: make(map[int64][]Message),
		hours:    make(map[int64][]HourEntry),
		rules:    make(map[int64]SLARule),
	}
}

func (r *memoryRepo) addTicket(t Ticket) Ticket {
	r.nextID++
	t.ID = r.nextID
	if t.Status == "" {
		t.Status = StatusOpen
	}
	r.tickets[t.ID] = t
	return t
}

func (r *memoryRepo) scoped(scope identity.Scope) []Ticket {
	var out []Ticket
	for _, t := range r.tickets {
		switch scope.Kind {
		case identity.ScopePartner:
			if t.PartnerID != scope.PartnerID {
				continue
			}
		case identity.ScopeSelf:
			if t.RequesterID != scope.UserID {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func (r *memoryRepo) ListTickets(ctx context.Context, scope identity.Scope, limit, offset int) ([]Ticket, error) {
	out := r.scoped(scope)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) CountTickets(ctx context.Context, scope identity.Scope) (int, error) {
	return len(r.scoped(scope)), nil
}

func (r *memoryRepo) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: chamado %d", httpx.ErrNotFound, id)
	}
	return &t, nil
}

func (r *memoryRepo) CreateTicket(ctx context.Context, params CreateTicketParams) (*Ticket, error) {
	t := r.addTicket(Ticket{
		PartnerID:   params.PartnerID,
		ProjectID:   params.ProjectID,
		RequesterID: params.RequesterID,
		Subject:     params.Subject,
		Description: params.Description,
		Priority:    params.Priority,
	})
	return &t, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, status Status) (*Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: chamado %d", httpx.ErrNotFound, id)
	}
	t.Status = status
	r.tickets[id] = t
	return &t, nil
}

func (r *memoryRepo) ListMessages(ctx context.Context, ticketID int64, includeInternal bool) ([]Message, error) {
	var out []Message
	for _, m := range r.messages[ticketID] {
		if m.Internal && !includeInternal {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) AddMessage(ctx context.Context, ticketID, authorID int64, body string, internal bool) (*Message, error) {
	r.nextID++
	m := Message{ID: r.nextID, TicketID: ticketID, AuthorID: authorID, Body: body, Internal: internal}
	r.messages[ticketID] = append(r.messages[ticketID], m)
	return &m, nil
}

func (r *memoryRepo) AddHours(ctx context.Context, ticketID, userID int64, workedOn time.Time, minutes int, note string) (*HourEntry, error) {
	r.nextID++
	e := HourEntry{ID: r.nextID, TicketID: ticketID, UserID: userID, WorkedOn: workedOn, Minutes: minutes, Note: note}
	r.hours[ticketID] = append(r.hours[ticketID], e)
	return &e, nil
}

func (r *memoryRepo) SumMinutes(ctx context.Context, ticketID int64) (int, error) {
	total := 0
	for _, e := range r.hours[ticketID] {
		total += e.Minutes
	}
	return total, nil
}

func (r *memoryRepo) ListSLARules(ctx context.Context) ([]SLARule, error) {
	var out []SLARule
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (r *memoryRepo) CreateSLARule(ctx context.Context, priority Priority, responseMinutes, resolutionMinutes int) (*SLARule, error) {
	for _, rule := range r.rules {
		if rule.Priority == priority {
			return nil, fmt.Errorf("%w: já existe regra para a prioridade %s", httpx.ErrDuplicate, priority)
		}
	}
	r.nextID++
	rule := SLARule{ID: r.nextID, Priority: priority, ResponseMinutes: responseMinutes, ResolutionMinutes: resolutionMinutes}
	r.rules[rule.ID] = rule
	return &rule, nil
}

func (r *memoryRepo) UpdateSLARule(ctx context.Context, id int64, responseMinutes, resolutionMinutes int) (*SLARule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: regra %d", httpx.ErrNotFound, id)
	}
	rule.ResponseMinutes = responseMinutes
	rule.ResolutionMinutes = resolutionMinutes
	r.rules[id] = rule
	return &rule, nil
}

func (r *memoryRepo) DeleteSLARule(ctx context.Context, id int64) error {
	if _, ok := r.rules[id]; !ok {
		return fmt.Errorf("%w: regra %d", httpx.ErrNotFound, id)
	}
	delete(r.rules, id)
	return nil
}

type noopNotifier struct{ count int }

func (n *noopNotifier) NotifyEmail(ctx context.Context, to, subject, body string) error {
	n.count++
	return nil
}

func ptr(v int64) *int64 { return &v }

func staffAdmin() identity.Identity {
	return identity.Identity{ID: 1, Role: identity.RoleAdmin, IsActive: true}
}

func clientUser(partner int64) identity.Identity {
	return identity.Identity{ID: 20, Role: identity.RoleFunctional, IsClient: true, PartnerID: &partner, IsActive: true}
}

func TestCreateTicketForcesClientPartner(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &noopNotifier{}
	svc := NewService(repo, notifier)

	// Payload names partner 9; the client's own partner wins.
	ticket, err := svc.CreateTicket(context.Background(), clientUser(3), 9, nil, "Erro no relatório", "Detalhes", PriorityHigh)
	require.NoError(t, err)
	require.EqualValues(t, 3, ticket.PartnerID)
	require.Equal(t, StatusOpen, ticket.Status)
	require.Equal(t, 1, notifier.count)
}

func TestCreateTicketValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateTicket(context.Background(), staffAdmin(), 1, nil, "   ", "", PriorityLow)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateTicket(context.Background(), staffAdmin(), 1, nil, "Assunto", "", Priority("urgent"))
	require.ErrorIs(t, err, httpx.ErrValidation)

	noPartner := identity.Identity{ID: 7, Role: identity.RoleFunctional, IsActive: true}
	_, err = svc.CreateTicket(context.Background(), noPartner, 1, nil, "Assunto", "", PriorityLow)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestGetTicketHidesInternalMessagesFromClients(t *testing.T) {
	repo := newMemoryRepo()
	ticket := repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20, Subject: "Erro"})
	_, _ = repo.AddMessage(context.Background(), ticket.ID, 1, "resposta pública", false)
	_, _ = repo.AddMessage(context.Background(), ticket.ID, 1, "nota interna", true)
	svc := NewService(repo, nil)

	_, msgs, err := svc.GetTicket(context.Background(), clientUser(3), ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "resposta pública", msgs[0].Body)

	_, msgs, err = svc.GetTicket(context.Background(), staffAdmin(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestGetTicketOutsideScopeIsForbidden(t *testing.T) {
	repo := newMemoryRepo()
	ticket := repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20})
	other := repo.addTicket(Ticket{PartnerID: 9, RequesterID: 99})
	svc := NewService(repo, nil)

	_, _, err := svc.GetTicket(context.Background(), clientUser(3), other.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, _, err = svc.GetTicket(context.Background(), clientUser(3), ticket.ID)
	require.NoError(t, err)
}

func TestAddMessageForcesPublicForClients(t *testing.T) {
	repo := newMemoryRepo()
	ticket := repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20})
	svc := NewService(repo, nil)

	msg, err := svc.AddMessage(context.Background(), clientUser(3), ticket.ID, "tentei marcar interna", true)
	require.NoError(t, err)
	require.False(t, msg.Internal)

	staff := staffAdmin()
	msg, err = svc.AddMessage(context.Background(), staff, ticket.ID, "nota da equipe", true)
	require.NoError(t, err)
	require.True(t, msg.Internal)
}

func TestLogHoursIsStaffOnly(t *testing.T) {
	repo := newMemoryRepo()
	ticket := repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20})
	svc := NewService(repo, nil)
	day := time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.LogHours(context.Background(), clientUser(3), ticket.ID, day, 60, "")
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.LogHours(context.Background(), staffAdmin(), ticket.ID, day, 0, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.LogHours(context.Background(), staffAdmin(), ticket.ID, day, 90, "análise")
	require.NoError(t, err)
	_, err = svc.LogHours(context.Background(), staffAdmin(), ticket.ID, day, 30, "correção")
	require.NoError(t, err)

	total, err := svc.TicketHours(context.Background(), staffAdmin(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, 120, total)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	ticket := repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20})
	svc := NewService(repo, nil)

	_, err := svc.UpdateStatus(context.Background(), clientUser(3), ticket.ID, StatusResolved)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.UpdateStatus(context.Background(), staffAdmin(), ticket.ID, Status("archived"))
	require.ErrorIs(t, err, httpx.ErrValidation)

	updated, err := svc.UpdateStatus(context.Background(), staffAdmin(), ticket.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)
}

func TestSLARulesRestrictedToInternalAdmins(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	clientAdmin := identity.Identity{ID: 5, Role: identity.RoleAdmin, IsClient: true, PartnerID: ptr(3), IsActive: true}
	_, err := svc.CreateSLARule(ctx, clientAdmin, PriorityHigh, 30, 240)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.ListSLARules(ctx, clientUser(3))
	require.ErrorIs(t, err, httpx.ErrForbidden)

	rule, err := svc.CreateSLARule(ctx, staffAdmin(), PriorityHigh, 30, 240)
	require.NoError(t, err)

	_, err = svc.CreateSLARule(ctx, staffAdmin(), PriorityHigh, 15, 120)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	updated, err := svc.UpdateSLARule(ctx, staffAdmin(), rule.ID, 20, 180)
	require.NoError(t, err)
	require.Equal(t, 20, updated.ResponseMinutes)

	require.NoError(t, svc.DeleteSLARule(ctx, staffAdmin(), rule.ID))
	require.ErrorIs(t, svc.DeleteSLARule(ctx, staffAdmin(), rule.ID), httpx.ErrNotFound)
}

func TestListTicketsScoping(t *testing.T) {
	repo := newMemoryRepo()
	repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20})
	repo.addTicket(Ticket{PartnerID: 3, RequesterID: 21})
	repo.addTicket(Ticket{PartnerID: 9, RequesterID: 99})
	svc := NewService(repo, nil)
	ctx := context.Background()

	all, pagination, err := svc.ListTickets(ctx, staffAdmin(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 3, pagination.Total)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PerPage)
	require.Equal(t, 1, pagination.TotalPages)

	partner, _, err := svc.ListTickets(ctx, clientUser(3), 1, 20)
	require.NoError(t, err)
	require.Len(t, partner, 2)

	self := identity.Identity{ID: 21, Role: identity.RoleFunctional, IsActive: true}
	own, _, err := svc.ListTickets(ctx, self, 1, 20)
	require.NoError(t, err)
	require.Len(t, own, 1)
}

func TestListTicketsPaginates(t *testing.T) {
	repo := newMemoryRepo()
	for i := 0; i < 5; i++ {
		repo.addTicket(Ticket{PartnerID: 3, RequesterID: 20})
	}
	svc := NewService(repo, nil)

	page, pagination, err := svc.ListTickets(context.Background(), staffAdmin(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, 5, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)
	require.Equal(t, 2, pagination.Offset())
}
