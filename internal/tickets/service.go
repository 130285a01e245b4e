package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
	"github.com/numen-ops/easytime/internal/shared"
)

// RepositoryPort defines data access methods for the helpdesk.
type RepositoryPort interface {
	ListTickets(ctx context.Context, scope identity.Scope, limit, offset int) ([]Ticket, error)
	CountTickets(ctx context.Context, scope identity.Scope) (int, error)
	GetTicket(ctx context.Context, id int64) (*Ticket, error)
	CreateTicket(ctx context.Context, params CreateTicketParams) (*Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Ticket, error)
	ListMessages(ctx context.Context, ticketID int64, includeInternal bool) ([]Message, error)
	AddMessage(ctx context.Context, ticketID, authorID int64, body string, internal bool) (*Message, error)
	AddHours(ctx context.Context, ticketID, userID int64, workedOn time.Time, minutes int, note string) (*HourEntry, error)
	SumMinutes(ctx context.Context, ticketID int64) (int, error)

	ListSLARules(ctx context.Context) ([]SLARule, error)
	CreateSLARule(ctx context.Context, priority Priority, responseMinutes, resolutionMinutes int) (*SLARule, error)
	UpdateSLARule(ctx context.Context, id int64, responseMinutes, resolutionMinutes int) (*SLARule, error)
	DeleteSLARule(ctx context.Context, id int64) error
}

// Notifier enqueues outbound notification mail.
type Notifier interface {
	NotifyEmail(ctx context.Context, to, subject, body string) error
}

// CreateTicketParams carries the fields for a new ticket.
type CreateTicketParams struct {
	PartnerID   int64
	ProjectID   *int64
	RequesterID int64
	Subject     string
	Description string
	Priority    Priority
}

// Service handles helpdesk business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// ListTickets returns one page of tickets visible to the caller,
// narrowed by partner for everyone but unrestricted admins.
func (s *Service) ListTickets(ctx context.Context, caller identity.Identity, page, perPage int) ([]Ticket, shared.Pagination, error) {
	scope := caller.Scope()
	total, err := s.repo.CountTickets(ctx, scope)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	tickets, err := s.repo.ListTickets(ctx, scope, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return tickets, p, nil
}

// CreateTicket opens a ticket. Client callers always file under their
// own partner; internal callers name the partner explicitly.
func (s *Service) CreateTicket(ctx context.Context, caller identity.Identity, partnerID int64, projectID *int64, subject, description string, priority Priority) (*Ticket, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: assunto é obrigatório", httpx.ErrValidation)
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: prioridade inválida", httpx.ErrValidation)
	}
	scope := caller.Scope()
	switch scope.Kind {
	case identity.ScopeUnrestricted:
		// keeps the partner from the payload
	case identity.ScopePartner:
		partnerID = scope.PartnerID
	default:
		return nil, fmt.Errorf("%w: sem parceiro associado", httpx.ErrForbidden)
	}
	if partnerID == 0 {
		return nil, fmt.Errorf("%w: parceiro é obrigatório", httpx.ErrValidation)
	}

	ticket, err := s.repo.CreateTicket(ctx, CreateTicketParams{
		PartnerID:   partnerID,
		ProjectID:   projectID,
		RequesterID: caller.ID,
		Subject:     subject,
		Description: description,
		Priority:    priority,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyEmail(ctx, "suporte@easytime.local",
			fmt.Sprintf("Novo chamado #%d: %s", ticket.ID, ticket.Subject),
			fmt.Sprintf("Chamado aberto por %s com prioridade %s.", caller.FullName(), ticket.Priority))
	}
	return ticket, nil
}

// GetTicket loads one ticket with its conversation. Internal messages
// are stripped for client callers; partner-scoped callers cannot read
// other partners' tickets.
func (s *Service) GetTicket(ctx context.Context, caller identity.Identity, id int64) (*Ticket, []Message, error) {
	ticket, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeTicket(caller, ticket); err != nil {
		return nil, nil, err
	}
	messages, err := s.repo.ListMessages(ctx, id, !caller.IsClient)
	if err != nil {
		return nil, nil, err
	}
	return ticket, messages, nil
}

// UpdateStatus moves a ticket through its lifecycle. Staff only.
func (s *Service) UpdateStatus(ctx context.Context, caller identity.Identity, id int64, status Status) (*Ticket, error) {
	if caller.IsClient {
		return nil, fmt.Errorf("%w: clientes não alteram o status", httpx.ErrForbidden)
	}
	switch status {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
	default:
		return nil, fmt.Errorf("%w: status inválido", httpx.ErrValidation)
	}
	ticket, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTicket(caller, ticket); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// AddMessage appends to the ticket conversation. The internal flag is
// forced off for client authors so a client can never file a staff
// note.
func (s *Service) AddMessage(ctx context.Context, caller identity.Identity, ticketID int64, body string, internal bool) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: mensagem vazia", httpx.ErrValidation)
	}
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTicket(caller, ticket); err != nil {
		return nil, err
	}
	if caller.IsClient {
		internal = false
	}
	message, err := s.repo.AddMessage(ctx, ticketID, caller.ID, body, internal)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil && !internal {
		_ = s.notifier.NotifyEmail(ctx, "suporte@easytime.local",
			fmt.Sprintf("Nova mensagem no chamado #%d", ticketID),
			fmt.Sprintf("%s escreveu: %s", caller.FullName(), body))
	}
	return message, nil
}

// LogHours records worked minutes against a ticket. Staff only.
func (s *Service) LogHours(ctx context.Context, caller identity.Identity, ticketID int64, workedOn time.Time, minutes int, note string) (*HourEntry, error) {
	if caller.IsClient {
		return nil, fmt.Errorf("%w: clientes não apontam horas", httpx.ErrForbidden)
	}
	if minutes <= 0 || minutes > 24*60 {
		return nil, fmt.Errorf("%w: minutos fora do intervalo", httpx.ErrValidation)
	}
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTicket(caller, ticket); err != nil {
		return nil, err
	}
	return s.repo.AddHours(ctx, ticketID, caller.ID, workedOn, minutes, note)
}

// TicketHours sums logged minutes for a ticket.
func (s *Service) TicketHours(ctx context.Context, caller identity.Identity, ticketID int64) (int, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return 0, err
	}
	if err := s.authorizeTicket(caller, ticket); err != nil {
		return 0, err
	}
	return s.repo.SumMinutes(ctx, ticketID)
}

// ListSLARules returns all SLA rules. Staff only.
func (s *Service) ListSLARules(ctx context.Context, caller identity.Identity) ([]SLARule, error) {
	if caller.IsClient {
		return nil, fmt.Errorf("%w: regras de SLA são internas", httpx.ErrForbidden)
	}
	return s.repo.ListSLARules(ctx)
}

// CreateSLARule registers a rule. Unrestricted admins only.
func (s *Service) CreateSLARule(ctx context.Context, caller identity.Identity, priority Priority, responseMinutes, resolutionMinutes int) (*SLARule, error) {
	if err := requireUnrestricted(caller); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: prioridade inválida", httpx.ErrValidation)
	}
	if responseMinutes <= 0 || resolutionMinutes <= 0 {
		return nil, fmt.Errorf("%w: prazos devem ser positivos", httpx.ErrValidation)
	}
	return s.repo.CreateSLARule(ctx, priority, responseMinutes, resolutionMinutes)
}

// UpdateSLARule edits a rule. Unrestricted admins only.
func (s *Service) UpdateSLARule(ctx context.Context, caller identity.Identity, id int64, responseMinutes, resolutionMinutes int) (*SLARule, error) {
	if err := requireUnrestricted(caller); err != nil {
		return nil, err
	}
	if responseMinutes <= 0 || resolutionMinutes <= 0 {
		return nil, fmt.Errorf("%w: prazos devem ser positivos", httpx.ErrValidation)
	}
	return s.repo.UpdateSLARule(ctx, id, responseMinutes, resolutionMinutes)
}

// DeleteSLARule removes a rule. Unrestricted admins only.
func (s *Service) DeleteSLARule(ctx context.Context, caller identity.Identity, id int64) error {
	if err := requireUnrestricted(caller); err != nil {
		return err
	}
	return s.repo.DeleteSLARule(ctx, id)
}

func (s *Service) authorizeTicket(caller identity.Identity, ticket *Ticket) error {
	scope := caller.Scope()
	switch scope.Kind {
	case identity.ScopeUnrestricted:
		return nil
	case identity.ScopePartner:
		if ticket.PartnerID == scope.PartnerID {
			return nil
		}
	default:
		if ticket.RequesterID == caller.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: chamado fora do seu escopo", httpx.ErrForbidden)
}

func requireUnrestricted(caller identity.Identity) error {
	if caller.Scope().Kind != identity.ScopeUnrestricted {
		return fmt.Errorf("%w: somente administradores internos", httpx.ErrForbidden)
	}
	return nil
}
