package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ticketColumns = `id, partner_id, project_id, requester_id, assignee_id, subject, description, status, priority, created_at, updated_at`

// ListTickets returns one page of tickets narrowed by the caller's
// scope, newest first.
func (r *Repository) ListTickets(ctx context.Context, scope identity.Scope, limit, offset int) ([]Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets` + scopeFilter(scope)
	args := scopeArgs(scope)
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// CountTickets returns the ticket total inside the caller's scope.
func (r *Repository) CountTickets(ctx context.Context, scope identity.Scope) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`+scopeFilter(scope), scopeArgs(scope)...).Scan(&total)
	return total, err
}

func scopeFilter(scope identity.Scope) string {
	switch scope.Kind {
	case identity.ScopePartner:
		return ` WHERE partner_id = $1`
	case identity.ScopeSelf:
		return ` WHERE requester_id = $1`
	}
	return ""
}

func scopeArgs(scope identity.Scope) []any {
	switch scope.Kind {
	case identity.ScopePartner:
		return []any{scope.PartnerID}
	case identity.ScopeSelf:
		return []any{scope.UserID}
	}
	return nil
}

// GetTicket fetches a single ticket.
func (r *Repository) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chamado %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &ticket, nil
}

// CreateTicket inserts a new ticket in the open status.
func (r *Repository) CreateTicket(ctx context.Context, params CreateTicketParams) (*Ticket, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tickets (partner_id, project_id, requester_id, subject, description, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+ticketColumns,
		params.PartnerID, params.ProjectID, params.RequesterID,
		params.Subject, params.Description, StatusOpen, params.Priority)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatus moves the ticket lifecycle forward.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) (*Ticket, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tickets SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+ticketColumns,
		id, status)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chamado %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &ticket, nil
}

// ListMessages returns the conversation, oldest first. Internal notes
// are excluded unless includeInternal is set.
func (r *Repository) ListMessages(ctx context.Context, ticketID int64, includeInternal bool) ([]Message, error) {
	query := `
		SELECT id, ticket_id, author_id, body, internal, created_at
		FROM ticket_messages
		WHERE ticket_id = $1`
	if !includeInternal {
		query += ` AND internal = FALSE`
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.Body, &m.Internal, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AddMessage appends one message to the ticket conversation.
func (r *Repository) AddMessage(ctx context.Context, ticketID, authorID int64, body string, internal bool) (*Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO ticket_messages (ticket_id, author_id, body, internal, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, ticket_id, author_id, body, internal, created_at`,
		ticketID, authorID, body, internal)
	var m Message
	if err := row.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.Body, &m.Internal, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// AddHours records worked minutes against the ticket.
func (r *Repository) AddHours(ctx context.Context, ticketID, userID int64, workedOn time.Time, minutes int, note string) (*HourEntry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO ticket_hours (ticket_id, user_id, worked_on, minutes, note, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, ticket_id, user_id, worked_on, minutes, note, created_at`,
		ticketID, userID, workedOn, minutes, note)
	var e HourEntry
	if err := row.Scan(&e.ID, &e.TicketID, &e.UserID, &e.WorkedOn, &e.Minutes, &e.Note, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// SumMinutes totals logged minutes for the ticket.
func (r *Repository) SumMinutes(ctx context.Context, ticketID int64) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(minutes), 0) FROM ticket_hours WHERE ticket_id = $1`,
		ticketID).Scan(&total)
	return total, err
}

// ListSLARules returns all rules ordered by priority.
func (r *Repository) ListSLARules(ctx context.Context) ([]SLARule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, priority, response_minutes, resolution_minutes, created_at, updated_at
		FROM sla_rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []SLARule
	for rows.Next() {
		var rule SLARule
		if err := rows.Scan(&rule.ID, &rule.Priority, &rule.ResponseMinutes,
			&rule.ResolutionMinutes, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateSLARule inserts a rule. One rule per priority.
func (r *Repository) CreateSLARule(ctx context.Context, priority Priority, responseMinutes, resolutionMinutes int) (*SLARule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sla_rules (priority, response_minutes, resolution_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, priority, response_minutes, resolution_minutes, created_at, updated_at`,
		priority, responseMinutes, resolutionMinutes)
	var rule SLARule
	if err := row.Scan(&rule.ID, &rule.Priority, &rule.ResponseMinutes,
		&rule.ResolutionMinutes, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: já existe regra para a prioridade %s", httpx.ErrDuplicate, priority)
		}
		return nil, err
	}
	return &rule, nil
}

// UpdateSLARule edits an existing rule.
func (r *Repository) UpdateSLARule(ctx context.Context, id int64, responseMinutes, resolutionMinutes int) (*SLARule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sla_rules SET response_minutes = $2, resolution_minutes = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, priority, response_minutes, resolution_minutes, created_at, updated_at`,
		id, responseMinutes, resolutionMinutes)
	var rule SLARule
	if err := row.Scan(&rule.ID, &rule.Priority, &rule.ResponseMinutes,
		&rule.ResolutionMinutes, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: regra %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &rule, nil
}

// DeleteSLARule removes a rule.
func (r *Repository) DeleteSLARule(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sla_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: regra %d", httpx.ErrNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.PartnerID, &t.ProjectID, &t.RequesterID, &t.AssigneeID,
		&t.Subject, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

var _ RepositoryPort = (*Repository)(nil)
