package tickets

import "time"

// Status values for a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Priority values for a ticket, matched against SLA rules.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether the priority is known.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Ticket is one helpdesk request scoped to a partner.
type Ticket struct {
	ID          int64     `json:"id"`
	PartnerID   int64     `json:"partner_id"`
	ProjectID   *int64    `json:"project_id"`
	RequesterID int64     `json:"requester_id"`
	AssigneeID  *int64    `json:"assignee_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is one entry in a ticket's conversation. Internal messages
// are visible to staff only.
type Message struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// HourEntry records worked minutes against a ticket.
type HourEntry struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserID    int64     `json:"user_id"`
	WorkedOn  time.Time `json:"worked_on"`
	Minutes   int       `json:"minutes"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// SLARule maps a priority to response and resolution targets in
// minutes.
type SLARule struct {
	ID                int64     `json:"id"`
	Priority          Priority  `json:"priority"`
	ResponseMinutes   int       `json:"response_minutes"`
	ResolutionMinutes int       `json:"resolution_minutes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
