package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. Optional fields are pointers so absent
// keys can receive server defaults.
type CreateTicketRequest struct {
	Subject     string                 `json:"subject" form:"subject"`
	Description *string                `json:"description" form:"description"`
	Status      *domain.TicketStatus   `json:"status" form:"status"`
	Priority    *domain.TicketPriority `json:"priority" form:"priority"`
	Category    *string                `json:"category" form:"category"`
	AssignedTo  *int64                 `json:"assigned_to" form:"assigned_to"`
	CreatedBy   *int64                 `json:"created_by" form:"created_by"`
}

// UpdateTicketRequest payload. Nil fields keep the stored value; id and
// timestamps are server-owned and deliberately have no slot here.
type UpdateTicketRequest struct {
	Subject     *string                `json:"subject" form:"subject"`
	Description *string                `json:"description" form:"description"`
	Status      *domain.TicketStatus   `json:"status" form:"status"`
	Priority    *domain.TicketPriority `json:"priority" form:"priority"`
	Category    *string                `json:"category" form:"category"`
	AssignedTo  *int64                 `json:"assigned_to" form:"assigned_to"`
	CreatedBy   *int64                 `json:"created_by" form:"created_by"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	UserID *int64 `json:"user_id" form:"user_id"`
}

// TicketResponse is the wire shape for tickets.
type TicketResponse struct {
	ID          int64                 `json:"id"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    string                `json:"category"`
	AssignedTo  *int64                `json:"assigned_to"`
	CreatedBy   *int64                `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Pagination describes the paging window of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// FromTicket converts the domain entity.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Category:    ticket.Category,
		AssignedTo:  ticket.AssignedTo,
		CreatedBy:   ticket.CreatedBy,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// FromTickets converts a slice, never returning nil so the JSON field
// encodes as an empty array.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, FromTicket(&tickets[i]))
	}
	return items
}
