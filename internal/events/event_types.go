package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType labels a ticket lifecycle event.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketUpdated       EventType = "ticket.updated"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketDeleted       EventType = "ticket.deleted"
)

// Event envelopes a lifecycle notification.
type Event struct {
	ID        string
	Type      EventType
	TicketID  int64
	Timestamp time.Time
	Payload   any
}

// TicketCreatedPayload accompanies EventTicketCreated.
type TicketCreatedPayload struct {
	Subject  string
	Status   domain.TicketStatus
	Priority domain.TicketPriority
}

// TicketAssignedPayload accompanies EventTicketAssigned.
type TicketAssignedPayload struct {
	UserID int64
}

// TicketStatusChangedPayload accompanies EventTicketStatusChanged.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus
	NewStatus domain.TicketStatus
}
