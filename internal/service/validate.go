package service

import (
	"fmt"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const (
	subjectMinLen     = 5
	subjectMaxLen     = 255
	descriptionMaxLen = 2000
	categoryMaxLen    = 100
)

// validateTicket checks field constraints on a fully assembled ticket and
// returns a field -> message map, empty when the ticket is valid.
func validateTicket(ticket *domain.Ticket) map[string]any {
	problems := map[string]any{}

	if ticket.Subject == "" {
		problems["subject"] = "Subject is required"
	} else if len(ticket.Subject) < subjectMinLen {
		problems["subject"] = fmt.Sprintf("Subject must be at least %d characters long", subjectMinLen)
	} else if len(ticket.Subject) > subjectMaxLen {
		problems["subject"] = fmt.Sprintf("Subject cannot exceed %d characters", subjectMaxLen)
	}

	if len(ticket.Description) > descriptionMaxLen {
		problems["description"] = fmt.Sprintf("Description cannot exceed %d characters", descriptionMaxLen)
	}

	if !ticket.Status.Valid() {
		problems["status"] = "Status must be one of: open, pending, in_progress, resolved, closed"
	}

	if !ticket.Priority.Valid() {
		problems["priority"] = "Priority must be one of: low, medium, high, urgent"
	}

	if len(ticket.Category) > categoryMaxLen {
		problems["category"] = fmt.Sprintf("Category cannot exceed %d characters", categoryMaxLen)
	}

	if ticket.AssignedTo != nil && *ticket.AssignedTo < 0 {
		problems["assigned_to"] = "Assigned To must be a valid user id"
	}

	if ticket.CreatedBy != nil && *ticket.CreatedBy < 0 {
		problems["created_by"] = "Created By must be a valid user id"
	}

	return problems
}
