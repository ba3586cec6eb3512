package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket is the single aggregate of the system.
type Ticket struct {
	ID          int64
	Subject     string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Category    string
	AssignedTo  *int64
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Statuses returns every status in display order.
func Statuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusPending,
		TicketStatusInProgress,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// Priorities returns every priority in display order.
func Priorities() []TicketPriority {
	return []TicketPriority{
		TicketPriorityLow,
		TicketPriorityMedium,
		TicketPriorityHigh,
		TicketPriorityUrgent,
	}
}

// Valid reports whether the status is one of the enumerated values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusInProgress,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Valid reports whether the priority is one of the enumerated values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// StatusLabels maps statuses to console display labels.
func StatusLabels() map[TicketStatus]string {
	return map[TicketStatus]string{
		TicketStatusOpen:       "Open",
		TicketStatusPending:    "Pending",
		TicketStatusInProgress: "In Progress",
		TicketStatusResolved:   "Resolved",
		TicketStatusClosed:     "Closed",
	}
}

// PriorityLabels maps priorities to console display labels.
func PriorityLabels() map[TicketPriority]string {
	return map[TicketPriority]string{
		TicketPriorityLow:    "Low",
		TicketPriorityMedium: "Medium",
		TicketPriorityHigh:   "High",
		TicketPriorityUrgent: "Urgent",
	}
}
