package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// memoryTicketRepository keeps tickets in a mutex-guarded map. It backs
// the service when no POSTGRES_DSN is configured and the test suites.
type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[int64]domain.Ticket
	nextID  int64
}

// NewMemoryTicketRepository instantiates the in-memory repository.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		tickets: make(map[int64]domain.Ticket),
		nextID:  1,
	}
}

func (r *memoryTicketRepository) Paginate(ctx context.Context, filter TicketFilter, page, perPage int) (*TicketPage, error) {
	r.mu.RLock()
	matched := r.filterLocked(filter)
	r.mu.RUnlock()

	sortTickets(matched, sortColumn(filter.SortBy), sortDirection(filter.SortOrder))

	total := len(matched)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	items := []domain.Ticket{}
	if offset < total {
		end := offset + perPage
		if end > total {
			end = total
		}
		items = matched[offset:end]
	}

	return &TicketPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

func (r *memoryTicketRepository) filterLocked(filter TicketFilter) []domain.Ticket {
	var search string
	if filter.Search != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}

	matched := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(ticket.Subject), search) &&
			!strings.Contains(strings.ToLower(ticket.Description), search) {
			continue
		}
		matched = append(matched, ticket)
	}
	return matched
}

func sortTickets(tickets []domain.Ticket, column, direction string) {
	asc := direction == "ASC"
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		var less bool
		switch column {
		case "updated_at":
			if a.UpdatedAt.Equal(b.UpdatedAt) {
				less = a.ID < b.ID
			} else {
				less = a.UpdatedAt.Before(b.UpdatedAt)
			}
		case "subject":
			less = a.Subject < b.Subject
		case "priority":
			less = a.Priority < b.Priority
		case "status":
			less = a.Status < b.Status
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				less = a.ID < b.ID
			} else {
				less = a.CreatedAt.Before(b.CreatedAt)
			}
		}
		if asc {
			return less
		}
		return !less
	})
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.listBy(func(t domain.Ticket) bool { return t.Status == status })
}

func (r *memoryTicketRepository) ListByAssignee(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	return r.listBy(func(t domain.Ticket) bool { return t.AssignedTo != nil && *t.AssignedTo == userID })
}

func (r *memoryTicketRepository) ListByCreator(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	return r.listBy(func(t domain.Ticket) bool { return t.CreatedBy != nil && *t.CreatedBy == userID })
}

func (r *memoryTicketRepository) listBy(match func(domain.Ticket) bool) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if match(ticket) {
			result = append(result, ticket)
		}
	}
	sortTickets(result, "created_at", "DESC")
	return result, nil
}

func (r *memoryTicketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	return r.countBy(func(t domain.Ticket) bool { return t.Status == status })
}

func (r *memoryTicketRepository) CountByPriority(ctx context.Context, priority domain.TicketPriority) (int, error) {
	return r.countBy(func(t domain.Ticket) bool { return t.Priority == priority })
}

func (r *memoryTicketRepository) CountAll(ctx context.Context) (int, error) {
	return r.countBy(func(domain.Ticket) bool { return true })
}

func (r *memoryTicketRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return r.countBy(func(t domain.Ticket) bool { return !t.CreatedAt.Before(since) })
}

func (r *memoryTicketRepository) countBy(match func(domain.Ticket) bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, ticket := range r.tickets {
		if match(ticket) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	ticket.ID = r.nextID
	r.nextID++
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	ticket.CreatedAt = existing.CreatedAt
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

func (r *memoryTicketRepository) Assign(ctx context.Context, id, userID int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket.AssignedTo = &userID
	ticket.Status = domain.TicketStatusInProgress
	ticket.UpdatedAt = time.Now()
	r.tickets[id] = ticket
	return &ticket, nil
}

func (r *memoryTicketRepository) Close(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, ErrAlreadyClosed
	}
	ticket.Status = domain.TicketStatusClosed
	ticket.UpdatedAt = time.Now()
	r.tickets[id] = ticket
	return &ticket, nil
}

func (r *memoryTicketRepository) Reopen(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, ErrNotClosed
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.UpdatedAt = time.Now()
	r.tickets[id] = ticket
	return &ticket, nil
}
