package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Relation names how a user is tied to a ticket.
const (
	RelationAssigned = "assigned"
	RelationCreated  = "created"
)

const recentWindow = 7 * 24 * time.Hour

// StatsCache caches the dashboard aggregate between writes.
type StatsCache interface {
	GetStats(ctx context.Context) (*domain.DashboardStats, bool)
	SetStats(ctx context.Context, stats *domain.DashboardStats)
	Invalidate(ctx context.Context)
}

// TicketService enforces ticket workflow rules over the repository.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	statsCache StatsCache
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	StatsCache StatsCache
	Logger     *zap.Logger
}

// TicketCreateInput describes the ticket creation payload. Nil status and
// priority receive defaults before validation.
type TicketCreateInput struct {
	Subject     string
	Description string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Category    string
	AssignedTo  *int64
	CreatedBy   *int64
}

// TicketUpdateInput describes a partial update. Nil fields keep the
// current value. Server-owned fields (id, timestamps) have no slot here.
type TicketUpdateInput struct {
	Subject     *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Category    *string
	AssignedTo  *int64
	CreatedBy   *int64
}

// TicketListQuery carries the list endpoint's filter and paging values.
type TicketListQuery struct {
	Page       int
	PerPage    int
	Status     string
	Priority   string
	Category   string
	Search     string
	AssignedTo *int64
	SortBy     string
	SortOrder  string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		statsCache: deps.StatsCache,
		logger:     logger,
	}
}

// GetAllTickets returns one page of the filtered ticket listing.
func (s *TicketService) GetAllTickets(ctx context.Context, query TicketListQuery) (*repository.TicketPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = 10
	}

	result, err := s.tickets.Paginate(ctx, buildFilter(query), page, perPage)
	if err != nil {
		s.logger.Error("error getting tickets", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}

// buildFilter translates query values into repository constraints. Empty
// strings mean "not provided", never "match empty".
func buildFilter(query TicketListQuery) repository.TicketFilter {
	filter := repository.TicketFilter{
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
		AssignedTo: query.AssignedTo,
	}
	if query.Status != "" {
		status := domain.TicketStatus(query.Status)
		filter.Status = &status
	}
	if query.Priority != "" {
		priority := domain.TicketPriority(query.Priority)
		filter.Priority = &priority
	}
	if query.Category != "" {
		category := query.Category
		filter.Category = &category
	}
	if query.Search != "" {
		search := query.Search
		filter.Search = &search
	}
	return filter
}

// GetTicketByID fetches one ticket.
func (s *TicketService) GetTicketByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("get ticket", id, err)
	}
	return ticket, nil
}

// CreateTicket applies defaults, validates, persists and returns the
// freshly stored row including server-assigned fields.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		Category:    strings.TrimSpace(input.Category),
		AssignedTo:  input.AssignedTo,
		CreatedBy:   input.CreatedBy,
	}
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}

	if problems := validateTicket(ticket); len(problems) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", problems)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("error creating ticket", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("ticket created", zap.Int64("ticket_id", ticket.ID))
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Subject:  ticket.Subject,
			Status:   ticket.Status,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// UpdateTicket merges the partial input over the stored row, validates
// and persists. Identity and timestamps stay server-owned.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("update ticket", id, err)
	}

	if input.Subject != nil {
		ticket.Subject = strings.TrimSpace(*input.Subject)
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if input.Category != nil {
		ticket.Category = strings.TrimSpace(*input.Category)
	}
	if input.AssignedTo != nil {
		ticket.AssignedTo = input.AssignedTo
	}
	if input.CreatedBy != nil {
		ticket.CreatedBy = input.CreatedBy
	}

	if problems := validateTicket(ticket); len(problems) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", problems)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapError("update ticket", id, err)
	}

	s.logger.Info("ticket updated", zap.Int64("ticket_id", id))
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{Type: events.EventTicketUpdated, TicketID: id})
	return ticket, nil
}

// DeleteTicket removes a ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, id int64) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return s.mapError("delete ticket", id, err)
	}
	s.logger.Info("ticket deleted", zap.Int64("ticket_id", id))
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{Type: events.EventTicketDeleted, TicketID: id})
	return nil
}

// AssignTicket hands the ticket to a user and forces in_progress,
// whatever the prior status.
func (s *TicketService) AssignTicket(ctx context.Context, id, userID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.Assign(ctx, id, userID)
	if err != nil {
		return nil, s.mapError("assign ticket", id, err)
	}
	s.logger.Info("ticket assigned", zap.Int64("ticket_id", id), zap.Int64("user_id", userID))
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: id,
		Payload:  events.TicketAssignedPayload{UserID: userID},
	})
	return ticket, nil
}

// CloseTicket transitions any non-closed ticket to closed.
func (s *TicketService) CloseTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.Close(ctx, id)
	if err != nil {
		return nil, s.mapError("close ticket", id, err)
	}
	s.logger.Info("ticket closed", zap.Int64("ticket_id", id))
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload:  events.TicketStatusChangedPayload{NewStatus: domain.TicketStatusClosed},
	})
	return ticket, nil
}

// ReopenTicket transitions a closed ticket back to open.
func (s *TicketService) ReopenTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.Reopen(ctx, id)
	if err != nil {
		return nil, s.mapError("reopen ticket", id, err)
	}
	s.logger.Info("ticket reopened", zap.Int64("ticket_id", id))
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload:  events.TicketStatusChangedPayload{OldStatus: domain.TicketStatusClosed, NewStatus: domain.TicketStatusOpen},
	})
	return ticket, nil
}

// GetDashboardStats aggregates counts per status and priority plus the
// total and the trailing-seven-day creation count.
func (s *TicketService) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if s.statsCache != nil {
		if stats, ok := s.statsCache.GetStats(ctx); ok {
			return stats, nil
		}
	}

	stats := &domain.DashboardStats{
		ByStatus:   make(map[domain.TicketStatus]int, len(domain.Statuses())),
		ByPriority: make(map[domain.TicketPriority]int, len(domain.Priorities())),
	}

	for _, status := range domain.Statuses() {
		count, err := s.tickets.CountByStatus(ctx, status)
		if err != nil {
			s.logger.Error("error getting dashboard stats", zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
		stats.ByStatus[status] = count
	}
	for _, priority := range domain.Priorities() {
		count, err := s.tickets.CountByPriority(ctx, priority)
		if err != nil {
			s.logger.Error("error getting dashboard stats", zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
		stats.ByPriority[priority] = count
	}

	total, err := s.tickets.CountAll(ctx)
	if err != nil {
		s.logger.Error("error getting dashboard stats", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	stats.Total = total

	recent, err := s.tickets.CountCreatedSince(ctx, time.Now().Add(-recentWindow))
	if err != nil {
		s.logger.Error("error getting dashboard stats", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	stats.Recent = recent

	if s.statsCache != nil {
		s.statsCache.SetStats(ctx, stats)
	}
	return stats, nil
}

// GetTicketsByUser lists tickets a user is tied to, as assignee or
// as creator.
func (s *TicketService) GetTicketsByUser(ctx context.Context, userID int64, relation string) ([]domain.Ticket, error) {
	var (
		tickets []domain.Ticket
		err     error
	)
	switch relation {
	case RelationAssigned:
		tickets, err = s.tickets.ListByAssignee(ctx, userID)
	case RelationCreated:
		tickets, err = s.tickets.ListByCreator(ctx, userID)
	default:
		return nil, apperrors.NewInvalidArgument("Invalid relation type")
	}
	if err != nil {
		s.logger.Error("error getting tickets by user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// mapError translates repository failures into typed domain errors,
// logging the original cause.
func (s *TicketService) mapError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Warn(op+" failed: ticket not found", zap.Int64("ticket_id", id))
		return apperrors.NewNotFound("Ticket")
	case errors.Is(err, repository.ErrAlreadyClosed):
		s.logger.Warn(op+" rejected: already closed", zap.Int64("ticket_id", id))
		return apperrors.NewInvalidTransition("Ticket is already closed")
	case errors.Is(err, repository.ErrNotClosed):
		s.logger.Warn(op+" rejected: not closed", zap.Int64("ticket_id", id))
		return apperrors.NewInvalidTransition("Only closed tickets can be reopened")
	default:
		s.logger.Error(op+" failed", zap.Int64("ticket_id", id), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
}

func (s *TicketService) invalidateStats(ctx context.Context) {
	if s.statsCache != nil {
		s.statsCache.Invalidate(ctx)
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
