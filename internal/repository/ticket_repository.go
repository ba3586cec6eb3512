package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Sentinel errors surfaced by transition and lookup operations.
var (
	ErrNotFound      = errors.New("ticket not found")
	ErrAlreadyClosed = errors.New("ticket already closed")
	ErrNotClosed     = errors.New("ticket not closed")
)

// TicketFilter captures list query parameters. Nil fields impose no
// constraint; an empty Search string is treated as not provided.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	AssignedTo *int64
	Search     *string
	SortBy     string
	SortOrder  string
}

// TicketPage is one window of a filtered listing plus its count.
type TicketPage struct {
	Items      []domain.Ticket
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Paginate(ctx context.Context, filter TicketFilter, page, perPage int) (*TicketPage, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
	ListByAssignee(ctx context.Context, userID int64) ([]domain.Ticket, error)
	ListByCreator(ctx context.Context, userID int64) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error)
	CountByPriority(ctx context.Context, priority domain.TicketPriority) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	Assign(ctx context.Context, id, userID int64) (*domain.Ticket, error)
	Close(ctx context.Context, id int64) (*domain.Ticket, error)
	Reopen(ctx context.Context, id int64) (*domain.Ticket, error)
}

// sortableColumns is the allow-list for caller-supplied sort fields.
var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"subject":    true,
	"priority":   true,
	"status":     true,
}

// sortColumn maps a caller-supplied field to a known column, falling
// back to created_at.
func sortColumn(field string) string {
	if sortableColumns[field] {
		return field
	}
	return "created_at"
}

// sortDirection normalizes a caller-supplied order, defaulting to DESC.
func sortDirection(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}

// totalPages computes ceil(total/perPage); zero when there are no rows.
func totalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, subject, description, status, priority, category,
       assigned_to, created_by, created_at, updated_at`

func (r *ticketRepository) Paginate(ctx context.Context, filter TicketFilter, page, perPage int) (*TicketPage, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf("SELECT %s FROM tickets WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		ticketColumns, where, sortColumn(filter.SortBy), sortDirection(filter.SortOrder), perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}

	return &TicketPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE id=$1", ticketColumns)
	ticket, err := r.fetchSingle(ctx, query, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.list(ctx, "status=$1", status)
}

func (r *ticketRepository) ListByAssignee(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	return r.list(ctx, "assigned_to=$1", userID)
}

func (r *ticketRepository) ListByCreator(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	return r.list(ctx, "created_by=$1", userID)
}

func (r *ticketRepository) list(ctx context.Context, clause string, arg any) ([]domain.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC", ticketColumns, clause)
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM tickets WHERE status=$1", status)
}

func (r *ticketRepository) CountByPriority(ctx context.Context, priority domain.TicketPriority) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM tickets WHERE priority=$1", priority)
}

func (r *ticketRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tickets").Scan(&total)
	return total, err
}

func (r *ticketRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM tickets WHERE created_at >= $1", since)
}

func (r *ticketRepository) count(ctx context.Context, query string, arg any) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, query, arg).Scan(&total)
	return total, err
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (subject, description, status, priority, category, assigned_to, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssignedTo,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, status=$3, priority=$4,
            category=$5, assigned_to=$6, created_by=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssignedTo,
		ticket.CreatedBy,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tickets WHERE id=$1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign sets the assignee and forces status to in_progress in a single
// statement, regardless of prior status.
func (r *ticketRepository) Assign(ctx context.Context, id, userID int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET assigned_to=$2, status=$3, updated_at=NOW()
        WHERE id=$1
        RETURNING %s`, ticketColumns)
	ticket, err := r.fetchSingle(ctx, query, id, userID, domain.TicketStatusInProgress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

// Close transitions to closed unless already closed. The status guard is
// part of the UPDATE so concurrent closes cannot both pass the check.
func (r *ticketRepository) Close(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.transition(ctx, id, "status <> $2", domain.TicketStatusClosed, ErrAlreadyClosed)
}

// Reopen transitions a closed ticket back to open.
func (r *ticketRepository) Reopen(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.transition(ctx, id, "status = $2", domain.TicketStatusOpen, ErrNotClosed)
}

func (r *ticketRepository) transition(ctx context.Context, id int64, guard string, next domain.TicketStatus, guardErr error) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$3, updated_at=NOW()
        WHERE id=$1 AND %s
        RETURNING %s`, guard, ticketColumns)
	ticket, err := r.fetchSingle(ctx, query, id, domain.TicketStatusClosed, next)
	if errors.Is(err, pgx.ErrNoRows) {
		// Guard failed or row absent; a second read tells them apart.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, guardErr
	}
	return ticket, err
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.AssignedTo,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Category,
			&ticket.AssignedTo,
			&ticket.CreatedBy,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
