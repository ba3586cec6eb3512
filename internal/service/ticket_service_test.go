package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newTestService() *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
	})
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("error = %v, want *DomainError", err)
	}
	return domainErr.Code
}

func mustCreate(t *testing.T, svc *TicketService, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	return ticket
}

func TestCreateTicketDefaults(t *testing.T) {
	svc := newTestService()
	ticket := mustCreate(t, svc, TicketCreateInput{Subject: "Laptop will not boot"})

	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("Status = %q, want %q", ticket.Status, domain.TicketStatusOpen)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("Priority = %q, want %q", ticket.Priority, domain.TicketPriorityMedium)
	}
	if ticket.ID == 0 {
		t.Fatal("ID = 0, want assigned")
	}
	if ticket.CreatedAt.IsZero() {
		t.Fatal("CreatedAt is zero")
	}
	if ticket.UpdatedAt.Before(ticket.CreatedAt) {
		t.Fatalf("UpdatedAt %v before CreatedAt %v", ticket.UpdatedAt, ticket.CreatedAt)
	}
}

func TestCreateTicketExplicitValues(t *testing.T) {
	svc := newTestService()
	status := domain.TicketStatusClosed
	priority := domain.TicketPriorityUrgent
	ticket := mustCreate(t, svc, TicketCreateInput{
		Subject:  "Disk space alert",
		Status:   &status,
		Priority: &priority,
		Category: "infrastructure",
	})

	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("Status = %q, want closed", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityUrgent {
		t.Fatalf("Priority = %q, want urgent", ticket.Priority)
	}
	if ticket.Category != "infrastructure" {
		t.Fatalf("Category = %q, want infrastructure", ticket.Category)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	badStatus := domain.TicketStatus("archived")
	badPriority := domain.TicketPriority("critical")

	testCases := []struct {
		name      string
		input     TicketCreateInput
		wantField string
	}{
		{
			name:      "short subject",
			input:     TicketCreateInput{Subject: "Hey"},
			wantField: "subject",
		},
		{
			name:      "missing subject",
			input:     TicketCreateInput{},
			wantField: "subject",
		},
		{
			name:      "invalid status",
			input:     TicketCreateInput{Subject: "Valid subject here", Status: &badStatus},
			wantField: "status",
		},
		{
			name:      "invalid priority",
			input:     TicketCreateInput{Subject: "Valid subject here", Priority: &badPriority},
			wantField: "priority",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			svc := newTestService()
			_, err := svc.CreateTicket(context.Background(), testCase.input)
			if code := domainCode(t, err); code != "VALIDATION_FAILED" {
				t.Fatalf("code = %q, want VALIDATION_FAILED", code)
			}
			var domainErr *apperrors.DomainError
			errors.As(err, &domainErr)
			if _, ok := domainErr.Details[testCase.wantField]; !ok {
				t.Fatalf("Details = %v, want entry for %q", domainErr.Details, testCase.wantField)
			}
		})
	}
}

func TestGetTicketByIDNotFound(t *testing.T) {
	svc := newTestService()
	for _, id := range []int64{1, 42, 9999} {
		_, err := svc.GetTicketByID(context.Background(), id)
		if code := domainCode(t, err); code != "NOT_FOUND" {
			t.Fatalf("GetTicketByID(%d) code = %q, want NOT_FOUND", id, code)
		}
	}
}

func TestUpdateTicket(t *testing.T) {
	svc := newTestService()
	ticket := mustCreate(t, svc, TicketCreateInput{Subject: "Original subject"})

	subject := "Updated subject line"
	status := domain.TicketStatusResolved
	updated, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdateInput{
		Subject: &subject,
		Status:  &status,
	})
	if err != nil {
		t.Fatalf("UpdateTicket() error = %v", err)
	}
	if updated.Subject != subject {
		t.Fatalf("Subject = %q, want %q", updated.Subject, subject)
	}
	if updated.Status != domain.TicketStatusResolved {
		t.Fatalf("Status = %q, want resolved", updated.Status)
	}
	if updated.Priority != domain.TicketPriorityMedium {
		t.Fatalf("Priority = %q, want untouched medium", updated.Priority)
	}
	if !updated.CreatedAt.Equal(ticket.CreatedAt) {
		t.Fatalf("CreatedAt changed: %v -> %v", ticket.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdateTicketErrors(t *testing.T) {
	svc := newTestService()
	ticket := mustCreate(t, svc, TicketCreateInput{Subject: "Needs an update"})

	short := "abc"
	_, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdateInput{Subject: &short})
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", code)
	}

	_, err = svc.UpdateTicket(context.Background(), 999, TicketUpdateInput{Subject: &short})
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("code = %q, want NOT_FOUND", code)
	}
}

func TestAssignTicketForcesInProgress(t *testing.T) {
	for _, start := range domain.Statuses() {
		t.Run(string(start), func(t *testing.T) {
			svc := newTestService()
			status := start
			ticket := mustCreate(t, svc, TicketCreateInput{
				Subject: "Assignment check",
				Status:  &status,
			})

			assigned, err := svc.AssignTicket(context.Background(), ticket.ID, 7)
			if err != nil {
				t.Fatalf("AssignTicket() error = %v", err)
			}
			if assigned.Status != domain.TicketStatusInProgress {
				t.Fatalf("Status = %q, want in_progress", assigned.Status)
			}
			if assigned.AssignedTo == nil || *assigned.AssignedTo != 7 {
				t.Fatalf("AssignedTo = %v, want 7", assigned.AssignedTo)
			}
		})
	}
}

func TestAssignTicketNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.AssignTicket(context.Background(), 123, 7)
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("code = %q, want NOT_FOUND", code)
	}
}

func TestCloseAndReopenTransitions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ticket := mustCreate(t, svc, TicketCreateInput{Subject: "Transition check"})

	closed, err := svc.CloseTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("CloseTicket() error = %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("Status = %q, want closed", closed.Status)
	}

	_, err = svc.CloseTicket(ctx, ticket.ID)
	if code := domainCode(t, err); code != "INVALID_TRANSITION" {
		t.Fatalf("second close code = %q, want INVALID_TRANSITION", code)
	}

	reopened, err := svc.ReopenTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("ReopenTicket() error = %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen {
		t.Fatalf("Status = %q, want open", reopened.Status)
	}

	_, err = svc.ReopenTicket(ctx, ticket.ID)
	if code := domainCode(t, err); code != "INVALID_TRANSITION" {
		t.Fatalf("second reopen code = %q, want INVALID_TRANSITION", code)
	}
}

func TestReopenOnlyFromClosed(t *testing.T) {
	for _, start := range []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusPending,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
	} {
		t.Run(string(start), func(t *testing.T) {
			svc := newTestService()
			status := start
			ticket := mustCreate(t, svc, TicketCreateInput{
				Subject: "Reopen precondition",
				Status:  &status,
			})
			_, err := svc.ReopenTicket(context.Background(), ticket.ID)
			if code := domainCode(t, err); code != "INVALID_TRANSITION" {
				t.Fatalf("code = %q, want INVALID_TRANSITION", code)
			}
		})
	}
}

func TestReopenCreatedClosedScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	status := domain.TicketStatusClosed
	ticket := mustCreate(t, svc, TicketCreateInput{
		Subject: "Born closed",
		Status:  &status,
	})

	reopened, err := svc.ReopenTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("ReopenTicket() error = %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen {
		t.Fatalf("Status = %q, want open", reopened.Status)
	}
	if _, err := svc.ReopenTicket(ctx, ticket.ID); err == nil {
		t.Fatal("second reopen succeeded, want INVALID_TRANSITION")
	}
}

func TestDeleteTicket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ticket := mustCreate(t, svc, TicketCreateInput{Subject: "Short lived ticket"})

	if err := svc.DeleteTicket(ctx, ticket.ID); err != nil {
		t.Fatalf("DeleteTicket() error = %v", err)
	}
	_, err := svc.GetTicketByID(ctx, ticket.ID)
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("code after delete = %q, want NOT_FOUND", code)
	}

	err = svc.DeleteTicket(ctx, ticket.ID)
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("second delete code = %q, want NOT_FOUND", code)
	}
}

func TestGetAllTicketsPagination(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		mustCreate(t, svc, TicketCreateInput{Subject: fmt.Sprintf("Ticket number %02d", i)})
	}

	page1, err := svc.GetAllTickets(ctx, TicketListQuery{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("GetAllTickets() error = %v", err)
	}
	if len(page1.Items) != 10 {
		t.Fatalf("len(Items) = %d, want 10", len(page1.Items))
	}
	if page1.Total != 15 {
		t.Fatalf("Total = %d, want 15", page1.Total)
	}
	if page1.TotalPages != 2 {
		t.Fatalf("TotalPages = %d, want 2", page1.TotalPages)
	}

	page2, err := svc.GetAllTickets(ctx, TicketListQuery{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("GetAllTickets() error = %v", err)
	}
	if len(page2.Items) != 5 {
		t.Fatalf("len(Items) page 2 = %d, want 5", len(page2.Items))
	}

	empty, err := svc.GetAllTickets(ctx, TicketListQuery{Page: 3, PerPage: 10})
	if err != nil {
		t.Fatalf("GetAllTickets() error = %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("len(Items) page 3 = %d, want 0", len(empty.Items))
	}
}

func TestGetAllTicketsStatusFilter(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	closed := domain.TicketStatusClosed
	mustCreate(t, svc, TicketCreateInput{Subject: "Open ticket one"})
	mustCreate(t, svc, TicketCreateInput{Subject: "Open ticket two"})
	mustCreate(t, svc, TicketCreateInput{Subject: "Closed ticket one", Status: &closed})

	result, err := svc.GetAllTickets(ctx, TicketListQuery{Status: "closed"})
	if err != nil {
		t.Fatalf("GetAllTickets() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	for _, ticket := range result.Items {
		if ticket.Status != domain.TicketStatusClosed {
			t.Fatalf("Status = %q, want closed", ticket.Status)
		}
	}
}

func TestGetAllTicketsSearch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	mustCreate(t, svc, TicketCreateInput{Subject: "Email outage in Berlin"})
	mustCreate(t, svc, TicketCreateInput{Subject: "VPN connection drops", Description: "Berlin office only"})
	mustCreate(t, svc, TicketCreateInput{Subject: "Printer out of toner"})

	result, err := svc.GetAllTickets(ctx, TicketListQuery{Search: "berlin"})
	if err != nil {
		t.Fatalf("GetAllTickets() error = %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2 (subject and description matches)", result.Total)
	}
}

func TestDashboardStats(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	closed := domain.TicketStatusClosed
	high := domain.TicketPriorityHigh
	mustCreate(t, svc, TicketCreateInput{Subject: "Stats ticket one"})
	mustCreate(t, svc, TicketCreateInput{Subject: "Stats ticket two", Priority: &high})
	mustCreate(t, svc, TicketCreateInput{Subject: "Stats ticket three", Status: &closed})

	stats, err := svc.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("GetDashboardStats() error = %v", err)
	}

	if stats.Total != 3 {
		t.Fatalf("Total = %d, want 3", stats.Total)
	}
	statusSum := 0
	for _, status := range domain.Statuses() {
		statusSum += stats.ByStatus[status]
	}
	if statusSum != stats.Total {
		t.Fatalf("sum(ByStatus) = %d, want %d", statusSum, stats.Total)
	}
	prioritySum := 0
	for _, priority := range domain.Priorities() {
		prioritySum += stats.ByPriority[priority]
	}
	if prioritySum != stats.Total {
		t.Fatalf("sum(ByPriority) = %d, want %d", prioritySum, stats.Total)
	}
	if stats.Recent > stats.Total {
		t.Fatalf("Recent = %d, exceeds Total %d", stats.Recent, stats.Total)
	}
	if stats.Recent != 3 {
		t.Fatalf("Recent = %d, want 3 (all created just now)", stats.Recent)
	}
	if len(stats.ByStatus) != len(domain.Statuses()) {
		t.Fatalf("len(ByStatus) = %d, want every status zero-filled", len(stats.ByStatus))
	}
}

func TestGetTicketsByUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	creator := int64(3)
	mustCreate(t, svc, TicketCreateInput{Subject: "Created by user three", CreatedBy: &creator})
	assigned := mustCreate(t, svc, TicketCreateInput{Subject: "Will be assigned"})
	if _, err := svc.AssignTicket(ctx, assigned.ID, 3); err != nil {
		t.Fatalf("AssignTicket() error = %v", err)
	}

	assignedTickets, err := svc.GetTicketsByUser(ctx, 3, RelationAssigned)
	if err != nil {
		t.Fatalf("GetTicketsByUser(assigned) error = %v", err)
	}
	if len(assignedTickets) != 1 || assignedTickets[0].ID != assigned.ID {
		t.Fatalf("assigned tickets = %v, want just #%d", assignedTickets, assigned.ID)
	}

	createdTickets, err := svc.GetTicketsByUser(ctx, 3, RelationCreated)
	if err != nil {
		t.Fatalf("GetTicketsByUser(created) error = %v", err)
	}
	if len(createdTickets) != 1 {
		t.Fatalf("len(created) = %d, want 1", len(createdTickets))
	}

	_, err = svc.GetTicketsByUser(ctx, 3, "watching")
	if code := domainCode(t, err); code != "INVALID_ARGUMENT" {
		t.Fatalf("code = %q, want INVALID_ARGUMENT", code)
	}

	none, err := svc.GetTicketsByUser(ctx, 99, RelationAssigned)
	if err != nil {
		t.Fatalf("GetTicketsByUser(no matches) error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("tickets = %v, want empty non-nil slice", none)
	}
}
