package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler exposes ticket CRUD and workflow endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	query := service.TicketListQuery{
		Page:      parseIntQuery(c, "page", 1),
		PerPage:   parseIntQuery(c, "per_page", 10),
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("assigned_to"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewInvalidArgument("Invalid assigned_to value")
		}
		query.AssignedTo = &userID
	}
	if query.PerPage > 100 {
		query.PerPage = 100
	}

	result, err := h.service.GetAllTickets(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   dto.FromTickets(result.Items),
		"pagination": dto.Pagination{
			Total:      result.Total,
			Page:       result.Page,
			PerPage:    result.PerPage,
			TotalPages: result.TotalPages,
		},
	})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicketByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   dto.FromTicket(ticket),
	})
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return apperrors.NewInvalidArgument("No data provided")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("Invalid request payload")
	}

	input := service.TicketCreateInput{
		Subject:    req.Subject,
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
		CreatedBy:  req.CreatedBy,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Category != nil {
		input.Category = *req.Category
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Ticket created successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// Update PUT /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	if len(c.Body()) == 0 {
		return apperrors.NewInvalidArgument("No data provided")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("Invalid request payload")
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), id, service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Ticket updated successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// Delete DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Ticket deleted successfully",
	})
}

// Assign POST /api/tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == nil {
		return apperrors.NewInvalidArgument("User ID is required")
	}

	ticket, err := h.service.AssignTicket(c.UserContext(), id, *req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Ticket assigned successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// Close POST /api/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Ticket closed successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// Reopen POST /api/tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ReopenTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Ticket reopened successfully",
		"data":    dto.FromTicket(ticket),
	})
}

// Stats GET /api/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   stats,
	})
}

// Meta GET /api/tickets/meta returns label maps for the console dropdowns.
func (h *TicketsHandler) Meta(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"statuses":   domain.StatusLabels(),
			"priorities": domain.PriorityLabels(),
		},
	})
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewInvalidArgument("Invalid ticket ID")
	}
	return id, nil
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
