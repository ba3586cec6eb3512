package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// UsersHandler exposes per-user ticket listings.
type UsersHandler struct {
	service *service.TicketService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(ticketService *service.TicketService) *UsersHandler {
	return &UsersHandler{service: ticketService}
}

// Tickets GET /api/users/:userId/tickets?relation=assigned|created.
func (h *UsersHandler) Tickets(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil || userID < 1 {
		return apperrors.NewInvalidArgument("Invalid user ID")
	}

	relation := c.Query("relation", service.RelationAssigned)
	tickets, err := h.service.GetTicketsByUser(c.UserContext(), userID, relation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   dto.FromTickets(tickets),
	})
}
