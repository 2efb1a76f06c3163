package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	queries     *service.TicketQueryService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, queries *service.TicketQueryService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, queries: queries, assignments: assignments}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		RequestType:   req.RequestType,
		RequestOption: req.RequestOption,
		ItemName:      req.ItemName,
		Details:       req.Details,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket, false, nil)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	result, err := h.queries.List(c.UserContext(), actor, service.TicketListFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 0),
	})
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(result.Items))
	for i := range result.Items {
		item := &result.Items[i]
		items = append(items, ticketSummary(&item.Ticket, item.IsCritical, item.Actions))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.PageMeta{
			Total:      result.Total,
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
		},
	})
}

// Counts GET /tickets/counts.
func (h *TicketsHandler) Counts(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	counts, err := h.queries.Counts(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// GetTicket GET /tickets/:number.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// Transition POST /tickets/:number/transitions.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Transition(c.UserContext(), actor, c.Params("number"), service.TransitionInput{
		Action: req.Action,
		Remark: req.Remark,
		Rating: req.Rating,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, false, nil)})
}

// Assign POST /tickets/:number/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.assignments.AssignTicket(c.UserContext(), actor, c.Params("number"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, false, nil)})
}

func currentActor(c *fiber.Ctx) (*domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok || actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket, critical bool, actions []domain.TicketAction) dto.TicketSummary {
	return dto.TicketSummary{
		ID:            ticket.ID,
		TicketNumber:  ticket.TicketNumber,
		RequesterID:   ticket.RequesterID,
		RequesterName: ticket.RequesterName,
		Department:    ticket.RequesterDepartment,
		ProductLine:   ticket.RequesterProductLine,
		Station:       ticket.RequesterStation,
		RequestType:   ticket.RequestType,
		RequestOption: ticket.RequestOption,
		ItemName:      ticket.ItemName,
		Status:        int(ticket.Status),
		StatusLabel:   ticket.Status.String(),
		Rating:        ticket.Rating,
		AssignedTo:    ticket.AssignedTo,
		IsCritical:    critical,
		Actions:       dto.ActionNames(actions),
		ActionLabel:   dto.ActionLabel(actions),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	history := make([]dto.TicketLogResponse, 0, len(detail.Log))
	for _, entry := range detail.Log {
		history = append(history, dto.TicketLogResponse{
			ID:         entry.ID,
			Action:     string(entry.ActionType),
			EmployeeID: entry.EmployeeID,
			Remark:     entry.Remark,
			Metadata:   entry.Metadata,
			CreatedAt:  entry.CreatedAt,
		})
	}
	ticket := &detail.Ticket
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket, detail.IsCritical, detail.Actions),
		Details:       ticket.Details,
		HandledBy:     ticket.HandledBy,
		HandledAt:     ticket.HandledAt,
		ClosedBy:      ticket.ClosedBy,
		History:       history,
	}
}
