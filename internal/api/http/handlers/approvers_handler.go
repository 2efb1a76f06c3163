package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ApproversHandler manages the approver reference lists and directory lookups.
type ApproversHandler struct {
	approvers *service.ApproverService
	roles     *service.UserRoleService
}

// NewApproversHandler constructs handler.
func NewApproversHandler(approvers *service.ApproverService, roles *service.UserRoleService) *ApproversHandler {
	return &ApproversHandler{approvers: approvers, roles: roles}
}

// List GET /approvers.
func (h *ApproversHandler) List(c *fiber.Ctx) error {
	kind, err := service.ParseApproverKind(c.Query("kind"))
	if err != nil {
		return err
	}
	items, err := h.approvers.List(c.UserContext(), kind)
	if err != nil {
		return err
	}
	resp := make([]dto.ApproverResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, dto.ApproverFromDomain(a))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create POST /approvers.
func (h *ApproversHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateApproverRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.approvers.Create(c.UserContext(), actor, req.EmployeeID, domain.ApproverKind(strings.ToUpper(strings.TrimSpace(req.Kind))))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ApproverFromDomain(*created)})
}

// Delete DELETE /approvers/:id.
func (h *ApproversHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid approver id", map[string]any{"id": c.Params("id")})
	}
	if err := h.approvers.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ForProductLine GET /approvers/product-lines/:productLine.
func (h *ApproversHandler) ForProductLine(c *fiber.Ctx) error {
	refs, err := h.roles.ListApproversFor(c.UserContext(), c.Params("productLine"))
	if err != nil {
		return err
	}
	resp := make([]dto.EmployeeRefResponse, 0, len(refs))
	for _, r := range refs {
		resp = append(resp, dto.EmployeeRefResponse{ID: r.ID, Name: r.Name, Department: r.Department, JobTitle: r.JobTitle})
	}
	return c.JSON(fiber.Map{"data": resp})
}
