package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ApproverService maintains the technician and senior-approver reference lists.
type ApproverService struct {
	approvers repository.ApproverRepository
	directory repository.EmployeeDirectory
	logger    *zap.Logger
}

// NewApproverService constructs the service.
func NewApproverService(approvers repository.ApproverRepository, directory repository.EmployeeDirectory, logger *zap.Logger) *ApproverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApproverService{approvers: approvers, directory: directory, logger: logger}
}

// ParseApproverKind resolves an optional kind filter; empty means all kinds.
func ParseApproverKind(raw string) (*domain.ApproverKind, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return nil, nil
	}
	kind := domain.ApproverKind(raw)
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown approver kind", map[string]any{"kind": raw})
	}
	return &kind, nil
}

// List returns assignments, optionally restricted to one kind.
func (s *ApproverService) List(ctx context.Context, kind *domain.ApproverKind) ([]domain.ApproverAssignment, error) {
	items, err := s.approvers.List(ctx, kind)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Create registers a directory employee under kind, copying display fields from the directory.
func (s *ApproverService) Create(ctx context.Context, actor *domain.Actor, employeeID string, kind domain.ApproverKind) (*domain.ApproverAssignment, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown approver kind", map[string]any{"kind": string(kind)})
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.NewValidationError("employee_id is required", nil)
	}
	employee, err := s.directory.FindEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("employee not found in directory", map[string]any{"employee_id": employeeID})
		}
		return nil, apperrors.MapError(err)
	}

	assignment := &domain.ApproverAssignment{
		EmployeeID: employee.ID,
		Name:       employee.Name,
		Department: employee.Department,
		JobTitle:   employee.JobTitle,
		Kind:       kind,
	}
	if err := s.approvers.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict("employee already registered for this kind", map[string]any{
				"employee_id": employeeID,
				"kind":        string(kind),
			})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("approver registered",
		zap.String("employee_id", employee.ID),
		zap.String("kind", string(kind)),
		zap.String("actor", actor.EmployeeID))
	return assignment, nil
}

// Delete removes an assignment by id.
func (s *ApproverService) Delete(ctx context.Context, actor *domain.Actor, id int64) error {
	if err := requireSupervisor(actor); err != nil {
		return err
	}
	if err := s.approvers.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("approver", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("approver removed", zap.Int64("id", id), zap.String("actor", actor.EmployeeID))
	return nil
}

func requireSupervisor(actor *domain.Actor) error {
	if actor == nil {
		return apperrors.NewUnauthorized("actor required")
	}
	if !actor.IsSupervisor() {
		return apperrors.NewForbidden("MIS supervisor role required")
	}
	return nil
}
