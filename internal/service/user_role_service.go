package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const misDepartment = "MIS"

// RoleAttributes are the employee facts role derivation depends on.
type RoleAttributes struct {
	Department string
	JobTitle   string
	// SeniorApprover is true when the employee is a second or third approver for anyone.
	SeniorApprover bool
}

// ResolveRoles derives capability tags from attributes. Rules are independent, so an employee
// may hold several tags. The result is never empty.
func ResolveRoles(attrs RoleAttributes) domain.RoleSet {
	roles := domain.NewRoleSet()
	department := strings.ToUpper(strings.TrimSpace(attrs.Department))
	title := strings.ToLower(strings.TrimSpace(attrs.JobTitle))
	isMIS := department == misDepartment

	if isMIS && strings.Contains(title, "supervisor") {
		roles[domain.RoleMISSupervisor] = struct{}{}
		roles[domain.RoleSupportTechnician] = struct{}{}
	}
	if isMIS && (strings.Contains(title, "mis support technician") ||
		(strings.Contains(title, "mis") && strings.Contains(title, "supervisor")) ||
		strings.Contains(title, "network technician")) {
		roles[domain.RoleSupportTechnician] = struct{}{}
	}
	if department == "OPERATIONS" || title == "operations director" {
		roles[domain.RoleOD] = struct{}{}
	}
	if attrs.SeniorApprover {
		roles[domain.RoleDepartmentHead] = struct{}{}
	}
	if len(roles) == 0 {
		roles[domain.RoleUnknown] = struct{}{}
	}
	return roles
}

// UserRoleService assembles per-request actors from the employee directory.
type UserRoleService struct {
	directory repository.EmployeeDirectory
}

// NewUserRoleService constructs the service.
func NewUserRoleService(directory repository.EmployeeDirectory) *UserRoleService {
	return &UserRoleService{directory: directory}
}

// BuildActor loads the employee and derives roles plus the approver chain used for visibility.
func (s *UserRoleService) BuildActor(ctx context.Context, employeeID string) (*domain.Actor, error) {
	employee, err := s.directory.FindEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("employee not found")
		}
		return nil, apperrors.MapError(err)
	}
	senior, err := s.directory.IsSeniorApprover(ctx, employee.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	reports, err := s.directory.ListEmployeesWhereApprover(ctx, employee.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &domain.Actor{
		EmployeeID:  employee.ID,
		Name:        employee.Name,
		Department:  employee.Department,
		JobTitle:    employee.JobTitle,
		ProductLine: employee.ProductLine,
		Station:     employee.Station,
		Roles: ResolveRoles(RoleAttributes{
			Department:     employee.Department,
			JobTitle:       employee.JobTitle,
			SeniorApprover: senior,
		}),
		ApproverOf: reports,
	}, nil
}

// ListSupportTechnicians returns the ids of every support-technician-tagged employee.
func (s *UserRoleService) ListSupportTechnicians(ctx context.Context) ([]string, error) {
	employees, err := s.directory.ListByDepartment(ctx, misDepartment)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		roles := ResolveRoles(RoleAttributes{Department: e.Department, JobTitle: e.JobTitle})
		if roles.Has(domain.RoleSupportTechnician) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

// ListApproversFor exposes the product-line approver list for assignment pickers.
func (s *UserRoleService) ListApproversFor(ctx context.Context, productLine string) ([]domain.EmployeeRef, error) {
	refs, err := s.directory.ListApproversFor(ctx, productLine)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return refs, nil
}
