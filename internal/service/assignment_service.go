package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets    repository.TicketRepository
	logs       repository.TicketActionLogRepository
	approvers  repository.ApproverRepository
	tx         repository.TxManager
	policy     *AccessPolicy
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo   repository.TicketRepository
	LogRepo      repository.TicketActionLogRepository
	ApproverRepo repository.ApproverRepository
	TxManager    repository.TxManager
	Policy       *AccessPolicy
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Now          func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		logs:       deps.LogRepo,
		approvers:  deps.ApproverRepo,
		tx:         deps.TxManager,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// AssignTicket points a ticket at a registered technician without changing its status.
func (s *AssignmentService) AssignTicket(ctx context.Context, actor *domain.Actor, number, assigneeID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("actor required")
	}
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, apperrors.NewValidationError("assignee is required", nil)
	}

	assignee, err := s.approvers.GetByEmployee(ctx, assigneeID, domain.ApproverKindTechnician)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee is not a registered technician", map[string]any{"employee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}

	var assigned *domain.Ticket
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.tickets.GetByNumberForUpdate(ctx, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
			}
			return err
		}
		if err := s.policy.Authorize(actor, current, domain.ActionAssign); err != nil {
			return err
		}
		if current.Status == domain.TicketStatusClosed || current.Status == domain.TicketStatusCancelled {
			return apperrors.NewInvalidTransition(string(domain.ActionAssign), current.Status.String())
		}

		now := s.now()
		next := current.Clone()
		next.AssignedTo = &assignee.EmployeeID
		next.UpdatedAt = now
		updated, err := s.tickets.Update(ctx, next, current.Status)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.NewConflictRetryable("ticket changed while assigning", map[string]any{"ticket_number": number})
		}
		remark := "assigned to " + assignee.Name
		if err := s.logs.Append(ctx, newLogEntry(next, actor, domain.ActionAssign, remark, now)); err != nil {
			return err
		}
		assigned = next
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition(string(domain.ActionAssign))
	s.logger.Info("ticket assigned",
		zap.String("ticket_number", assigned.TicketNumber),
		zap.String("assignee", assignee.EmployeeID),
		zap.String("actor", actor.EmployeeID))
	publishTransition(ctx, s.dispatcher, domain.ActionAssign, assigned.Status, assigned, actor, "")
	return assigned, nil
}
