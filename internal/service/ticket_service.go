package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// errStaleTicket signals that the ticket changed between read and conditional update.
var errStaleTicket = errors.New("ticket changed concurrently")

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	logs       repository.TicketActionLogRepository
	tx         repository.TxManager
	policy     *AccessPolicy
	machine    *TicketStatusService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.TicketConfig
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	LogRepo    repository.TicketActionLogRepository
	TxManager  repository.TxManager
	Policy     *AccessPolicy
	Machine    *TicketStatusService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Config     config.TicketConfig
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequestType   string
	RequestOption string
	ItemName      *string
	Details       string
}

// Validate rejects missing required fields.
func (in TicketCreateInput) Validate() error {
	missing := []string{}
	if strings.TrimSpace(in.RequestType) == "" {
		missing = append(missing, "request_type")
	}
	if strings.TrimSpace(in.RequestOption) == "" {
		missing = append(missing, "request_option")
	}
	if strings.TrimSpace(in.Details) == "" {
		missing = append(missing, "details")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

// TransitionInput is a caller's transition request.
type TransitionInput struct {
	Action string
	Remark string
	Rating *int
}

// TicketDetail is a single ticket with its audit trail.
type TicketDetail struct {
	Ticket     domain.Ticket
	Log        []domain.TicketActionLogEntry
	Actions    []domain.TicketAction
	IsCritical bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	machine := deps.Machine
	if machine == nil {
		machine = NewTicketStatusService()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		logs:       deps.LogRepo,
		tx:         deps.TxManager,
		policy:     deps.Policy,
		machine:    machine,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		cfg:        deps.Config,
		now:        now,
	}
}

// NextTicketNumber returns the number following last within prefix. An empty last starts at 001.
func NextTicketNumber(prefix, last string) (string, error) {
	seq := 0
	if last != "" {
		if !strings.HasPrefix(last, prefix) {
			return "", fmt.Errorf("ticket number %q does not start with %q", last, prefix)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", fmt.Errorf("parse ticket sequence %q: %w", last, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

// CreateTicket opens a ticket for the actor, snapshotting their directory attributes.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("actor required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Ticket
	err := s.withRetry(ctx, "create ticket", func() error {
		now := s.now()
		prefix := fmt.Sprintf("%s-%d-", s.cfg.NumberPrefix, now.Year())
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.tickets.LockNumberSequence(ctx, prefix); err != nil {
				return err
			}
			last, err := s.tickets.LastNumberWithPrefix(ctx, prefix)
			if err != nil {
				return err
			}
			number, err := NextTicketNumber(prefix, last)
			if err != nil {
				return err
			}
			ticket := &domain.Ticket{
				TicketNumber:         number,
				RequesterID:          actor.EmployeeID,
				RequesterName:        actor.Name,
				RequesterDepartment:  actor.Department,
				RequesterProductLine: actor.ProductLine,
				RequesterStation:     actor.Station,
				RequestType:          strings.TrimSpace(input.RequestType),
				RequestOption:        strings.TrimSpace(input.RequestOption),
				ItemName:             trimmedOrNil(input.ItemName),
				Details:              strings.TrimSpace(input.Details),
				Status:               domain.TicketStatusOpen,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := s.tickets.Insert(ctx, ticket); err != nil {
				return err
			}
			if err := s.logs.Append(ctx, newLogEntry(ticket, actor, domain.ActionCreated, "", now)); err != nil {
				return err
			}
			created = ticket
			return nil
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition(string(domain.ActionCreated))
	s.logger.Info("ticket created",
		zap.String("ticket_number", created.TicketNumber),
		zap.String("requester", created.RequesterID))
	publishTransition(ctx, s.dispatcher, domain.ActionCreated, 0, created, actor, "")
	return created, nil
}

// Transition applies a status action. Authorization runs before state legality so an
// unauthorized actor never learns whether the transition would have been legal.
func (s *TicketService) Transition(ctx context.Context, actor *domain.Actor, number string, input TransitionInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("actor required")
	}
	action, ok := domain.ParseTicketAction(input.Action)
	if !ok || !s.machine.IsTransition(action) {
		return nil, apperrors.NewValidationError("unsupported action", map[string]any{"action": input.Action})
	}
	remark := strings.TrimSpace(input.Remark)

	var (
		result    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.withRetry(ctx, "transition ticket", func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			current, err := s.tickets.GetByNumberForUpdate(ctx, number)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
				}
				return err
			}
			if err := s.policy.Authorize(actor, current, action); err != nil {
				return err
			}

			now := s.now()
			steps := []domain.TicketAction{action}
			if action == domain.ActionResolve && s.machine.CanApply(current.Status, domain.ActionOngoing) {
				steps = []domain.TicketAction{domain.ActionOngoing, domain.ActionResolve}
			}

			next := current
			entries := make([]*domain.TicketActionLogEntry, 0, len(steps))
			for _, step := range steps {
				req := TransitionRequest{Action: step, ActorID: actor.EmployeeID, At: now}
				if step == action {
					req.Remark = remark
					req.Rating = input.Rating
				}
				next, err = s.machine.Apply(next, req)
				if err != nil {
					return err
				}
				entries = append(entries, newLogEntry(next, actor, step, req.Remark, now))
			}

			updated, err := s.tickets.Update(ctx, next, current.Status)
			if err != nil {
				return err
			}
			if !updated {
				return errStaleTicket
			}
			for _, entry := range entries {
				if err := s.logs.Append(ctx, entry); err != nil {
					return err
				}
			}
			result, oldStatus = next, current.Status
			return nil
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition(string(action))
	s.logger.Info("ticket transitioned",
		zap.String("ticket_number", result.TicketNumber),
		zap.String("action", string(action)),
		zap.String("from", oldStatus.String()),
		zap.String("to", result.Status.String()),
		zap.String("actor", actor.EmployeeID))
	publishTransition(ctx, s.dispatcher, action, oldStatus, result, actor, remark)
	return result, nil
}

// GetTicket returns a visible ticket with its ordered action log and the caller's actions.
// Tickets outside the caller's scope are reported as not found.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Actor, number string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.policy.CanView(actor, ticket) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
	}
	entries, err := s.logs.ListByTicket(ctx, ticket.TicketNumber)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{
		Ticket:     *ticket,
		Log:        entries,
		Actions:    s.policy.DetailActions(ticket, actor),
		IsCritical: ticket.IsCritical(s.now(), s.cfg.CriticalAfter()),
	}, nil
}

// withRetry reruns fn while it fails with a retryable conflict, up to the configured count.
func (s *TicketService) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := s.cfg.ConflictRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		if attempt >= attempts {
			return apperrors.NewConflictRetryable(op+" conflicted with a concurrent update", map[string]any{"attempts": attempt})
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("retrying after conflict", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, errStaleTicket) || errors.Is(err, repository.ErrDuplicateKey)
}

func newLogEntry(ticket *domain.Ticket, actor *domain.Actor, action domain.TicketAction, remark string, at time.Time) *domain.TicketActionLogEntry {
	return &domain.TicketActionLogEntry{
		TicketNumber: ticket.TicketNumber,
		ActionType:   action,
		EmployeeID:   actor.EmployeeID,
		Remark:       remark,
		Metadata:     domain.NewLogMetadata(ticket, actor),
		CreatedAt:    at,
	}
}

func publishTransition(ctx context.Context, dispatcher events.Dispatcher, action domain.TicketAction, oldStatus domain.TicketStatus, ticket *domain.Ticket, actor *domain.Actor, remark string) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         events.EventTicketTransitioned,
		TicketNumber: ticket.TicketNumber,
		Timestamp:    time.Now(),
		Payload: events.TicketTransitionedPayload{
			Action:    action,
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Remark:    remark,
			Ticket:    *ticket.Clone(),
			Actor:     *actor,
		},
	})
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
