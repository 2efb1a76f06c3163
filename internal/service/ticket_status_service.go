package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type transitionRule struct {
	from           []domain.TicketStatus
	to             domain.TicketStatus
	requiresRemark bool
	requiresRating bool
}

// transitionOrder fixes the order actions are reported in.
var transitionOrder = []domain.TicketAction{
	domain.ActionOngoing,
	domain.ActionResolve,
	domain.ActionReturn,
	domain.ActionCancel,
	domain.ActionClose,
}

var transitionTable = map[domain.TicketAction]transitionRule{
	domain.ActionOngoing: {
		from: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusReturned},
		to:   domain.TicketStatusOngoing,
	},
	domain.ActionResolve: {
		from: []domain.TicketStatus{domain.TicketStatusOngoing},
		to:   domain.TicketStatusResolved,
	},
	domain.ActionReturn: {
		from:           []domain.TicketStatus{domain.TicketStatusOngoing},
		to:             domain.TicketStatusReturned,
		requiresRemark: true,
	},
	domain.ActionClose: {
		from:           []domain.TicketStatus{domain.TicketStatusResolved},
		to:             domain.TicketStatusClosed,
		requiresRating: true,
	},
	domain.ActionCancel: {
		from:           []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusOngoing},
		to:             domain.TicketStatusCancelled,
		requiresRemark: true,
	},
}

// TransitionRequest is one requested status change.
type TransitionRequest struct {
	Action  domain.TicketAction
	ActorID string
	Remark  string
	Rating  *int
	At      time.Time
}

// TicketStatusService is the ticket state machine. It checks state legality only;
// actor legality belongs to AccessPolicy.
type TicketStatusService struct{}

// NewTicketStatusService constructs the state machine.
func NewTicketStatusService() *TicketStatusService {
	return &TicketStatusService{}
}

// IsTransition reports whether action is a status transition handled by the state machine.
func (s *TicketStatusService) IsTransition(action domain.TicketAction) bool {
	_, ok := transitionTable[action]
	return ok
}

// CanApply reports whether action is legal from status.
func (s *TicketStatusService) CanApply(status domain.TicketStatus, action domain.TicketAction) bool {
	rule, ok := transitionTable[action]
	if !ok {
		return false
	}
	for _, from := range rule.from {
		if from == status {
			return true
		}
	}
	return false
}

// LegalActions lists the transitions available from status in a stable order.
func (s *TicketStatusService) LegalActions(status domain.TicketStatus) []domain.TicketAction {
	actions := []domain.TicketAction{}
	for _, action := range transitionOrder {
		if s.CanApply(status, action) {
			actions = append(actions, action)
		}
	}
	return actions
}

// Apply validates req against the current ticket and returns the next ticket state.
// The input ticket is never modified.
func (s *TicketStatusService) Apply(ticket *domain.Ticket, req TransitionRequest) (*domain.Ticket, error) {
	rule, ok := transitionTable[req.Action]
	if !ok {
		return nil, apperrors.NewValidationError("unsupported action", map[string]any{"action": string(req.Action)})
	}
	if !ticket.Status.Valid() {
		return nil, apperrors.NewInternalError(fmt.Errorf("ticket %s has invalid status %d", ticket.TicketNumber, int(ticket.Status)))
	}
	if !s.CanApply(ticket.Status, req.Action) {
		return nil, apperrors.NewInvalidTransition(string(req.Action), ticket.Status.String())
	}

	remark := strings.TrimSpace(req.Remark)
	if rule.requiresRemark && remark == "" {
		return nil, apperrors.NewValidationError("remark is required", map[string]any{"action": string(req.Action)})
	}

	next := ticket.Clone()
	if rule.requiresRating {
		if next.Rating == nil {
			if req.Rating == nil {
				return nil, apperrors.NewValidationError("rating is required to close a ticket", nil)
			}
			if *req.Rating < 1 || *req.Rating > 5 {
				return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": *req.Rating})
			}
			rating := *req.Rating
			next.Rating = &rating
		}
	} else if req.Rating != nil {
		return nil, apperrors.NewValidationError("rating is only accepted when closing", map[string]any{"action": string(req.Action)})
	}

	at := req.At
	actorID := req.ActorID
	next.Status = rule.to
	next.UpdatedAt = at

	switch req.Action {
	case domain.ActionOngoing:
		next.HandledBy = &actorID
		next.HandledAt = &at
	case domain.ActionResolve:
		if next.HandledBy == nil {
			next.HandledBy = &actorID
			next.HandledAt = &at
		}
	case domain.ActionClose:
		next.ClosedBy = &actorID
		next.ClosedAt = &at
	}
	return next, nil
}
