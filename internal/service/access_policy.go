package service

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AccessPolicy decides what an actor may see and do. It never looks at whether a transition
// is legal for the ticket's state; TicketStatusService owns that.
type AccessPolicy struct {
	machine *TicketStatusService
}

// NewAccessPolicy constructs the policy.
func NewAccessPolicy(machine *TicketStatusService) *AccessPolicy {
	if machine == nil {
		machine = NewTicketStatusService()
	}
	return &AccessPolicy{machine: machine}
}

// VisibleScope returns the listing predicate for actor.
func (p *AccessPolicy) VisibleScope(actor *domain.Actor) repository.TicketScope {
	if actor == nil {
		return repository.TicketScope{}
	}
	if actor.Roles.HasAny(domain.RoleMISSupervisor, domain.RoleSupportTechnician, domain.RoleOD) {
		return repository.TicketScope{Unrestricted: true}
	}
	if actor.Roles.Has(domain.RoleDepartmentHead) && len(actor.ApproverOf) > 0 {
		ids := make([]string, len(actor.ApproverOf))
		copy(ids, actor.ApproverOf)
		return repository.TicketScope{RequesterIDs: ids}
	}
	return repository.TicketScope{RequesterIDs: []string{actor.EmployeeID}}
}

// CanView applies VisibleScope to a single ticket.
func (p *AccessPolicy) CanView(actor *domain.Actor, ticket *domain.Ticket) bool {
	return p.VisibleScope(actor).Allows(ticket)
}

// AvailableActions returns the mutating actions offered on a list row. An empty result
// means view-only.
func (p *AccessPolicy) AvailableActions(ticket *domain.Ticket, actor *domain.Actor) []domain.TicketAction {
	actions := []domain.TicketAction{}
	if actor == nil || ticket == nil {
		return actions
	}
	if ticket.RequesterID == actor.EmployeeID && ticket.Status == domain.TicketStatusResolved {
		actions = append(actions, domain.ActionClose)
	}
	if actor.IsTechnician() &&
		(ticket.Status == domain.TicketStatusOpen || ticket.Status == domain.TicketStatusReturned) {
		actions = append(actions, domain.ActionResolve)
	}
	return actions
}

// Authorize checks actor legality for action on ticket, independent of ticket state.
func (p *AccessPolicy) Authorize(actor *domain.Actor, ticket *domain.Ticket, action domain.TicketAction) error {
	if actor == nil {
		return apperrors.NewUnauthorized("actor required")
	}
	isRequester := ticket.RequesterID == actor.EmployeeID

	allowed := false
	switch action {
	case domain.ActionClose:
		allowed = isRequester
	case domain.ActionOngoing, domain.ActionResolve, domain.ActionReturn:
		allowed = actor.IsTechnician()
	case domain.ActionCancel:
		allowed = isRequester || actor.IsTechnician()
	case domain.ActionAssign:
		allowed = actor.IsSupervisor()
	}
	if !allowed {
		return apperrors.NewForbidden("not permitted to " + string(action) + " this ticket")
	}
	return nil
}

// DetailActions lists every action the actor could perform right now, in table order.
// It is the intersection of actor legality and state legality.
func (p *AccessPolicy) DetailActions(ticket *domain.Ticket, actor *domain.Actor) []domain.TicketAction {
	actions := []domain.TicketAction{}
	for _, action := range transitionOrder {
		if p.Authorize(actor, ticket, action) != nil {
			continue
		}
		if p.machine.CanApply(ticket.Status, action) ||
			(action == domain.ActionResolve && p.machine.CanApply(ticket.Status, domain.ActionOngoing)) {
			actions = append(actions, action)
		}
	}
	return actions
}
