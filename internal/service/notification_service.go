package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/push"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TechnicianLister resolves the support-technician recipient pool.
type TechnicianLister interface {
	ListSupportTechnicians(ctx context.Context) ([]string, error)
}

// NotificationService routes committed ticket transitions to recipients.
type NotificationService struct {
	technicians TechnicianLister
	inbox       repository.NotificationRepository
	publisher   push.Publisher
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	cfg         config.NotificationConfig
	now         func() time.Time
}

// NotificationDependencies bundles collaborators for the router.
type NotificationDependencies struct {
	Technicians TechnicianLister
	Inbox       repository.NotificationRepository
	Publisher   push.Publisher
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Config      config.NotificationConfig
	Now         func() time.Time
}

// RoutePlan is the pure outcome of recipient resolution.
type RoutePlan struct {
	Recipients     []string
	Message        string
	Type           domain.NotificationType
	ActionRequired domain.ActionRequired
}

var actionRequiredByAction = map[domain.TicketAction]domain.ActionRequired{
	domain.ActionCreated: domain.ActionRequiredReview,
	domain.ActionAssign:  domain.ActionRequiredAssess,
	domain.ActionResolve: domain.ActionRequiredClose,
	domain.ActionReturn:  domain.ActionRequiredReassess,
	domain.ActionOngoing: domain.ActionRequiredInfo,
	domain.ActionCancel:  domain.ActionRequiredInfo,
	domain.ActionClose:   domain.ActionRequiredClosed,
}

type messageTemplate struct {
	kind   domain.NotificationType
	render func(t *domain.Ticket) string
}

var messageTemplates = map[domain.ActionRequired]messageTemplate{
	domain.ActionRequiredReview: {domain.NotificationTicketCreated, func(t *domain.Ticket) string {
		return fmt.Sprintf("New ticket %s from %s needs review", t.TicketNumber, t.RequesterName)
	}},
	domain.ActionRequiredAssess: {domain.NotificationTicketAssigned, func(t *domain.Ticket) string {
		return fmt.Sprintf("Ticket %s has been assigned to you for assessment", t.TicketNumber)
	}},
	domain.ActionRequiredClose: {domain.NotificationTicketResolved, func(t *domain.Ticket) string {
		return fmt.Sprintf("Ticket %s has been resolved. Please rate and close it", t.TicketNumber)
	}},
	domain.ActionRequiredReassess: {domain.NotificationTicketReturned, func(t *domain.Ticket) string {
		return fmt.Sprintf("Ticket %s has been returned for reassessment", t.TicketNumber)
	}},
	domain.ActionRequiredInfo: {domain.NotificationTicketStatus, func(t *domain.Ticket) string {
		return fmt.Sprintf("Ticket %s is now %s", t.TicketNumber, t.Status)
	}},
	domain.ActionRequiredClosed: {domain.NotificationTicketClosed, func(t *domain.Ticket) string {
		return fmt.Sprintf("Ticket %s has been closed", t.TicketNumber)
	}},
}

var defaultTemplate = messageTemplate{domain.NotificationTicketUpdated, func(t *domain.Ticket) string {
	return fmt.Sprintf("Ticket %s has been updated", t.TicketNumber)
}}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		technicians: deps.Technicians,
		inbox:       deps.Inbox,
		publisher:   deps.Publisher,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		metrics:     deps.Metrics,
		cfg:         deps.Config,
		now:         now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketTransitioned, n.handleTicketTransitioned)
}

func (n *NotificationService) handleTicketTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransitionedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	report := n.Route(ctx, &payload.Ticket, string(payload.Action), &payload.Actor)
	n.logger.Info("TicketTransitioned",
		zap.String("ticket_number", event.TicketNumber),
		zap.String("action", string(payload.Action)),
		zap.Int("delivered", report.Success),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.Total))
	return nil
}

// ActionRequiredFor maps an action to its marker. Unknown actions map to none.
func ActionRequiredFor(action domain.TicketAction) domain.ActionRequired {
	return actionRequiredByAction[action]
}

// Plan resolves recipients and message for a transition without delivering anything.
func (n *NotificationService) Plan(ctx context.Context, ticket *domain.Ticket, rawAction string, actor *domain.Actor) (RoutePlan, error) {
	action, _ := domain.ParseTicketAction(rawAction)
	required := ActionRequiredFor(action)
	tmpl, ok := messageTemplates[required]
	if !ok {
		tmpl = defaultTemplate
	}
	plan := RoutePlan{
		Message:        tmpl.render(ticket),
		Type:           tmpl.kind,
		ActionRequired: required,
	}

	actorID := ""
	if actor != nil {
		actorID = actor.EmployeeID
	}

	switch action {
	case domain.ActionCreated, domain.ActionOngoing, domain.ActionReturn, domain.ActionClose:
		techs, err := n.technicians.ListSupportTechnicians(ctx)
		if err != nil {
			return plan, err
		}
		plan.Recipients = excluding(techs, actorID)
	case domain.ActionResolve:
		plan.Recipients = []string{ticket.RequesterID}
	case domain.ActionCancel:
		if actorID != "" && actorID == ticket.RequesterID {
			techs, err := n.technicians.ListSupportTechnicians(ctx)
			if err != nil {
				return plan, err
			}
			plan.Recipients = uniqueIDs(techs)
		} else {
			plan.Recipients = []string{ticket.RequesterID}
		}
	case domain.ActionAssign:
		if ticket.AssignedTo != nil {
			plan.Recipients = []string{*ticket.AssignedTo}
		}
	}
	return plan, nil
}

// Route delivers the notification for a committed transition. It never returns an error:
// failures are logged and reflected in the report.
func (n *NotificationService) Route(ctx context.Context, ticket *domain.Ticket, action string, actor *domain.Actor) domain.DeliveryReport {
	var report domain.DeliveryReport
	plan, err := n.Plan(ctx, ticket, action, actor)
	if err != nil {
		n.logger.Warn("resolve notification recipients",
			zap.String("ticket_number", ticket.TicketNumber),
			zap.String("action", action),
			zap.Error(err))
		report.Failed, report.Total = 1, 1
		n.metrics.RecordDelivery(strings.ToUpper(action), 0, 1)
		return report
	}

	for _, recipient := range plan.Recipients {
		report.Total++
		if err := n.deliver(ctx, ticket, plan, recipient); err != nil {
			report.Failed++
			n.logger.Warn("notification delivery failed",
				zap.String("ticket_number", ticket.TicketNumber),
				zap.String("recipient", recipient),
				zap.String("action", action),
				zap.Error(err))
			continue
		}
		report.Success++
	}
	n.metrics.RecordDelivery(strings.ToUpper(action), report.Success, report.Failed)
	return report
}

func (n *NotificationService) deliver(ctx context.Context, ticket *domain.Ticket, plan RoutePlan, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("recipient has no inbox identity")
	}
	now := n.now()
	notification := &domain.Notification{
		ID:             uuid.NewString(),
		RecipientID:    recipient,
		TicketNumber:   ticket.TicketNumber,
		Message:        plan.Message,
		RequestType:    ticket.RequestType,
		Details:        stringPreview(ticket.Details, n.detailsLimit()),
		Type:           plan.Type,
		ActionRequired: plan.ActionRequired,
		CreatedAt:      now,
	}
	if err := n.inbox.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist inbox: %w", err)
	}
	payload := domain.PushPayload{
		ID:             notification.ID,
		TicketID:       notification.TicketNumber,
		Message:        notification.Message,
		RequestType:    notification.RequestType,
		Details:        notification.Details,
		Type:           notification.Type,
		ActionRequired: notification.ActionRequired,
		Timestamp:      now,
	}
	if n.publisher == nil {
		return push.ErrNotConfigured
	}
	return n.publisher.Publish(ctx, push.ChannelFor(n.cfg.ChannelPrefix, recipient), payload)
}

func (n *NotificationService) detailsLimit() int {
	if n.cfg.DetailsPreview <= 0 {
		return 100
	}
	return n.cfg.DetailsPreview
}

// ListInbox returns the caller's notifications, newest first.
func (n *NotificationService) ListInbox(ctx context.Context, actor *domain.Actor, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	items, err := n.inbox.ListByRecipient(ctx, actor.EmployeeID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead marks one of the caller's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.Actor, id string) error {
	updated, err := n.inbox.MarkRead(ctx, actor.EmployeeID, id, n.now())
	if err != nil {
		return apperrors.MapError(err)
	}
	if !updated {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor *domain.Actor) (int64, error) {
	count, err := n.inbox.MarkAllRead(ctx, actor.EmployeeID, n.now())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func excluding(ids []string, skip string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
