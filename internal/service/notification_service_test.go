package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type notificationHarness struct {
	svc       *NotificationService
	inbox     *fakeInbox
	publisher *fakePublisher
	metrics   *observability.Metrics
}

func newNotificationHarness(techs fakeTechnicians) *notificationHarness {
	h := &notificationHarness{
		inbox:     &fakeInbox{},
		publisher: &fakePublisher{failFor: map[string]bool{}},
		metrics:   observability.NewMetrics(),
	}
	h.svc = NewNotificationService(NotificationDependencies{
		Technicians: techs,
		Inbox:       h.inbox,
		Publisher:   h.publisher,
		Metrics:     h.metrics,
		Config:      config.NotificationConfig{ChannelPrefix: "helpdesk:notifications:", DetailsPreview: 100},
		Now:         fixedClock(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)),
	})
	return h
}

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		TicketNumber:  "TKTSPRT-2025-007",
		RequesterID:   "E1",
		RequesterName: "Ana",
		RequestType:   "Hardware",
		Details:       "Printer jammed",
		Status:        domain.TicketStatusCancelled,
	}
}

func TestRouteCancelByRequesterNotifiesTechnicians(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1", "T2"}})
	report := h.svc.Route(context.Background(), sampleTicket(), "CANCEL", requester("E1"))

	assert.Equal(t, domain.DeliveryReport{Success: 2, Failed: 0, Total: 2}, report)
	assert.ElementsMatch(t, []string{"T1", "T2"}, h.inbox.recipients())
	require.Len(t, h.publisher.messages, 2)
	assert.Equal(t, "helpdesk:notifications:T1", h.publisher.messages[0].channel)
	assert.Equal(t, domain.ActionRequiredInfo, h.publisher.messages[0].payload.ActionRequired)
	assert.Equal(t, "TKTSPRT-2025-007", h.publisher.messages[0].payload.TicketID)
}

func TestRouteCancelByTechnicianNotifiesRequester(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1", "T2"}})
	report := h.svc.Route(context.Background(), sampleTicket(), "cancel", technician("T1"))

	assert.Equal(t, domain.DeliveryReport{Success: 1, Total: 1}, report)
	assert.Equal(t, []string{"E1"}, h.inbox.recipients())
}

func TestRouteExcludesActorFromTechnicianFanOut(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1", "T2", "T2"}})
	ticket := sampleTicket()
	ticket.Status = domain.TicketStatusOngoing
	report := h.svc.Route(context.Background(), ticket, "ONGOING", technician("T1"))

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, []string{"T2"}, h.inbox.recipients())
}

func TestRouteCountsFailures(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1", "", "T3"}})
	h.publisher.failFor["helpdesk:notifications:T3"] = true
	report := h.svc.Route(context.Background(), sampleTicket(), "CREATED", requester("E1"))

	assert.Equal(t, domain.DeliveryReport{Success: 1, Failed: 2, Total: 3}, report)
	assert.Equal(t, report.Success+report.Failed, report.Total)
	success, failed := h.metrics.DeliveryTotals("CREATED")
	assert.Equal(t, int64(1), success)
	assert.Equal(t, int64(2), failed)
}

func TestRouteRecipientLookupFailure(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{err: errors.New("directory down")})
	report := h.svc.Route(context.Background(), sampleTicket(), "CREATED", requester("E1"))
	assert.Equal(t, domain.DeliveryReport{Failed: 1, Total: 1}, report)
}

func TestRouteUnknownActionDeliversNothing(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1"}})
	report := h.svc.Route(context.Background(), sampleTicket(), "ARCHIVE", requester("E1"))
	assert.Equal(t, domain.DeliveryReport{}, report)
}

func TestPlanMessages(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1"}})
	ticket := sampleTicket()

	plan, err := h.svc.Plan(context.Background(), ticket, "RESOLVE", technician("T1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, plan.Recipients)
	assert.Equal(t, domain.ActionRequiredClose, plan.ActionRequired)
	assert.Equal(t, domain.NotificationTicketResolved, plan.Type)

	plan, err = h.svc.Plan(context.Background(), ticket, "bogus", technician("T1"))
	require.NoError(t, err)
	assert.Equal(t, "Ticket TKTSPRT-2025-007 has been updated", plan.Message)
	assert.Equal(t, domain.ActionRequiredNone, plan.ActionRequired)
	assert.Empty(t, plan.Recipients)

	ticket.AssignedTo = strPtr("T9")
	plan, err = h.svc.Plan(context.Background(), ticket, "ASSIGN", supervisor("S1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T9"}, plan.Recipients)
	assert.Equal(t, domain.ActionRequiredAssess, plan.ActionRequired)
}

func TestActionRequiredMapping(t *testing.T) {
	assert.Equal(t, domain.ActionRequiredReview, ActionRequiredFor(domain.ActionCreated))
	assert.Equal(t, domain.ActionRequiredReassess, ActionRequiredFor(domain.ActionReturn))
	assert.Equal(t, domain.ActionRequiredClosed, ActionRequiredFor(domain.ActionClose))
	assert.Equal(t, domain.ActionRequiredNone, ActionRequiredFor("ARCHIVE"))
}

func TestDetailsPreviewIsTruncated(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1"}})
	ticket := sampleTicket()
	ticket.Details = strings.Repeat("é", 250)
	h.svc.Route(context.Background(), ticket, "CREATED", requester("E1"))

	require.Len(t, h.inbox.items, 1)
	assert.Equal(t, 100, len([]rune(h.inbox.items[0].Details)))
	assert.True(t, strings.HasSuffix(h.inbox.items[0].Details, "..."))
}

func TestInboxReadState(t *testing.T) {
	h := newNotificationHarness(fakeTechnicians{ids: []string{"T1"}})
	h.svc.Route(context.Background(), sampleTicket(), "CREATED", requester("E1"))
	h.svc.Route(context.Background(), sampleTicket(), "ONGOING", requester("E1"))
	tech := technician("T1")

	unread, err := h.svc.ListInbox(context.Background(), tech, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	require.NoError(t, h.svc.MarkRead(context.Background(), tech, unread[0].ID))
	err = h.svc.MarkRead(context.Background(), tech, unread[0].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = h.svc.MarkRead(context.Background(), technician("T2"), unread[1].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	count, err := h.svc.MarkAllRead(context.Background(), tech)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
