package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID             string                  `json:"id"`
	TicketID       string                  `json:"ticket_id"`
	Message        string                  `json:"message"`
	RequestType    string                  `json:"request_type"`
	Details        string                  `json:"details"`
	Type           domain.NotificationType `json:"type"`
	ActionRequired domain.ActionRequired   `json:"action_required"`
	Read           bool                    `json:"read"`
	ReadAt         *time.Time              `json:"read_at"`
	CreatedAt      time.Time               `json:"created_at"`
}

// NotificationFromDomain maps an inbox row.
func NotificationFromDomain(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		TicketID:       n.TicketNumber,
		Message:        n.Message,
		RequestType:    n.RequestType,
		Details:        n.Details,
		Type:           n.Type,
		ActionRequired: n.ActionRequired,
		Read:           n.ReadAt != nil,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}
