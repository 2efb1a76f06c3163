package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventTicketTransitioned fires after a ticket mutation has committed.
	EventTicketTransitioned EventType = "ticket_transitioned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketTransitionedPayload carries the committed state the notification router needs.
type TicketTransitionedPayload struct {
	Action    domain.TicketAction `json:"action"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Remark    string              `json:"remark,omitempty"`
	Ticket    domain.Ticket       `json:"ticket"`
	Actor     domain.Actor        `json:"actor"`
}
