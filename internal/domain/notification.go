package domain

import "time"

// ActionRequired tells the recipient what is expected of them.
type ActionRequired string

const (
	ActionRequiredNone     ActionRequired = ""
	ActionRequiredReview   ActionRequired = "REVIEW"
	ActionRequiredAssess   ActionRequired = "ASSESS"
	ActionRequiredClose    ActionRequired = "CLOSE"
	ActionRequiredReassess ActionRequired = "REASSESS"
	ActionRequiredInfo     ActionRequired = "INFO"
	ActionRequiredClosed   ActionRequired = "CLOSED"
)

// NotificationType tags a notification for client-side rendering.
type NotificationType string

const (
	NotificationTicketCreated  NotificationType = "ticket_created"
	NotificationTicketAssigned NotificationType = "ticket_assigned"
	NotificationTicketResolved NotificationType = "ticket_resolved"
	NotificationTicketReturned NotificationType = "ticket_returned"
	NotificationTicketStatus   NotificationType = "ticket_status"
	NotificationTicketClosed   NotificationType = "ticket_closed"
	NotificationTicketUpdated  NotificationType = "ticket_updated"
)

// Notification is a durable inbox row for one recipient.
type Notification struct {
	ID             string
	RecipientID    string
	TicketNumber   string
	Message        string
	RequestType    string
	Details        string
	Type           NotificationType
	ActionRequired ActionRequired
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// PushPayload is the event published on a recipient's push channel.
type PushPayload struct {
	ID             string           `json:"id"`
	TicketID       string           `json:"ticket_id"`
	Message        string           `json:"message"`
	RequestType    string           `json:"request_type"`
	Details        string           `json:"details"`
	Type           NotificationType `json:"type"`
	ActionRequired ActionRequired   `json:"action_required"`
	Timestamp      time.Time        `json:"timestamp"`
}

// DeliveryReport aggregates the outcome of routing one transition.
type DeliveryReport struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}
