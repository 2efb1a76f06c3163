package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ViewOnlyLabel is shown on list rows when the caller has no mutating action.
const ViewOnlyLabel = "View"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequestType   string  `json:"request_type"`
	RequestOption string  `json:"request_option"`
	ItemName      *string `json:"item_name"`
	Details       string  `json:"details"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Action string `json:"action"`
	Remark string `json:"remark"`
	Rating *int   `json:"rating"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            int64      `json:"id"`
	TicketNumber  string     `json:"ticket_number"`
	RequesterID   string     `json:"requester_id"`
	RequesterName string     `json:"requester_name"`
	Department    string     `json:"department"`
	ProductLine   string     `json:"product_line"`
	Station       string     `json:"station"`
	RequestType   string     `json:"request_type"`
	RequestOption string     `json:"request_option"`
	ItemName      *string    `json:"item_name"`
	Status        int        `json:"status"`
	StatusLabel   string     `json:"status_label"`
	Rating        *int       `json:"rating"`
	AssignedTo    *string    `json:"assigned_to"`
	IsCritical    bool       `json:"is_critical"`
	Actions       []string   `json:"actions"`
	ActionLabel   string     `json:"action_label"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Details   string              `json:"details"`
	HandledBy *string             `json:"handled_by"`
	HandledAt *time.Time          `json:"handled_at"`
	ClosedBy  *string             `json:"closed_by"`
	History   []TicketLogResponse `json:"history"`
}

// TicketLogResponse is one audit entry.
type TicketLogResponse struct {
	ID         int64              `json:"id"`
	Action     string             `json:"action"`
	EmployeeID string             `json:"employee_id"`
	Remark     string             `json:"remark,omitempty"`
	Metadata   domain.LogMetadata `json:"metadata"`
	CreatedAt  time.Time          `json:"created_at"`
}

// PageMeta describes pagination.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// ActionNames converts actions to strings, never returning nil.
func ActionNames(actions []domain.TicketAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return out
}

// ActionLabel joins action names for display, or ViewOnlyLabel when there are none.
func ActionLabel(actions []domain.TicketAction) string {
	if len(actions) == 0 {
		return ViewOnlyLabel
	}
	label := string(actions[0])
	for _, a := range actions[1:] {
		label += "/" + string(a)
	}
	return label
}
