package domain

import (
	"encoding/json"
	"time"
)

// LogMetadataVersion is the schema version written with new action-log entries.
const LogMetadataVersion = 1

// TicketActionLogEntry is an append-only audit record, one per committed transition.
type TicketActionLogEntry struct {
	ID           int64
	TicketNumber string
	ActionType   TicketAction
	EmployeeID   string
	Remark       string
	Metadata     LogMetadata
	CreatedAt    time.Time
}

// LogMetadata is the structured snapshot stored with each log entry.
type LogMetadata struct {
	Version int            `json:"version"`
	Ticket  TicketSnapshot `json:"ticket"`
	Actor   ActorSnapshot  `json:"actor"`
}

// TicketSnapshot captures the business fields of a ticket at the moment of an action.
type TicketSnapshot struct {
	TicketNumber  string  `json:"ticket_number"`
	RequesterID   string  `json:"requester_id"`
	RequesterName string  `json:"requester_name"`
	Department    string  `json:"department"`
	ProductLine   string  `json:"product_line"`
	Station       string  `json:"station"`
	RequestType   string  `json:"request_type"`
	RequestOption string  `json:"request_option"`
	ItemName      *string `json:"item_name,omitempty"`
	Details       string  `json:"details"`
	Status        int     `json:"status"`
	Rating        *int    `json:"rating,omitempty"`
	AssignedTo    *string `json:"assigned_to,omitempty"`
}

// ActorSnapshot captures who performed an action.
type ActorSnapshot struct {
	EmployeeID string   `json:"employee_id"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	JobTitle   string   `json:"job_title"`
	Roles      []string `json:"roles"`
}

// NewLogMetadata builds a current-version snapshot.
func NewLogMetadata(ticket *Ticket, actor *Actor) LogMetadata {
	meta := LogMetadata{Version: LogMetadataVersion}
	if ticket != nil {
		meta.Ticket = TicketSnapshot{
			TicketNumber:  ticket.TicketNumber,
			RequesterID:   ticket.RequesterID,
			RequesterName: ticket.RequesterName,
			Department:    ticket.RequesterDepartment,
			ProductLine:   ticket.RequesterProductLine,
			Station:       ticket.RequesterStation,
			RequestType:   ticket.RequestType,
			RequestOption: ticket.RequestOption,
			ItemName:      ticket.ItemName,
			Details:       ticket.Details,
			Status:        int(ticket.Status),
			Rating:        ticket.Rating,
			AssignedTo:    ticket.AssignedTo,
		}
	}
	if actor != nil {
		meta.Actor = ActorSnapshot{
			EmployeeID: actor.EmployeeID,
			Name:       actor.Name,
			Department: actor.Department,
			JobTitle:   actor.JobTitle,
			Roles:      actor.Roles.Strings(),
		}
	}
	return meta
}

// legacyLogMetadata is the unversioned flat layout: ticket fields at the top level
// plus an embedded "employee" object.
type legacyLogMetadata struct {
	TicketSnapshot
	Employee *ActorSnapshot `json:"employee,omitempty"`
}

// UnmarshalJSON accepts both versioned documents and the unversioned legacy layout.
func (m *LogMetadata) UnmarshalJSON(data []byte) error {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Version != nil {
		type plain LogMetadata
		var v plain
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*m = LogMetadata(v)
		return nil
	}

	var legacy legacyLogMetadata
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	*m = LogMetadata{Version: 0, Ticket: legacy.TicketSnapshot}
	if legacy.Employee != nil {
		m.Actor = *legacy.Employee
	}
	return nil
}
