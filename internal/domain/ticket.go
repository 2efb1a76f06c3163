package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. The numeric codes are persisted.
type TicketStatus int

const (
	TicketStatusOpen      TicketStatus = 1
	TicketStatusOngoing   TicketStatus = 2
	TicketStatusResolved  TicketStatus = 3
	TicketStatusClosed    TicketStatus = 4
	TicketStatusReturned  TicketStatus = 5
	TicketStatusCancelled TicketStatus = 6
)

var ticketStatusLabels = map[TicketStatus]string{
	TicketStatusOpen:      "Open",
	TicketStatusOngoing:   "Ongoing",
	TicketStatusResolved:  "Resolved",
	TicketStatusClosed:    "Closed",
	TicketStatusReturned:  "Returned",
	TicketStatusCancelled: "Cancelled",
}

// TicketStatuses lists every persisted status in code order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusOngoing,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusReturned,
	TicketStatusCancelled,
}

// Valid reports whether s is one of the defined codes.
func (s TicketStatus) Valid() bool {
	_, ok := ticketStatusLabels[s]
	return ok
}

// String returns the canonical label.
func (s TicketStatus) String() string {
	if label, ok := ticketStatusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("TicketStatus(%d)", int(s))
}

// ParseTicketStatus converts a stored code into a status.
func ParseTicketStatus(code int) (TicketStatus, error) {
	status := TicketStatus(code)
	if !status.Valid() {
		return 0, fmt.Errorf("unknown ticket status %d", code)
	}
	return status, nil
}

// Ticket is the aggregate for support requests. Requester fields are a snapshot taken at creation.
type Ticket struct {
	ID                   int64
	TicketNumber         string
	RequesterID          string
	RequesterName        string
	RequesterDepartment  string
	RequesterProductLine string
	RequesterStation     string
	RequestType          string
	RequestOption        string
	ItemName             *string
	Details              string
	Status               TicketStatus
	Rating               *int
	AssignedTo           *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	HandledBy            *string
	HandledAt            *time.Time
	ClosedBy             *string
	ClosedAt             *time.Time
	DeletedAt            *time.Time
}

// IsCritical reports whether an Open ticket has been waiting longer than threshold at now.
// Critical is never stored; it is recomputed on every read.
func (t *Ticket) IsCritical(now time.Time, threshold time.Duration) bool {
	return t.Status == TicketStatusOpen && now.Sub(t.CreatedAt) > threshold
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.ItemName = cloneString(t.ItemName)
	c.AssignedTo = cloneString(t.AssignedTo)
	c.HandledBy = cloneString(t.HandledBy)
	c.ClosedBy = cloneString(t.ClosedBy)
	c.HandledAt = cloneTime(t.HandledAt)
	c.ClosedAt = cloneTime(t.ClosedAt)
	c.DeletedAt = cloneTime(t.DeletedAt)
	if t.Rating != nil {
		r := *t.Rating
		c.Rating = &r
	}
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
