package domain

import "strings"

// TicketAction names a requested mutation. Values double as action-log type tags.
type TicketAction string

const (
	ActionCreated TicketAction = "CREATED"
	ActionOngoing TicketAction = "ONGOING"
	ActionResolve TicketAction = "RESOLVE"
	ActionReturn  TicketAction = "RETURN"
	ActionClose   TicketAction = "CLOSE"
	ActionCancel  TicketAction = "CANCEL"
	ActionAssign  TicketAction = "ASSIGN"
)

var actionAliases = map[string]TicketAction{
	"CREATE":    ActionCreated,
	"CREATED":   ActionCreated,
	"ONGOING":   ActionOngoing,
	"ONPROCESS": ActionOngoing,
	"RESOLVE":   ActionResolve,
	"RESOLVED":  ActionResolve,
	"RETURN":    ActionReturn,
	"RETURNED":  ActionReturn,
	"CLOSE":     ActionClose,
	"CLOSED":    ActionClose,
	"CANCEL":    ActionCancel,
	"CANCELLED": ActionCancel,
	"ASSIGN":    ActionAssign,
	"ASSIGNED":  ActionAssign,
}

// ParseTicketAction resolves a case-insensitive action name.
func ParseTicketAction(raw string) (TicketAction, bool) {
	action, ok := actionAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return action, ok
}
