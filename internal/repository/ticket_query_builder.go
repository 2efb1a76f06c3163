package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// StatusBucket selects the status slice of a listing.
type StatusBucket string

const (
	BucketAll      StatusBucket = "all"
	BucketOpen     StatusBucket = "open"
	BucketCritical StatusBucket = "critical"
	BucketStatus   StatusBucket = "status"
)

// TicketScope is the visibility predicate computed by the access policy.
// It is rendered before any caller-supplied filter.
type TicketScope struct {
	Unrestricted bool
	RequesterIDs []string
}

// Allows reports whether t falls inside the scope.
func (s TicketScope) Allows(t *domain.Ticket) bool {
	if s.Unrestricted {
		return true
	}
	for _, id := range s.RequesterIDs {
		if id == t.RequesterID {
			return true
		}
	}
	return false
}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Scope          TicketScope
	Search         string
	Bucket         StatusBucket
	Status         domain.TicketStatus
	CriticalCutoff time.Time
	SortField      string
	SortDesc       bool
	Limit          int
	Offset         int
}

// TicketCounts holds dashboard buckets. Open and Critical partition status Open.
type TicketCounts struct {
	Total     int `json:"total"`
	Open      int `json:"open"`
	Critical  int `json:"critical"`
	Ongoing   int `json:"ongoing"`
	Resolved  int `json:"resolved"`
	Closed    int `json:"closed"`
	Returned  int `json:"returned"`
	Cancelled int `json:"cancelled"`
}

const ticketColumns = `id, ticket_number, requester_id, requester_name, requester_department,
       requester_product_line, requester_station, request_type, request_option, item_name,
       details, status, rating, assigned_to, created_at, updated_at, handled_by, handled_at,
       closed_by, closed_at, deleted_at`

var ticketSortColumns = map[string]string{
	"created_at":     "created_at",
	"updated_at":     "updated_at",
	"ticket_number":  "ticket_number",
	"status":         "status",
	"requester_name": "requester_name",
	"request_type":   "request_type",
}

// SortableTicketField reports whether field may be used for ordering.
func SortableTicketField(field string) bool {
	_, ok := ticketSortColumns[field]
	return ok
}

// openBucketClause and criticalBucketClause are shared by the list and count paths
// so both classify a ticket identically for a given cutoff.
func openBucketClause(placeholder string) string {
	return fmt.Sprintf("(status = %d AND created_at >= %s)", domain.TicketStatusOpen, placeholder)
}

func criticalBucketClause(placeholder string) string {
	return fmt.Sprintf("(status = %d AND created_at < %s)", domain.TicketStatusOpen, placeholder)
}

type sqlArgs struct {
	values []any
}

func (a *sqlArgs) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

func scopeClauses(scope TicketScope, args *sqlArgs) []string {
	clauses := []string{"deleted_at IS NULL"}
	if scope.Unrestricted {
		return clauses
	}
	if len(scope.RequesterIDs) == 0 {
		return append(clauses, "FALSE")
	}
	return append(clauses, fmt.Sprintf("requester_id = ANY(%s)", args.add(scope.RequesterIDs)))
}

func filterClauses(filter TicketFilter, args *sqlArgs) []string {
	clauses := scopeClauses(filter.Scope, args)

	if term := strings.TrimSpace(filter.Search); term != "" {
		ph := args.add("%" + escapeLike(strings.ToLower(term)) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(ticket_number) LIKE %[1]s OR LOWER(requester_name) LIKE %[1]s OR LOWER(request_type) LIKE %[1]s OR LOWER(request_option) LIKE %[1]s OR LOWER(COALESCE(item_name, '')) LIKE %[1]s)",
			ph))
	}

	switch filter.Bucket {
	case BucketOpen:
		clauses = append(clauses, openBucketClause(args.add(filter.CriticalCutoff)))
	case BucketCritical:
		clauses = append(clauses, criticalBucketClause(args.add(filter.CriticalCutoff)))
	case BucketStatus:
		clauses = append(clauses, fmt.Sprintf("status = %s", args.add(int(filter.Status))))
	}
	return clauses
}

// buildTicketListQuery renders the page query and the matching total-count query.
func buildTicketListQuery(filter TicketFilter) (string, []any, string, []any) {
	var args sqlArgs
	where := strings.Join(filterClauses(filter, &args), " AND ")

	countQuery := "SELECT COUNT(*) FROM tickets WHERE " + where
	countArgs := append([]any(nil), args.values...)

	column, ok := ticketSortColumns[filter.SortField]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	query.WriteString(ticketColumns)
	query.WriteString(" FROM tickets WHERE ")
	query.WriteString(where)
	fmt.Fprintf(&query, " ORDER BY %s %s, id %s", column, direction, direction)
	if filter.Limit > 0 {
		query.WriteString(" LIMIT " + args.add(filter.Limit))
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET " + args.add(filter.Offset))
	}
	return query.String(), args.values, countQuery, countArgs
}

// buildTicketCountsQuery renders the dashboard aggregation over the visible scope.
func buildTicketCountsQuery(scope TicketScope, cutoff time.Time) (string, []any) {
	var args sqlArgs
	where := strings.Join(scopeClauses(scope, &args), " AND ")
	cutoffPh := args.add(cutoff)

	query := fmt.Sprintf(`SELECT COUNT(*),
       COUNT(*) FILTER (WHERE %s),
       COUNT(*) FILTER (WHERE %s),
       COUNT(*) FILTER (WHERE status = %d),
       COUNT(*) FILTER (WHERE status = %d),
       COUNT(*) FILTER (WHERE status = %d),
       COUNT(*) FILTER (WHERE status = %d),
       COUNT(*) FILTER (WHERE status = %d)
FROM tickets WHERE %s`,
		openBucketClause(cutoffPh),
		criticalBucketClause(cutoffPh),
		domain.TicketStatusOngoing,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
		domain.TicketStatusReturned,
		domain.TicketStatusCancelled,
		where)
	return query, args.values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
