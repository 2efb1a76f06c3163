package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestBuildTicketListQuery(t *testing.T) {
	cutoff := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("unrestricted scope with defaults", func(t *testing.T) {
		query, args, countQuery, countArgs := buildTicketListQuery(TicketFilter{
			Scope:    TicketScope{Unrestricted: true},
			SortDesc: true,
			Limit:    10,
		})

		assert.Contains(t, query, "WHERE deleted_at IS NULL ORDER BY created_at DESC, id DESC LIMIT $1")
		assert.Equal(t, []any{10}, args)
		assert.Equal(t, "SELECT COUNT(*) FROM tickets WHERE deleted_at IS NULL", countQuery)
		assert.Empty(t, countArgs)
	})

	t.Run("scope is rendered before filters", func(t *testing.T) {
		query, args, countQuery, countArgs := buildTicketListQuery(TicketFilter{
			Scope:  TicketScope{RequesterIDs: []string{"E-1"}},
			Search: "Printer",
			Bucket: BucketStatus,
			Status: domain.TicketStatusResolved,
			Limit:  10,
			Offset: 20,
		})

		where := query[strings.Index(query, "WHERE"):]
		assert.True(t, strings.HasPrefix(where, "WHERE deleted_at IS NULL AND requester_id = ANY($1) AND (LOWER(ticket_number) LIKE $2"))
		assert.Contains(t, query, "status = $3")
		assert.Contains(t, query, "ORDER BY created_at ASC, id ASC LIMIT $4 OFFSET $5")
		assert.Equal(t, []any{[]string{"E-1"}, "%printer%", 3, 10, 20}, args)
		assert.Contains(t, countQuery, "requester_id = ANY($1)")
		assert.Equal(t, []any{[]string{"E-1"}, "%printer%", 3}, countArgs)
	})

	t.Run("empty scope matches nothing", func(t *testing.T) {
		query, args, _, _ := buildTicketListQuery(TicketFilter{Scope: TicketScope{}})
		assert.Contains(t, query, "deleted_at IS NULL AND FALSE")
		assert.Empty(t, args)
	})

	t.Run("search covers every text field", func(t *testing.T) {
		query, _, _, _ := buildTicketListQuery(TicketFilter{Scope: TicketScope{Unrestricted: true}, Search: "x"})
		for _, column := range []string{"ticket_number", "requester_name", "request_type", "request_option", "COALESCE(item_name, '')"} {
			assert.Contains(t, query, "LOWER("+column+") LIKE $1")
		}
	})

	t.Run("search escapes like wildcards", func(t *testing.T) {
		_, args, _, _ := buildTicketListQuery(TicketFilter{Scope: TicketScope{Unrestricted: true}, Search: "50%_off"})
		require.Len(t, args, 1)
		assert.Equal(t, `%50\%\_off%`, args[0])
	})

	t.Run("open and critical buckets share the cutoff comparison", func(t *testing.T) {
		openQuery, openArgs, _, _ := buildTicketListQuery(TicketFilter{Scope: TicketScope{Unrestricted: true}, Bucket: BucketOpen, CriticalCutoff: cutoff})
		critQuery, critArgs, _, _ := buildTicketListQuery(TicketFilter{Scope: TicketScope{Unrestricted: true}, Bucket: BucketCritical, CriticalCutoff: cutoff})

		assert.Contains(t, openQuery, openBucketClause("$1"))
		assert.Contains(t, critQuery, criticalBucketClause("$1"))
		assert.Equal(t, []any{cutoff}, openArgs)
		assert.Equal(t, []any{cutoff}, critArgs)
	})

	t.Run("unknown sort field falls back to created_at", func(t *testing.T) {
		query, _, _, _ := buildTicketListQuery(TicketFilter{Scope: TicketScope{Unrestricted: true}, SortField: "details; DROP TABLE tickets"})
		assert.Contains(t, query, "ORDER BY created_at ASC")
		assert.NotContains(t, query, "DROP")
	})
}

func TestBuildTicketCountsQuery(t *testing.T) {
	cutoff := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	query, args := buildTicketCountsQuery(TicketScope{RequesterIDs: []string{"E-1", "E-2"}}, cutoff)

	assert.Contains(t, query, "FILTER (WHERE "+openBucketClause("$2")+")")
	assert.Contains(t, query, "FILTER (WHERE "+criticalBucketClause("$2")+")")
	assert.Contains(t, query, "WHERE deleted_at IS NULL AND requester_id = ANY($1)")
	assert.Equal(t, []any{[]string{"E-1", "E-2"}, cutoff}, args)
}

func TestTicketScopeAllows(t *testing.T) {
	ticket := &domain.Ticket{RequesterID: "E-7"}

	assert.True(t, TicketScope{Unrestricted: true}.Allows(ticket))
	assert.True(t, TicketScope{RequesterIDs: []string{"E-1", "E-7"}}.Allows(ticket))
	assert.False(t, TicketScope{RequesterIDs: []string{"E-1"}}.Allows(ticket))
	assert.False(t, TicketScope{}.Allows(ticket))
}
