package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketListFilter describes listing parameters as received from callers.
type TicketListFilter struct {
	Search   string
	Status   string
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

// TicketListItem is one row of a listing with its derived fields.
type TicketListItem struct {
	Ticket     domain.Ticket
	IsCritical bool
	Actions    []domain.TicketAction
}

// TicketListResult is a page of tickets.
type TicketListResult struct {
	Items      []TicketListItem
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// TicketQueryService is the read-only listing and dashboard path.
type TicketQueryService struct {
	tickets repository.TicketRepository
	policy  *AccessPolicy
	cfg     config.TicketConfig
	now     func() time.Time
}

// NewTicketQueryService constructs the service.
func NewTicketQueryService(tickets repository.TicketRepository, policy *AccessPolicy, cfg config.TicketConfig, now func() time.Time) *TicketQueryService {
	if now == nil {
		now = time.Now
	}
	return &TicketQueryService{tickets: tickets, policy: policy, cfg: cfg, now: now}
}

// ParseStatusSelector turns a status selector into a bucket. Empty means all.
func ParseStatusSelector(raw string) (repository.StatusBucket, domain.TicketStatus, error) {
	selector := strings.ToLower(strings.TrimSpace(raw))
	switch selector {
	case "", string(repository.BucketAll):
		return repository.BucketAll, 0, nil
	case string(repository.BucketOpen):
		return repository.BucketOpen, 0, nil
	case string(repository.BucketCritical):
		return repository.BucketCritical, 0, nil
	}
	code, err := strconv.Atoi(selector)
	if err != nil {
		return "", 0, apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
	}
	status, err := domain.ParseTicketStatus(code)
	if err != nil {
		return "", 0, apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
	}
	return repository.BucketStatus, status, nil
}

// List returns the actor's visible tickets after filters, sort and pagination.
func (s *TicketQueryService) List(ctx context.Context, actor *domain.Actor, filter TicketListFilter) (*TicketListResult, error) {
	bucket, status, err := ParseStatusSelector(filter.Status)
	if err != nil {
		return nil, err
	}
	sortField := strings.ToLower(strings.TrimSpace(filter.SortBy))
	if sortField == "" {
		sortField = "created_at"
	}
	if !repository.SortableTicketField(sortField) {
		return nil, apperrors.NewValidationError("invalid sort field", map[string]any{"sort_by": filter.SortBy})
	}
	sortDesc := !strings.EqualFold(strings.TrimSpace(filter.SortDir), "asc")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := s.pageSize(filter.PageSize)

	now := s.now()
	repoFilter := repository.TicketFilter{
		Scope:          s.policy.VisibleScope(actor),
		Search:         filter.Search,
		Bucket:         bucket,
		Status:         status,
		CriticalCutoff: now.Add(-s.cfg.CriticalAfter()),
		SortField:      sortField,
		SortDesc:       sortDesc,
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
	}
	tickets, total, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	items := make([]TicketListItem, 0, len(tickets))
	for i := range tickets {
		items = append(items, TicketListItem{
			Ticket:     tickets[i],
			IsCritical: tickets[i].IsCritical(now, s.cfg.CriticalAfter()),
			Actions:    s.policy.AvailableActions(&tickets[i], actor),
		})
	}

	return &TicketListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Counts returns dashboard buckets over the actor's visible tickets.
func (s *TicketQueryService) Counts(ctx context.Context, actor *domain.Actor) (repository.TicketCounts, error) {
	cutoff := s.now().Add(-s.cfg.CriticalAfter())
	counts, err := s.tickets.Counts(ctx, s.policy.VisibleScope(actor), cutoff)
	if err != nil {
		return repository.TicketCounts{}, apperrors.MapError(err)
	}
	return counts, nil
}

func (s *TicketQueryService) pageSize(requested int) int {
	def := s.cfg.DefaultPageSize
	if def <= 0 {
		def = 10
	}
	if requested <= 0 {
		return def
	}
	if s.cfg.MaxPageSize > 0 && requested > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return requested
}
