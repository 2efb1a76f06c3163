package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketActionLogRepository appends and reads the per-ticket audit trail. Entries are never
// updated; they disappear only when the parent ticket row is destroyed.
type TicketActionLogRepository interface {
	Append(ctx context.Context, entry *domain.TicketActionLogEntry) error
	ListByTicket(ctx context.Context, ticketNumber string) ([]domain.TicketActionLogEntry, error)
}

type ticketActionLogRepository struct {
	pool *pgxpool.Pool
}

// NewTicketActionLogRepository builds repository.
func NewTicketActionLogRepository(pool *pgxpool.Pool) TicketActionLogRepository {
	return &ticketActionLogRepository{pool: pool}
}

func (r *ticketActionLogRepository) Append(ctx context.Context, entry *domain.TicketActionLogEntry) error {
	const query = `
        INSERT INTO ticket_action_logs (ticket_number, action_type, employee_id, remark, metadata, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		entry.TicketNumber,
		string(entry.ActionType),
		entry.EmployeeID,
		entry.Remark,
		entry.Metadata,
		entry.CreatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append action log: %w", err)
	}
	return nil
}

func (r *ticketActionLogRepository) ListByTicket(ctx context.Context, ticketNumber string) ([]domain.TicketActionLogEntry, error) {
	const query = `
        SELECT id, ticket_number, action_type, employee_id, remark, metadata, created_at
        FROM ticket_action_logs WHERE ticket_number=$1 ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("list action log: %w", err)
	}
	defer rows.Close()

	result := []domain.TicketActionLogEntry{}
	for rows.Next() {
		var (
			entry  domain.TicketActionLogEntry
			action string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketNumber,
			&action,
			&entry.EmployeeID,
			&entry.Remark,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.ActionType = domain.TicketAction(action)
		result = append(result, entry)
	}
	return result, rows.Err()
}
