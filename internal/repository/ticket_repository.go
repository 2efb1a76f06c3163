package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the mutable fields only if the stored status still equals expected.
	// It returns false when the precondition no longer holds.
	Update(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) (bool, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	// GetByNumberForUpdate locks the row for the rest of the ambient transaction.
	GetByNumberForUpdate(ctx context.Context, number string) (*domain.Ticket, error)
	// LockNumberSequence serializes number generation for prefix within the ambient transaction.
	LockNumberSequence(ctx context.Context, prefix string) error
	// LastNumberWithPrefix returns the highest ticket number starting with prefix, or "".
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	Counts(ctx context.Context, scope TicketScope, cutoff time.Time) (TicketCounts, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, requester_id, requester_name, requester_department,
            requester_product_line, requester_station, request_type, request_option, item_name,
            details, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.RequesterID,
		ticket.RequesterName,
		ticket.RequesterDepartment,
		ticket.RequesterProductLine,
		ticket.RequesterStation,
		ticket.RequestType,
		ticket.RequestOption,
		ticket.ItemName,
		ticket.Details,
		int(ticket.Status),
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", translateError(err))
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, rating=$2, assigned_to=$3, handled_by=$4, handled_at=$5,
            closed_by=$6, closed_at=$7, updated_at=$8
        WHERE ticket_number=$9 AND status=$10 AND deleted_at IS NULL`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		int(ticket.Status),
		ticket.Rating,
		ticket.AssignedTo,
		ticket.HandledBy,
		ticket.HandledAt,
		ticket.ClosedBy,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.TicketNumber,
		int(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update ticket: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1 AND deleted_at IS NULL`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, number))
}

func (r *ticketRepository) GetByNumberForUpdate(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1 AND deleted_at IS NULL FOR UPDATE`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, number))
}

func (r *ticketRepository) LockNumberSequence(ctx context.Context, prefix string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix); err != nil {
		return fmt.Errorf("lock ticket sequence: %w", err)
	}
	return nil
}

func (r *ticketRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	const query = `
        SELECT ticket_number FROM tickets
        WHERE ticket_number LIKE $1
        ORDER BY LENGTH(ticket_number) DESC, ticket_number DESC
        LIMIT 1`
	var number string
	err := conn(ctx, r.pool).QueryRow(ctx, query, escapeLike(prefix)+"%").Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last ticket number: %w", err)
	}
	return number, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	query, args, countQuery, countArgs := buildTicketListQuery(filter)
	db := conn(ctx, r.pool)

	var total int
	if err := db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, total, rows.Err()
}

func (r *ticketRepository) Counts(ctx context.Context, scope TicketScope, cutoff time.Time) (TicketCounts, error) {
	query, args := buildTicketCountsQuery(scope, cutoff)
	var c TicketCounts
	err := conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&c.Total,
		&c.Open,
		&c.Critical,
		&c.Ongoing,
		&c.Resolved,
		&c.Closed,
		&c.Returned,
		&c.Cancelled,
	)
	if err != nil {
		return TicketCounts{}, fmt.Errorf("count ticket buckets: %w", err)
	}
	return c, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket domain.Ticket
		status int
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.RequesterDepartment,
		&ticket.RequesterProductLine,
		&ticket.RequesterStation,
		&ticket.RequestType,
		&ticket.RequestOption,
		&ticket.ItemName,
		&ticket.Details,
		&status,
		&ticket.Rating,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.HandledBy,
		&ticket.HandledAt,
		&ticket.ClosedBy,
		&ticket.ClosedAt,
		&ticket.DeletedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseTicketStatus(status)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", ticket.TicketNumber, err)
	}
	ticket.Status = parsed
	return &ticket, nil
}
