package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationRepository is the durable per-user inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO notifications (id, recipient_id, ticket_number, message, request_type, details,
            type, action_required, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		n.ID,
		n.RecipientID,
		n.TicketNumber,
		n.Message,
		n.RequestType,
		n.Details,
		string(n.Type),
		string(n.ActionRequired),
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	query := `
        SELECT id, recipient_id, ticket_number, message, request_type, details, type,
               action_required, read_at, created_at
        FROM notifications WHERE recipient_id=$1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	result := []domain.Notification{}
	for rows.Next() {
		var (
			n              domain.Notification
			kind, required string
		)
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.TicketNumber,
			&n.Message,
			&n.RequestType,
			&n.Details,
			&kind,
			&required,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(kind)
		n.ActionRequired = domain.ActionRequired(required)
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string, at time.Time) (bool, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET read_at=$1 WHERE id=$2 AND recipient_id=$3 AND read_at IS NULL`,
		at, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET read_at=$1 WHERE recipient_id=$2 AND read_at IS NULL`,
		at, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return cmd.RowsAffected(), nil
}
