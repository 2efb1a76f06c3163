package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ApproverRepository stores the administrator-maintained approver reference table.
type ApproverRepository interface {
	Create(ctx context.Context, assignment *domain.ApproverAssignment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, kind *domain.ApproverKind) ([]domain.ApproverAssignment, error)
	GetByEmployee(ctx context.Context, employeeID string, kind domain.ApproverKind) (*domain.ApproverAssignment, error)
}

type approverRepository struct {
	pool *pgxpool.Pool
}

// NewApproverRepository builds repository.
func NewApproverRepository(pool *pgxpool.Pool) ApproverRepository {
	return &approverRepository{pool: pool}
}

func (r *approverRepository) Create(ctx context.Context, a *domain.ApproverAssignment) error {
	const query = `
        INSERT INTO approver_assignments (employee_id, name, department, job_title, kind)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		a.EmployeeID,
		a.Name,
		a.Department,
		a.JobTitle,
		string(a.Kind),
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create approver: %w", translateError(err))
	}
	return nil
}

func (r *approverRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM approver_assignments WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete approver: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *approverRepository) List(ctx context.Context, kind *domain.ApproverKind) ([]domain.ApproverAssignment, error) {
	query := `SELECT id, employee_id, name, department, job_title, kind, created_at FROM approver_assignments`
	args := []any{}
	if kind != nil {
		query += ` WHERE kind=$1`
		args = append(args, string(*kind))
	}
	query += ` ORDER BY name, id`

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	defer rows.Close()

	result := []domain.ApproverAssignment{}
	for rows.Next() {
		a, err := scanApprover(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *approverRepository) GetByEmployee(ctx context.Context, employeeID string, kind domain.ApproverKind) (*domain.ApproverAssignment, error) {
	const query = `
        SELECT id, employee_id, name, department, job_title, kind, created_at
        FROM approver_assignments WHERE employee_id=$1 AND kind=$2`
	return scanApprover(conn(ctx, r.pool).QueryRow(ctx, query, employeeID, string(kind)))
}

func scanApprover(row pgx.Row) (*domain.ApproverAssignment, error) {
	var (
		a    domain.ApproverAssignment
		kind string
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.Name, &a.Department, &a.JobTitle, &kind, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Kind = domain.ApproverKind(kind)
	return &a, nil
}
