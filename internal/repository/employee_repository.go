package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EmployeeDirectory reads the external employee/approver directory.
type EmployeeDirectory interface {
	FindEmployee(ctx context.Context, id string) (*domain.Employee, error)
	// ListApproversFor returns the distinct approvers referenced by employees of a product line.
	ListApproversFor(ctx context.Context, productLine string) ([]domain.EmployeeRef, error)
	// ListEmployeesWhereApprover returns employees naming id as first, second or third approver.
	ListEmployeesWhereApprover(ctx context.Context, id string) ([]string, error)
	// IsSeniorApprover reports whether id is a second or third approver for anyone.
	IsSeniorApprover(ctx context.Context, id string) (bool, error)
	ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error)
}

type employeeDirectory struct {
	pool *pgxpool.Pool
}

// NewEmployeeDirectory returns a Postgres-backed directory.
func NewEmployeeDirectory(pool *pgxpool.Pool) EmployeeDirectory {
	return &employeeDirectory{pool: pool}
}

const employeeColumns = `id, name, department, job_title, product_line, station,
       first_approver_id, second_approver_id, third_approver_id`

func (r *employeeDirectory) FindEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	return scanEmployee(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *employeeDirectory) ListApproversFor(ctx context.Context, productLine string) ([]domain.EmployeeRef, error) {
	const query = `
        SELECT DISTINCT a.id, a.name, a.department, a.job_title
        FROM employees e
        JOIN employees a ON a.id IN (e.first_approver_id, e.second_approver_id, e.third_approver_id)
        WHERE UPPER(e.product_line) = UPPER($1)
        ORDER BY a.name`
	rows, err := conn(ctx, r.pool).Query(ctx, query, productLine)
	if err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	defer rows.Close()

	refs := []domain.EmployeeRef{}
	for rows.Next() {
		var ref domain.EmployeeRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Department, &ref.JobTitle); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *employeeDirectory) ListEmployeesWhereApprover(ctx context.Context, id string) ([]string, error) {
	const query = `
        SELECT id FROM employees
        WHERE first_approver_id=$1 OR second_approver_id=$1 OR third_approver_id=$1
        ORDER BY id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list approver reports: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var employeeID string
		if err := rows.Scan(&employeeID); err != nil {
			return nil, err
		}
		ids = append(ids, employeeID)
	}
	return ids, rows.Err()
}

func (r *employeeDirectory) IsSeniorApprover(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM employees WHERE second_approver_id=$1 OR third_approver_id=$1)`
	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check approver: %w", err)
	}
	return exists, nil
}

func (r *employeeDirectory) ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE UPPER(department)=UPPER($1) ORDER BY id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("list department: %w", err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *employee)
	}
	return employees, rows.Err()
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Department,
		&e.JobTitle,
		&e.ProductLine,
		&e.Station,
		&e.FirstApproverID,
		&e.SecondApproverID,
		&e.ThirdApproverID,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
