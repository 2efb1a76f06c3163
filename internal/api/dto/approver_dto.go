package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateApproverRequest payload.
type CreateApproverRequest struct {
	EmployeeID string `json:"employee_id"`
	Kind       string `json:"kind"`
}

// ApproverResponse represents an approver assignment.
type ApproverResponse struct {
	ID         int64     `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	JobTitle   string    `json:"job_title"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmployeeRefResponse is a directory reference.
type EmployeeRefResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	JobTitle   string `json:"job_title"`
}

// ApproverFromDomain maps an assignment.
func ApproverFromDomain(a domain.ApproverAssignment) ApproverResponse {
	return ApproverResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		Name:       a.Name,
		Department: a.Department,
		JobTitle:   a.JobTitle,
		Kind:       string(a.Kind),
		CreatedAt:  a.CreatedAt,
	}
}
