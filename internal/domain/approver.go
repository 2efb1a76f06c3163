package domain

import "time"

// ApproverKind distinguishes the two reference lists kept by administrators.
type ApproverKind string

const (
	ApproverKindTechnician     ApproverKind = "TECHNICIAN"
	ApproverKindSeniorApprover ApproverKind = "SENIOR_APPROVER"
)

// Valid reports whether k is a known kind.
func (k ApproverKind) Valid() bool {
	return k == ApproverKindTechnician || k == ApproverKindSeniorApprover
}

// ApproverAssignment maps an employee to the display fields shown in assignment pickers.
type ApproverAssignment struct {
	ID         int64
	EmployeeID string
	Name       string
	Department string
	JobTitle   string
	Kind       ApproverKind
	CreatedAt  time.Time
}
