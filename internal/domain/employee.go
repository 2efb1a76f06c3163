package domain

// Employee is a row of the external employee directory.
type Employee struct {
	ID               string
	Name             string
	Department       string
	JobTitle         string
	ProductLine      string
	Station          string
	FirstApproverID  *string
	SecondApproverID *string
	ThirdApproverID  *string
}

// EmployeeRef is a display reference to a directory employee.
type EmployeeRef struct {
	ID         string
	Name       string
	Department string
	JobTitle   string
}
