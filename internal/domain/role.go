package domain

import "sort"

// RoleTag is a capability derived from employee attributes.
type RoleTag string

const (
	RoleMISSupervisor     RoleTag = "MIS_SUPERVISOR"
	RoleSupportTechnician RoleTag = "SUPPORT_TECHNICIAN"
	RoleOD                RoleTag = "OD"
	RoleDepartmentHead    RoleTag = "DEPARTMENT_HEAD"
	RoleUnknown           RoleTag = "UNKNOWN"
)

// RoleSet is an unordered set of role tags.
type RoleSet map[RoleTag]struct{}

// NewRoleSet builds a set from tags.
func NewRoleSet(tags ...RoleTag) RoleSet {
	set := make(RoleSet, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// Has reports whether tag is present.
func (s RoleSet) Has(tag RoleTag) bool {
	_, ok := s[tag]
	return ok
}

// HasAny reports whether any of tags is present.
func (s RoleSet) HasAny(tags ...RoleTag) bool {
	for _, tag := range tags {
		if s.Has(tag) {
			return true
		}
	}
	return false
}

// Strings returns the tags sorted alphabetically.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, string(tag))
	}
	sort.Strings(out)
	return out
}

// Actor is the per-request identity of the caller. It is never cached across requests.
type Actor struct {
	EmployeeID  string
	Name        string
	Department  string
	JobTitle    string
	ProductLine string
	Station     string
	Roles       RoleSet
	// ApproverOf holds the employees who list this actor as first, second or third approver.
	ApproverOf []string
}

// IsTechnician reports MIS support capability (supervisors included).
func (a *Actor) IsTechnician() bool {
	return a != nil && a.Roles.HasAny(RoleSupportTechnician, RoleMISSupervisor)
}

// IsSupervisor reports the MIS supervisor capability.
func (a *Actor) IsSupervisor() bool {
	return a != nil && a.Roles.Has(RoleMISSupervisor)
}
