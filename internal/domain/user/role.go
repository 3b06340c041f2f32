package user

import "github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleDeptHead Role = "dept_head"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleHR, RoleDeptHead, RoleAdmin:
		return true
	}
	return false
}

// IsApprover reports whether the role signs off on leave requests.
func (r Role) IsApprover() bool {
	_, ok := r.ApprovalRole()
	return ok
}

// ApprovalRole maps a platform role onto its approval stage.
func (r Role) ApprovalRole() (approval.Role, bool) {
	switch r {
	case RoleHR:
		return approval.RoleHR, true
	case RoleDeptHead:
		return approval.RoleDeptHead, true
	case RoleAdmin:
		return approval.RoleAdmin, true
	}
	return "", false
}
