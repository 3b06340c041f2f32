package approval

import "time"

// Role is an approving authority in the sign-off chain.
type Role string

const (
	RoleHR       Role = "hr"
	RoleDeptHead Role = "dept_head"
	RoleAdmin    Role = "admin"
)

// Roles lists every approving role, lowest authority first.
var Roles = [...]Role{RoleHR, RoleDeptHead, RoleAdmin}

// ParseRole returns a DataIntegrityError for anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleHR, RoleDeptHead, RoleAdmin:
		return r, nil
	}
	return "", &DataIntegrityError{Field: "role", Value: s, Reason: "unknown approval role"}
}

// Label is the display name used in step labels and messages.
func (r Role) Label() string {
	switch r {
	case RoleHR:
		return "HR"
	case RoleDeptHead:
		return "Department Head"
	case RoleAdmin:
		return "Admin"
	}
	return string(r)
}

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch st := ApprovalStatus(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// Label capitalizes the status for messages ("Approved", "Rejected").
func (s ApprovalStatus) Label() string {
	switch s {
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusPending:
		return "Pending"
	}
	return string(s)
}

// Decision is the action an approver takes on a pending record.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status maps a decision onto the resulting record status.
func (d Decision) Status() ApprovalStatus {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// ApprovalRecord is one approval decision by one role.
type ApprovalRecord struct {
	ID             string
	LeaveRequestID string
	Role           Role
	Status         ApprovalStatus
	ApproverID     *string
	ApprovedAt     *time.Time
	Remarks        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecallData describes an administrative recall of an approved leave.
type RecallData struct {
	ID               string
	LeaveRequestID   string
	OriginalDateFrom *time.Time
	OriginalDateTo   *time.Time
	NewDateFrom      *time.Time
	NewDateTo        *time.Time
	Reason           *string
	RecalledBy       *string
	RecalledAt       *time.Time
}

type LeaveRequestStatus string

const (
	LeaveStatusWaitingApproval LeaveRequestStatus = "waiting_approval"
	LeaveStatusApproved        LeaveRequestStatus = "approved"
	LeaveStatusRejected        LeaveRequestStatus = "rejected"
	LeaveStatusRecalled        LeaveRequestStatus = "recalled"
)

// LeaveRequest carries the fields of a leave request the approval pipeline reads.
type LeaveRequest struct {
	ID                string
	EmployeeID        string
	RequesterUserID   string
	StartDate         time.Time
	EndDate           time.Time
	IsDeptHeadRequest bool
	Status            LeaveRequestStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ApprovalState is the snapshot the resolver classifies.
type ApprovalState struct {
	Approvals         []ApprovalRecord
	IsDeptHeadRequest bool
	IsRecalled        bool
	RecallData        *RecallData
}

type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleRejected RescheduleStatus = "rejected"
	// Pending requests whose new start date passed undecided.
	RescheduleExpired RescheduleStatus = "expired"
)

// RescheduleRequest is an employee-initiated move of an approved leave,
// decided independently of the main approval records.
type RescheduleRequest struct {
	ID               string
	LeaveRequestID   string
	RequestedBy      string
	OriginalDateFrom time.Time
	OriginalDateTo   time.Time
	NewDateFrom      time.Time
	NewDateTo        time.Time
	Reason           string
	Status           RescheduleStatus
	DecidedBy        *string
	DecidedAt        *time.Time
	Remarks          *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
