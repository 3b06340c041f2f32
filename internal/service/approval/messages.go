package approval

import (
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
)

const submittedMessage = "Leave request submitted and is awaiting HR review"

// StepLabel is the stepper caption for a step.
func StepLabel(id approval.StepID) string {
	switch id {
	case approval.StepSubmitted:
		return "Submitted"
	case approval.StepHR:
		return "HR Review"
	case approval.StepDeptHead:
		return "Department Head Approval"
	case approval.StepAdmin:
		return "Admin Approval"
	}
	return string(id)
}

// BadgeStyle returns the color and icon shown next to a status badge.
func BadgeStyle(status approval.ApprovalStatus) (color, icon string) {
	switch status {
	case approval.StatusApproved:
		return "green", "check"
	case approval.StatusRejected:
		return "red", "cross"
	case approval.StatusPending:
		return "amber", "clock"
	}
	return "", ""
}

// StatusMessage looks up the sentence for a requester type, step and the
// step's approval status.
func StatusMessage(isDeptHeadRequest bool, step approval.StepID, status approval.ApprovalStatus) string {
	role, ok := step.Role()
	if !ok {
		return submittedMessage
	}

	if isDeptHeadRequest {
		switch role {
		case approval.RoleHR:
			switch status {
			case approval.StatusApproved:
				return "Approved by HR - Awaiting Admin approval"
			case approval.StatusRejected:
				return "Rejected by HR"
			case approval.StatusPending:
				return "Awaiting HR review"
			}
		case approval.RoleAdmin:
			switch status {
			case approval.StatusApproved:
				return "Approved by Admin - fully approved"
			case approval.StatusRejected:
				return "Rejected by Admin"
			case approval.StatusPending:
				return "Awaiting Admin approval - Department Head approval bypassed"
			}
		case approval.RoleDeptHead:
			// Not part of the bypass sequence; falls through to the standard wording.
		}
	}

	switch status {
	case approval.StatusApproved, approval.StatusRejected:
		return status.Label() + " by " + role.Label()
	default:
		return "Awaiting " + role.Label() + " approval"
	}
}
