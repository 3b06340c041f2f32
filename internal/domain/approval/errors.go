package approval

import (
	"errors"
	"fmt"
)

var (
	ErrLeaveRequestNotFound   = errors.New("leave request not found")
	ErrRescheduleNotFound     = errors.New("reschedule request not found")
	ErrApprovalAlreadyStarted = errors.New("approval already started")
	ErrApprovalNotStarted     = errors.New("approval has not started")
	ErrApprovalAlreadyDecided = errors.New("approval already decided")
	ErrApprovalRejected       = errors.New("leave request was rejected")
	ErrStageBypassed          = errors.New("department head approval is bypassed for this request")
	ErrStageOutOfOrder        = errors.New("earlier approval stages are not yet approved")
	ErrLeaveRecalled          = errors.New("leave request has been recalled")
	ErrAlreadyRecalled        = errors.New("leave request already recalled")
	ErrNotFullyApproved       = errors.New("leave request is not fully approved")
	ErrReschedulePending      = errors.New("a reschedule request is already pending")
	ErrRescheduleProcessed    = errors.New("reschedule request already processed")
	ErrRoleMismatch           = errors.New("caller role does not match approval stage")
	ErrUnauthorizedAccess     = errors.New("unauthorized access to leave request")
)

// DataIntegrityError reports snapshot data that cannot belong to a valid
// leave request, such as an unknown role or two records for one role.
type DataIntegrityError struct {
	Field  string
	Value  string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s %q: %s", e.Field, e.Value, e.Reason)
}
