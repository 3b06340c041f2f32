package user

import "errors"

var (
	ErrApproverAccessRequired  = errors.New("approver access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
