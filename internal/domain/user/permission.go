package user

type Permission string

const (
	// Self service
	PermissionLeaveViewOwn    Permission = "leave.view_own"
	PermissionLeaveReschedule Permission = "leave.reschedule"

	// Approval
	PermissionLeaveViewAll     Permission = "leave.view_all"
	PermissionLeaveApprove     Permission = "leave.approve"
	PermissionLeaveStart       Permission = "leave.start_approval"
	PermissionLeaveRecall      Permission = "leave.recall"
	PermissionRescheduleDecide Permission = "leave.reschedule_decide"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionLeaveViewOwn,
		PermissionLeaveReschedule,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveStart,
		PermissionLeaveRecall,
		PermissionRescheduleDecide,
	},
	RoleHR: {
		PermissionLeaveViewOwn,
		PermissionLeaveReschedule,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveStart,
		PermissionLeaveRecall,
		PermissionRescheduleDecide,
	},
	RoleDeptHead: {
		// Department heads approve their department but cannot recall
		PermissionLeaveViewOwn,
		PermissionLeaveReschedule,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
	},
	RoleEmployee: {
		PermissionLeaveViewOwn,
		PermissionLeaveReschedule,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
