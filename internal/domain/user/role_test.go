package user

import (
	"testing"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/stretchr/testify/assert"
)

func TestRole_ApprovalRole(t *testing.T) {
	tests := []struct {
		role     Role
		want     approval.Role
		approver bool
	}{
		{RoleEmployee, "", false},
		{RoleHR, approval.RoleHR, true},
		{RoleDeptHead, approval.RoleDeptHead, true},
		{RoleAdmin, approval.RoleAdmin, true},
		{Role("owner"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got, ok := tt.role.ApprovalRole()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.approver, ok)
			assert.Equal(t, tt.approver, tt.role.IsApprover())
		})
	}

	assert.False(t, Role("owner").IsValid())
	assert.True(t, RoleEmployee.IsValid())
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermissionLeaveRecall))
	assert.True(t, HasPermission(RoleHR, PermissionRescheduleDecide))
	assert.True(t, HasPermission(RoleDeptHead, PermissionLeaveApprove))
	assert.False(t, HasPermission(RoleDeptHead, PermissionLeaveRecall))
	assert.False(t, HasPermission(RoleEmployee, PermissionLeaveApprove))
	assert.True(t, HasPermission(RoleEmployee, PermissionLeaveReschedule))
	assert.False(t, HasPermission(Role("owner"), PermissionLeaveViewOwn))
}
