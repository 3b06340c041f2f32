package approval

import (
	"context"
	"time"
)

// LeaveRequestRepository - interface for the approval-facing columns of leave_requests
type LeaveRequestRepository interface {
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	UpdateStatus(ctx context.Context, id string, status LeaveRequestStatus) error
	UpdateDates(ctx context.Context, id string, startDate, endDate time.Time) error
}

// ApprovalRecordRepository - interface for leave_approvals table
type ApprovalRecordRepository interface {
	Create(ctx context.Context, record ApprovalRecord) (ApprovalRecord, error)
	GetByLeaveRequestID(ctx context.Context, leaveRequestID string) ([]ApprovalRecord, error)
	UpdateDecision(ctx context.Context, record ApprovalRecord) error
}

// RecallRepository - interface for leave_recalls table
type RecallRepository interface {
	Create(ctx context.Context, recall RecallData) (RecallData, error)
	GetByLeaveRequestID(ctx context.Context, leaveRequestID string) (*RecallData, error)
}

// RescheduleRepository - interface for leave_reschedules table
type RescheduleRepository interface {
	Create(ctx context.Context, reschedule RescheduleRequest) (RescheduleRequest, error)
	GetByID(ctx context.Context, id string) (RescheduleRequest, error)
	GetByLeaveRequestID(ctx context.Context, leaveRequestID string) ([]RescheduleRequest, error)
	HasPending(ctx context.Context, leaveRequestID string) (bool, error)
	UpdateDecision(ctx context.Context, reschedule RescheduleRequest) error
	ListPendingStartingBefore(ctx context.Context, date time.Time) ([]RescheduleRequest, error)
}
