package approval

import (
	"context"
)

type ApprovalService interface {
	// Progress
	ResolveSnapshot(ctx context.Context, req ResolveProgressRequest) (Progress, error)
	GetProgress(ctx context.Context, leaveRequestID string, viewer Viewer) (Progress, error)
	// Workflow
	StartApproval(ctx context.Context, leaveRequestID string) (Progress, error)
	Decide(ctx context.Context, req DecideApprovalRequest) (Progress, error)
	Recall(ctx context.Context, req RecallLeaveRequest) (Progress, error)
	// Reschedule
	RequestReschedule(ctx context.Context, req CreateRescheduleRequest) (RescheduleResponse, error)
	DecideReschedule(ctx context.Context, req DecideRescheduleRequest) (RescheduleResponse, error)
	ListReschedules(ctx context.Context, leaveRequestID string, viewer Viewer) ([]RescheduleResponse, error)
	ExpireStaleReschedules(ctx context.Context) (int, error)
	// Realtime
	Subscribe(ctx context.Context, userID string) (<-chan StreamEvent, func())
}

// Viewer is the authenticated caller reading a leave request.
type Viewer struct {
	UserID     string
	IsApprover bool
}

const (
	EventLeaveProgress   = "leave_progress"
	EventLeaveReschedule = "leave_reschedule"
)

// StreamEvent is one server-sent event; Data is a ProgressEvent or a
// RescheduleResponse depending on Event.
type StreamEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ProgressEvent is pushed to the requester whenever a stored snapshot changes.
type ProgressEvent struct {
	LeaveRequestID string   `json:"leave_request_id"`
	Progress       Progress `json:"progress"`
}
