package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

const expiredRemark = "Expired: new start date passed before a decision was made"

type ApprovalServiceImpl struct {
	tx             database.Transactor
	leaveRepo      approval.LeaveRequestRepository
	approvalRepo   approval.ApprovalRecordRepository
	recallRepo     approval.RecallRepository
	rescheduleRepo approval.RescheduleRepository
	hub            *sse.Hub
	now            func() time.Time
}

var _ approval.ApprovalService = (*ApprovalServiceImpl)(nil)

func NewApprovalService(
	tx database.Transactor,
	leaveRepo approval.LeaveRequestRepository,
	approvalRepo approval.ApprovalRecordRepository,
	recallRepo approval.RecallRepository,
	rescheduleRepo approval.RescheduleRepository,
	hub *sse.Hub,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		tx:             tx,
		leaveRepo:      leaveRepo,
		approvalRepo:   approvalRepo,
		recallRepo:     recallRepo,
		rescheduleRepo: rescheduleRepo,
		hub:            hub,
		now:            time.Now,
	}
}

// ResolveSnapshot implements approval.ApprovalService.
func (s *ApprovalServiceImpl) ResolveSnapshot(ctx context.Context, req approval.ResolveProgressRequest) (approval.Progress, error) {
	if err := req.Validate(); err != nil {
		return approval.Progress{}, err
	}

	state, err := req.ToState()
	if err != nil {
		return approval.Progress{}, err
	}

	return Resolve(state)
}

// GetProgress implements approval.ApprovalService.
func (s *ApprovalServiceImpl) GetProgress(ctx context.Context, leaveRequestID string, viewer approval.Viewer) (approval.Progress, error) {
	lr, err := s.leaveRepo.GetByID(ctx, leaveRequestID)
	if err != nil {
		return approval.Progress{}, err
	}

	if !viewer.IsApprover && lr.RequesterUserID != viewer.UserID {
		return approval.Progress{}, approval.ErrUnauthorizedAccess
	}

	return s.progressOf(ctx, lr)
}

// StartApproval implements approval.ApprovalService.
func (s *ApprovalServiceImpl) StartApproval(ctx context.Context, leaveRequestID string) (approval.Progress, error) {
	var lr approval.LeaveRequest

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		lr, err = s.leaveRepo.GetByID(txCtx, leaveRequestID)
		if err != nil {
			return err
		}
		if lr.Status == approval.LeaveStatusRecalled {
			return approval.ErrLeaveRecalled
		}

		records, err := s.approvalRepo.GetByLeaveRequestID(txCtx, lr.ID)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			return approval.ErrApprovalAlreadyStarted
		}

		_, err = s.approvalRepo.Create(txCtx, approval.ApprovalRecord{
			LeaveRequestID: lr.ID,
			Role:           approval.RoleHR,
			Status:         approval.StatusPending,
		})
		return err
	})
	if err != nil {
		return approval.Progress{}, err
	}

	slog.Info("Leave approval started", "leave_request_id", lr.ID, "dept_head_request", lr.IsDeptHeadRequest)
	return s.publishProgress(ctx, lr)
}

// Decide implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Decide(ctx context.Context, req approval.DecideApprovalRequest) (approval.Progress, error) {
	if err := req.Validate(); err != nil {
		return approval.Progress{}, err
	}

	role, err := approval.ParseRole(req.Role)
	if err != nil {
		return approval.Progress{}, err
	}
	if approval.Role(req.ApproverRole) != role {
		return approval.Progress{}, approval.ErrRoleMismatch
	}
	decision := approval.Decision(req.Decision)

	var lr approval.LeaveRequest
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		lr, err = s.leaveRepo.GetByID(txCtx, req.LeaveRequestID)
		if err != nil {
			return err
		}
		if lr.Status == approval.LeaveStatusRecalled {
			return approval.ErrLeaveRecalled
		}

		seq := approval.SequenceFor(lr.IsDeptHeadRequest)
		step := approval.StepID(role)
		if !seq.Contains(step) {
			return approval.ErrStageBypassed
		}

		records, err := s.approvalRepo.GetByLeaveRequestID(txCtx, lr.ID)
		if err != nil {
			return err
		}
		snap, err := newSnapshot(records)
		if err != nil {
			return err
		}
		if snap.count == 0 {
			return approval.ErrApprovalNotStarted
		}

		for _, r := range approval.Roles {
			if seq.Contains(approval.StepID(r)) && snap.lookup(r) == approval.StatusRejected {
				return approval.ErrApprovalRejected
			}
		}

		for _, earlier := range seq[1:seq.IndexOf(step)] {
			earlierRole, _ := earlier.Role()
			if snap.lookup(earlierRole) != approval.StatusApproved {
				return approval.ErrStageOutOfOrder
			}
		}

		now := s.now()
		decided := approval.ApprovalRecord{
			LeaveRequestID: lr.ID,
			Role:           role,
			Status:         decision.Status(),
			ApproverID:     &req.ApproverID,
			ApprovedAt:     &now,
			Remarks:        req.Remarks,
		}

		if rec := snap.record(role); rec != nil {
			if rec.Status != approval.StatusPending {
				return approval.ErrApprovalAlreadyDecided
			}
			if err := s.approvalRepo.UpdateDecision(txCtx, decided); err != nil {
				return err
			}
		} else {
			// Stage was never opened; record the decision directly.
			if _, err := s.approvalRepo.Create(txCtx, decided); err != nil {
				return err
			}
		}

		if decision == approval.DecisionReject {
			return s.leaveRepo.UpdateStatus(txCtx, lr.ID, approval.LeaveStatusRejected)
		}

		next, ok := seq.Next(step)
		if !ok {
			return s.leaveRepo.UpdateStatus(txCtx, lr.ID, approval.LeaveStatusApproved)
		}
		nextRole, _ := next.Role()
		if snap.has(nextRole) {
			return nil
		}
		_, err = s.approvalRepo.Create(txCtx, approval.ApprovalRecord{
			LeaveRequestID: lr.ID,
			Role:           nextRole,
			Status:         approval.StatusPending,
		})
		return err
	})
	if err != nil {
		return approval.Progress{}, err
	}

	slog.Info("Leave approval decided",
		"leave_request_id", lr.ID,
		"role", role,
		"decision", decision,
		"approver_id", req.ApproverID,
	)
	return s.publishProgress(ctx, lr)
}

// Recall implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Recall(ctx context.Context, req approval.RecallLeaveRequest) (approval.Progress, error) {
	if err := req.Validate(); err != nil {
		return approval.Progress{}, err
	}
	newFrom, _ := validator.IsValidDate(req.NewDateFrom)
	newTo, _ := validator.IsValidDate(req.NewDateTo)

	var lr approval.LeaveRequest
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		lr, err = s.leaveRepo.GetByID(txCtx, req.LeaveRequestID)
		if err != nil {
			return err
		}
		if lr.Status == approval.LeaveStatusRecalled {
			return approval.ErrAlreadyRecalled
		}

		existing, err := s.recallRepo.GetByLeaveRequestID(txCtx, lr.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return approval.ErrAlreadyRecalled
		}

		progress, err := s.progressOf(txCtx, lr)
		if err != nil {
			return err
		}
		if progress.State != approval.StateFullyApproved {
			return approval.ErrNotFullyApproved
		}

		originalFrom, originalTo := lr.StartDate, lr.EndDate
		_, err = s.recallRepo.Create(txCtx, approval.RecallData{
			LeaveRequestID:   lr.ID,
			OriginalDateFrom: &originalFrom,
			OriginalDateTo:   &originalTo,
			NewDateFrom:      &newFrom,
			NewDateTo:        &newTo,
			Reason:           &req.Reason,
			RecalledBy:       &req.RecalledBy,
		})
		if err != nil {
			return err
		}

		if err := s.leaveRepo.UpdateDates(txCtx, lr.ID, newFrom, newTo); err != nil {
			return err
		}
		return s.leaveRepo.UpdateStatus(txCtx, lr.ID, approval.LeaveStatusRecalled)
	})
	if err != nil {
		return approval.Progress{}, err
	}

	lr.Status = approval.LeaveStatusRecalled
	slog.Info("Leave request recalled", "leave_request_id", lr.ID, "recalled_by", req.RecalledBy)
	return s.publishProgress(ctx, lr)
}

// RequestReschedule implements approval.ApprovalService.
func (s *ApprovalServiceImpl) RequestReschedule(ctx context.Context, req approval.CreateRescheduleRequest) (approval.RescheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return approval.RescheduleResponse{}, err
	}
	newFrom, _ := validator.IsValidDate(req.NewDateFrom)
	newTo, _ := validator.IsValidDate(req.NewDateTo)

	var created approval.RescheduleRequest
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		lr, err := s.leaveRepo.GetByID(txCtx, req.LeaveRequestID)
		if err != nil {
			return err
		}
		if lr.RequesterUserID != req.RequestedBy {
			return approval.ErrUnauthorizedAccess
		}
		if lr.Status == approval.LeaveStatusRecalled {
			return approval.ErrLeaveRecalled
		}
		if lr.Status != approval.LeaveStatusApproved {
			return approval.ErrNotFullyApproved
		}

		pending, err := s.rescheduleRepo.HasPending(txCtx, lr.ID)
		if err != nil {
			return err
		}
		if pending {
			return approval.ErrReschedulePending
		}

		created, err = s.rescheduleRepo.Create(txCtx, approval.RescheduleRequest{
			LeaveRequestID:   lr.ID,
			RequestedBy:      req.RequestedBy,
			OriginalDateFrom: lr.StartDate,
			OriginalDateTo:   lr.EndDate,
			NewDateFrom:      newFrom,
			NewDateTo:        newTo,
			Reason:           req.Reason,
			Status:           approval.ReschedulePending,
		})
		return err
	})
	if err != nil {
		return approval.RescheduleResponse{}, err
	}

	slog.Info("Leave reschedule requested", "leave_request_id", created.LeaveRequestID, "reschedule_id", created.ID)
	return approval.NewRescheduleResponse(created), nil
}

// DecideReschedule implements approval.ApprovalService.
func (s *ApprovalServiceImpl) DecideReschedule(ctx context.Context, req approval.DecideRescheduleRequest) (approval.RescheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return approval.RescheduleResponse{}, err
	}

	var rs approval.RescheduleRequest
	var requester string
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		rs, err = s.rescheduleRepo.GetByID(txCtx, req.RescheduleID)
		if err != nil {
			return err
		}
		if rs.Status != approval.ReschedulePending {
			return approval.ErrRescheduleProcessed
		}

		lr, err := s.leaveRepo.GetByID(txCtx, rs.LeaveRequestID)
		if err != nil {
			return err
		}
		if lr.Status == approval.LeaveStatusRecalled {
			return approval.ErrLeaveRecalled
		}
		requester = lr.RequesterUserID

		now := s.now()
		rs.Status = approval.RescheduleRejected
		if approval.Decision(req.Decision) == approval.DecisionApprove {
			rs.Status = approval.RescheduleApproved
		}
		rs.DecidedBy = &req.DecidedBy
		rs.DecidedAt = &now
		rs.Remarks = req.Remarks

		if err := s.rescheduleRepo.UpdateDecision(txCtx, rs); err != nil {
			return err
		}
		if rs.Status == approval.RescheduleApproved {
			return s.leaveRepo.UpdateDates(txCtx, lr.ID, rs.NewDateFrom, rs.NewDateTo)
		}
		return nil
	})
	if err != nil {
		return approval.RescheduleResponse{}, err
	}

	resp := approval.NewRescheduleResponse(rs)
	slog.Info("Leave reschedule decided", "reschedule_id", rs.ID, "status", rs.Status)
	s.publish(requester, approval.EventLeaveReschedule, resp)
	return resp, nil
}

// ListReschedules implements approval.ApprovalService.
func (s *ApprovalServiceImpl) ListReschedules(ctx context.Context, leaveRequestID string, viewer approval.Viewer) ([]approval.RescheduleResponse, error) {
	lr, err := s.leaveRepo.GetByID(ctx, leaveRequestID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsApprover && lr.RequesterUserID != viewer.UserID {
		return nil, approval.ErrUnauthorizedAccess
	}

	items, err := s.rescheduleRepo.GetByLeaveRequestID(ctx, lr.ID)
	if err != nil {
		return nil, err
	}

	result := make([]approval.RescheduleResponse, 0, len(items))
	for _, item := range items {
		result = append(result, approval.NewRescheduleResponse(item))
	}
	return result, nil
}

// ExpireStaleReschedules implements approval.ApprovalService. Pending
// reschedules whose new start date is already in the past are closed as
// expired so the requester can file a new one.
func (s *ApprovalServiceImpl) ExpireStaleReschedules(ctx context.Context) (int, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stale, err := s.rescheduleRepo.ListPendingStartingBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, rs := range stale {
		rs.Status = approval.RescheduleExpired
		rs.DecidedAt = &now
		remark := expiredRemark
		rs.Remarks = &remark

		if err := s.rescheduleRepo.UpdateDecision(ctx, rs); err != nil {
			if errors.Is(err, approval.ErrRescheduleProcessed) {
				continue
			}
			return expired, err
		}
		expired++
		s.publish(rs.RequestedBy, approval.EventLeaveReschedule, approval.NewRescheduleResponse(rs))
	}

	if expired > 0 {
		slog.Info("Stale reschedules expired", "count", expired)
	}
	return expired, nil
}

// Subscribe implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Subscribe(ctx context.Context, userID string) (<-chan approval.StreamEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)

	out := make(chan approval.StreamEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- approval.StreamEvent{Event: event.Name, Data: event.Data}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

func (s *ApprovalServiceImpl) progressOf(ctx context.Context, lr approval.LeaveRequest) (approval.Progress, error) {
	state, err := s.loadState(ctx, lr)
	if err != nil {
		return approval.Progress{}, err
	}
	return Resolve(state)
}

func (s *ApprovalServiceImpl) loadState(ctx context.Context, lr approval.LeaveRequest) (approval.ApprovalState, error) {
	records, err := s.approvalRepo.GetByLeaveRequestID(ctx, lr.ID)
	if err != nil {
		return approval.ApprovalState{}, fmt.Errorf("failed to load approvals: %w", err)
	}

	recall, err := s.recallRepo.GetByLeaveRequestID(ctx, lr.ID)
	if err != nil {
		return approval.ApprovalState{}, fmt.Errorf("failed to load recall: %w", err)
	}

	return approval.ApprovalState{
		Approvals:         records,
		IsDeptHeadRequest: lr.IsDeptHeadRequest,
		IsRecalled:        lr.Status == approval.LeaveStatusRecalled || recall != nil,
		RecallData:        recall,
	}, nil
}

// publishProgress resolves the committed snapshot and pushes it to the requester.
func (s *ApprovalServiceImpl) publishProgress(ctx context.Context, lr approval.LeaveRequest) (approval.Progress, error) {
	progress, err := s.progressOf(ctx, lr)
	if err != nil {
		return approval.Progress{}, err
	}

	s.publish(lr.RequesterUserID, approval.EventLeaveProgress, approval.ProgressEvent{
		LeaveRequestID: lr.ID,
		Progress:       progress,
	})
	return progress, nil
}

func (s *ApprovalServiceImpl) publish(userID, name string, data interface{}) {
	if s.hub == nil || userID == "" {
		return
	}
	delivered := s.hub.Publish(sse.Event{UserID: userID, Name: name, Data: data})
	slog.Debug("Stream event published", "event", name, "user_id", userID, "delivered", delivered)
}
