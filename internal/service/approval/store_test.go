package approval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
)

// memStore backs every approval repository in memory. WithinTx restores the
// previous contents when fn fails.
type memStore struct {
	mu          sync.Mutex
	seq         int
	leaves      map[string]approval.LeaveRequest
	approvals   map[string]approval.ApprovalRecord
	recalls     map[string]approval.RecallData
	reschedules map[string]approval.RescheduleRequest
	now         time.Time
}

func newMemStore() *memStore {
	return &memStore{
		leaves:      make(map[string]approval.LeaveRequest),
		approvals:   make(map[string]approval.ApprovalRecord),
		recalls:     make(map[string]approval.RecallData),
		reschedules: make(map[string]approval.RescheduleRequest),
		now:         time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	leaves := cloneMap(s.leaves)
	approvals := cloneMap(s.approvals)
	recalls := cloneMap(s.recalls)
	reschedules := cloneMap(s.reschedules)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.leaves, s.approvals, s.recalls, s.reschedules = leaves, approvals, recalls, reschedules
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) addLeave(lr approval.LeaveRequest) approval.LeaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lr.ID == "" {
		lr.ID = s.nextID("leave")
	}
	if lr.Status == "" {
		lr.Status = approval.LeaveStatusWaitingApproval
	}
	s.leaves[lr.ID] = lr
	return lr
}

type memLeaveRepo struct{ s *memStore }

func (r memLeaveRepo) GetByID(ctx context.Context, id string) (approval.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lr, ok := r.s.leaves[id]
	if !ok {
		return approval.LeaveRequest{}, approval.ErrLeaveRequestNotFound
	}
	return lr, nil
}

func (r memLeaveRepo) UpdateStatus(ctx context.Context, id string, status approval.LeaveRequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lr, ok := r.s.leaves[id]
	if !ok {
		return approval.ErrLeaveRequestNotFound
	}
	lr.Status = status
	r.s.leaves[id] = lr
	return nil
}

func (r memLeaveRepo) UpdateDates(ctx context.Context, id string, startDate, endDate time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lr, ok := r.s.leaves[id]
	if !ok {
		return approval.ErrLeaveRequestNotFound
	}
	lr.StartDate, lr.EndDate = startDate, endDate
	r.s.leaves[id] = lr
	return nil
}

type memApprovalRepo struct{ s *memStore }

func (r memApprovalRepo) Create(ctx context.Context, record approval.ApprovalRecord) (approval.ApprovalRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.approvals {
		if existing.LeaveRequestID == record.LeaveRequestID && existing.Role == record.Role {
			return approval.ApprovalRecord{}, &approval.DataIntegrityError{Field: "role", Value: string(record.Role), Reason: "duplicate approval record"}
		}
	}
	record.ID = r.s.nextID("approval")
	record.CreatedAt = r.s.now
	record.UpdatedAt = r.s.now
	r.s.approvals[record.ID] = record
	return record, nil
}

func (r memApprovalRepo) GetByLeaveRequestID(ctx context.Context, leaveRequestID string) ([]approval.ApprovalRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []approval.ApprovalRecord
	for _, rec := range r.s.approvals {
		if rec.LeaveRequestID == leaveRequestID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memApprovalRepo) UpdateDecision(ctx context.Context, record approval.ApprovalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.approvals {
		if existing.LeaveRequestID != record.LeaveRequestID || existing.Role != record.Role {
			continue
		}
		if existing.Status != approval.StatusPending {
			return approval.ErrApprovalAlreadyDecided
		}
		existing.Status = record.Status
		existing.ApproverID = record.ApproverID
		existing.ApprovedAt = record.ApprovedAt
		existing.Remarks = record.Remarks
		r.s.approvals[id] = existing
		return nil
	}
	return approval.ErrApprovalNotStarted
}

type memRecallRepo struct{ s *memStore }

func (r memRecallRepo) Create(ctx context.Context, recall approval.RecallData) (approval.RecallData, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.recalls[recall.LeaveRequestID]; ok {
		return approval.RecallData{}, approval.ErrAlreadyRecalled
	}
	recall.ID = r.s.nextID("recall")
	now := r.s.now
	recall.RecalledAt = &now
	r.s.recalls[recall.LeaveRequestID] = recall
	return recall, nil
}

func (r memRecallRepo) GetByLeaveRequestID(ctx context.Context, leaveRequestID string) (*approval.RecallData, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recall, ok := r.s.recalls[leaveRequestID]
	if !ok {
		return nil, nil
	}
	return &recall, nil
}

type memRescheduleRepo struct{ s *memStore }

func (r memRescheduleRepo) Create(ctx context.Context, reschedule approval.RescheduleRequest) (approval.RescheduleRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reschedule.ID = r.s.nextID("reschedule")
	reschedule.CreatedAt = r.s.now
	reschedule.UpdatedAt = r.s.now
	r.s.reschedules[reschedule.ID] = reschedule
	return reschedule, nil
}

func (r memRescheduleRepo) GetByID(ctx context.Context, id string) (approval.RescheduleRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rs, ok := r.s.reschedules[id]
	if !ok {
		return approval.RescheduleRequest{}, approval.ErrRescheduleNotFound
	}
	return rs, nil
}

func (r memRescheduleRepo) GetByLeaveRequestID(ctx context.Context, leaveRequestID string) ([]approval.RescheduleRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []approval.RescheduleRequest
	for _, rs := range r.s.reschedules {
		if rs.LeaveRequestID == leaveRequestID {
			out = append(out, rs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRescheduleRepo) HasPending(ctx context.Context, leaveRequestID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rs := range r.s.reschedules {
		if rs.LeaveRequestID == leaveRequestID && rs.Status == approval.ReschedulePending {
			return true, nil
		}
	}
	return false, nil
}

func (r memRescheduleRepo) UpdateDecision(ctx context.Context, reschedule approval.RescheduleRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.reschedules[reschedule.ID]
	if !ok || existing.Status != approval.ReschedulePending {
		return approval.ErrRescheduleProcessed
	}
	existing.Status = reschedule.Status
	existing.DecidedBy = reschedule.DecidedBy
	existing.DecidedAt = reschedule.DecidedAt
	existing.Remarks = reschedule.Remarks
	r.s.reschedules[reschedule.ID] = existing
	return nil
}

func (r memRescheduleRepo) ListPendingStartingBefore(ctx context.Context, date time.Time) ([]approval.RescheduleRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []approval.RescheduleRequest
	for _, rs := range r.s.reschedules {
		if rs.Status == approval.ReschedulePending && rs.NewDateFrom.Before(date) {
			out = append(out, rs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
