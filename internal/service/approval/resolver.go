package approval

import (
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

const notAvailable = "N/A"

// snapshot indexes approval records by role in a fixed-size table.
type snapshot struct {
	records [len(approval.Roles)]*approval.ApprovalRecord
	count   int
}

func roleSlot(role approval.Role) int {
	switch role {
	case approval.RoleHR:
		return 0
	case approval.RoleDeptHead:
		return 1
	case approval.RoleAdmin:
		return 2
	}
	return -1
}

func newSnapshot(records []approval.ApprovalRecord) (snapshot, error) {
	var s snapshot
	for i := range records {
		rec := records[i]
		slot := roleSlot(rec.Role)
		if slot < 0 {
			return snapshot{}, &approval.DataIntegrityError{Field: "role", Value: string(rec.Role), Reason: "unknown approval role"}
		}
		if s.records[slot] != nil {
			return snapshot{}, &approval.DataIntegrityError{Field: "role", Value: string(rec.Role), Reason: "duplicate approval record"}
		}
		if _, ok := approval.ParseApprovalStatus(string(rec.Status)); !ok {
			return snapshot{}, &approval.DataIntegrityError{Field: "status", Value: string(rec.Status), Reason: "unknown approval status"}
		}
		s.records[slot] = &rec
		s.count++
	}
	return s, nil
}

// lookup is total: a role without a record is pending.
func (s snapshot) lookup(role approval.Role) approval.ApprovalStatus {
	if rec := s.record(role); rec != nil {
		return rec.Status
	}
	return approval.StatusPending
}

func (s snapshot) record(role approval.Role) *approval.ApprovalRecord {
	slot := roleSlot(role)
	if slot < 0 {
		return nil
	}
	return s.records[slot]
}

func (s snapshot) has(role approval.Role) bool {
	return s.record(role) != nil
}

// Resolve classifies an approval snapshot into the stepper view. It has no
// side effects and returns identical output for identical input.
func Resolve(state approval.ApprovalState) (approval.Progress, error) {
	if state.IsRecalled {
		return recalledProgress(state.RecallData), nil
	}

	snap, err := newSnapshot(state.Approvals)
	if err != nil {
		return approval.Progress{}, err
	}

	seq := approval.SequenceFor(state.IsDeptHeadRequest)
	current := currentStepIndex(seq, snap, state.IsDeptHeadRequest)
	currentStep := seq[current]

	progress := approval.Progress{
		Steps:            buildSteps(seq, snap, current),
		CurrentStepIndex: current,
	}

	role, hasRole := currentStep.Role()
	status := approval.StatusPending
	if hasRole {
		status = snap.lookup(role)
	}

	switch {
	case !hasRole:
		progress.State = approval.StateSubmitted
	case status == approval.StatusApproved && current == seq.Last():
		progress.State = approval.StateFullyApproved
	case status == approval.StatusRejected:
		progress.State = approval.StateRejected
		progress.RejectedStage = &role
	default:
		progress.State = awaitingState(role)
	}

	if snap.count == 0 {
		progress.StatusMessage = StatusMessage(state.IsDeptHeadRequest, approval.StepSubmitted, approval.StatusPending)
	} else {
		progress.StatusMessage = StatusMessage(state.IsDeptHeadRequest, currentStep, status)
	}

	return progress, nil
}

// currentStepIndex reads the most advanced stage first and falls back
// toward submitted, so missing intermediate records never move it back.
func currentStepIndex(seq approval.Sequence, snap snapshot, isDeptHeadRequest bool) int {
	if snap.lookup(approval.RoleAdmin) == approval.StatusApproved {
		return seq.Last()
	}

	if isDeptHeadRequest {
		switch {
		case snap.lookup(approval.RoleHR) == approval.StatusApproved:
			return seq.IndexOf(approval.StepAdmin)
		case snap.has(approval.RoleHR):
			return seq.IndexOf(approval.StepHR)
		default:
			return seq.IndexOf(approval.StepSubmitted)
		}
	}

	switch {
	case snap.lookup(approval.RoleDeptHead) == approval.StatusApproved:
		return seq.IndexOf(approval.StepAdmin)
	case snap.lookup(approval.RoleHR) == approval.StatusApproved:
		return seq.IndexOf(approval.StepDeptHead)
	default:
		return seq.IndexOf(approval.StepHR)
	}
}

func buildSteps(seq approval.Sequence, snap snapshot, current int) []approval.StepView {
	steps := make([]approval.StepView, 0, len(seq))
	for i, id := range seq {
		step := approval.StepView{
			ID:     id,
			Label:  StepLabel(id),
			Status: classify(i, current),
		}
		if role, ok := id.Role(); ok {
			badge := snap.lookup(role)
			step.Badge = &badge
			step.Color, step.Icon = BadgeStyle(badge)
			if rec := snap.record(role); rec != nil {
				step.ApprovedAt = rec.ApprovedAt
				step.Remarks = rec.Remarks
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func classify(i, current int) approval.StepStatus {
	switch {
	case i < current:
		return approval.StepCompleted
	case i == current:
		return approval.StepCurrent
	default:
		return approval.StepPending
	}
}

func awaitingState(role approval.Role) approval.ProgressState {
	switch role {
	case approval.RoleHR:
		return approval.StateAwaitingHR
	case approval.RoleDeptHead:
		return approval.StateAwaitingDeptHead
	case approval.RoleAdmin:
		return approval.StateAwaitingAdmin
	}
	return approval.StateSubmitted
}

func recalledProgress(data *approval.RecallData) approval.Progress {
	view := &approval.RecallView{
		OriginalDateFrom: notAvailable,
		OriginalDateTo:   notAvailable,
		NewDateFrom:      notAvailable,
		NewDateTo:        notAvailable,
		Reason:           notAvailable,
		RecalledAt:       notAvailable,
	}
	if data != nil {
		view.OriginalDateFrom = formatDate(data.OriginalDateFrom)
		view.OriginalDateTo = formatDate(data.OriginalDateTo)
		view.NewDateFrom = formatDate(data.NewDateFrom)
		view.NewDateTo = formatDate(data.NewDateTo)
		if data.Reason != nil && !validator.IsEmpty(*data.Reason) {
			view.Reason = *data.Reason
		}
		if data.RecalledAt != nil {
			view.RecalledAt = data.RecalledAt.UTC().Format(time.RFC3339)
		}
	}

	return approval.Progress{
		Steps:            []approval.StepView{},
		CurrentStepIndex: -1,
		StatusMessage:    "Leave request has been recalled",
		State:            approval.StateRecalled,
		Recall:           view,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return t.Format(validator.DateLayout)
}
