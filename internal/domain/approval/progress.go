package approval

import "time"

// StepID identifies one step of the progress stepper.
type StepID string

const (
	StepSubmitted StepID = "submitted"
	StepHR        StepID = StepID(RoleHR)
	StepDeptHead  StepID = StepID(RoleDeptHead)
	StepAdmin     StepID = StepID(RoleAdmin)
)

// Role returns the approving role behind a step; submitted has none.
func (s StepID) Role() (Role, bool) {
	switch s {
	case StepHR:
		return RoleHR, true
	case StepDeptHead:
		return RoleDeptHead, true
	case StepAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Sequence is an ordered, read-only list of steps.
type Sequence []StepID

var (
	StandardSequence          = Sequence{StepSubmitted, StepHR, StepDeptHead, StepAdmin}
	DeptHeadRequesterSequence = Sequence{StepSubmitted, StepHR, StepAdmin}
)

// SequenceFor selects the static sequence for a requester type.
func SequenceFor(isDeptHeadRequest bool) Sequence {
	if isDeptHeadRequest {
		return DeptHeadRequesterSequence
	}
	return StandardSequence
}

// IndexOf returns -1 when the step is not part of the sequence.
func (s Sequence) IndexOf(id StepID) int {
	for i, step := range s {
		if step == id {
			return i
		}
	}
	return -1
}

func (s Sequence) Contains(id StepID) bool {
	return s.IndexOf(id) >= 0
}

func (s Sequence) Last() int {
	return len(s) - 1
}

// Next returns the step after id, if any.
func (s Sequence) Next(id StepID) (StepID, bool) {
	i := s.IndexOf(id)
	if i < 0 || i >= s.Last() {
		return "", false
	}
	return s[i+1], true
}

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepPending   StepStatus = "pending"
)

// ProgressState is the state-machine position of a snapshot.
type ProgressState string

const (
	StateSubmitted        ProgressState = "submitted"
	StateAwaitingHR       ProgressState = "awaiting_hr"
	StateAwaitingDeptHead ProgressState = "awaiting_dept_head"
	StateAwaitingAdmin    ProgressState = "awaiting_admin"
	StateFullyApproved    ProgressState = "fully_approved"
	StateRejected         ProgressState = "rejected"
	StateRecalled         ProgressState = "recalled"
)

// IsTerminal reports whether no further approval action can change the state.
func (s ProgressState) IsTerminal() bool {
	switch s {
	case StateFullyApproved, StateRejected, StateRecalled:
		return true
	}
	return false
}

type StepView struct {
	ID         StepID          `json:"id"`
	Label      string          `json:"label"`
	Status     StepStatus      `json:"status"`
	Badge      *ApprovalStatus `json:"badge"`
	Color      string          `json:"color,omitempty"`
	Icon       string          `json:"icon,omitempty"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	Remarks    *string         `json:"remarks,omitempty"`
}

// RecallView is the read-only recall panel; absent values render as "N/A".
type RecallView struct {
	OriginalDateFrom string `json:"original_date_from"`
	OriginalDateTo   string `json:"original_date_to"`
	NewDateFrom      string `json:"new_date_from"`
	NewDateTo        string `json:"new_date_to"`
	Reason           string `json:"reason"`
	RecalledAt       string `json:"recalled_at"`
}

type Progress struct {
	Steps            []StepView    `json:"steps"`
	CurrentStepIndex int           `json:"currentStepIndex"`
	StatusMessage    string        `json:"statusMessage"`
	State            ProgressState `json:"state"`
	RejectedStage    *Role         `json:"rejected_stage,omitempty"`
	Recall           *RecallView   `json:"recall,omitempty"`
}
