package approval

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

type ApprovalInput struct {
	Role       string  `json:"role"`
	Status     string  `json:"status"`
	ApprovedAt *string `json:"approved_at"`
	Remarks    *string `json:"remarks"`
}

type RecallInput struct {
	OriginalDateFrom *string `json:"original_date_from"`
	OriginalDateTo   *string `json:"original_date_to"`
	NewDateFrom      *string `json:"new_date_from"`
	NewDateTo        *string `json:"new_date_to"`
	Reason           *string `json:"reason"`
	RecalledAt       *string `json:"recalled_at"`
}

// ResolveProgressRequest is the snapshot contract received from the backend.
// The two flags are pointers so an omitted flag is rejected instead of
// silently read as false.
type ResolveProgressRequest struct {
	Approvals         []ApprovalInput `json:"approvals"`
	IsDeptHeadRequest *bool           `json:"is_dept_head_request"`
	IsRecalled        *bool           `json:"is_recalled"`
	RecallData        *RecallInput    `json:"recall_data"`
}

func (r *ResolveProgressRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.IsDeptHeadRequest == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "is_dept_head_request",
			Message: "is_dept_head_request is required",
		})
	}
	if r.IsRecalled == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "is_recalled",
			Message: "is_recalled is required",
		})
	}

	for i, a := range r.Approvals {
		field := fmt.Sprintf("approvals[%d]", i)
		if validator.IsEmpty(a.Role) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".role",
				Message: "role is required",
			})
		}
		if _, ok := ParseApprovalStatus(a.Status); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".status",
				Message: "status must be one of pending, approved, rejected",
			})
		}
		if a.ApprovedAt != nil {
			if _, ok := validator.IsValidDateTime(*a.ApprovedAt); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   field + ".approved_at",
					Message: "approved_at must be an ISO8601 timestamp",
				})
			}
		}
	}

	if r.RecallData != nil {
		dates := []struct {
			field string
			value *string
		}{
			{"recall_data.original_date_from", r.RecallData.OriginalDateFrom},
			{"recall_data.original_date_to", r.RecallData.OriginalDateTo},
			{"recall_data.new_date_from", r.RecallData.NewDateFrom},
			{"recall_data.new_date_to", r.RecallData.NewDateTo},
		}
		for _, d := range dates {
			if d.value == nil {
				continue
			}
			if _, ok := validator.IsValidDate(*d.value); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   d.field,
					Message: d.field + " must be in YYYY-MM-DD format",
				})
			}
		}
		if r.RecallData.RecalledAt != nil {
			if _, ok := validator.IsValidDateTime(*r.RecallData.RecalledAt); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   "recall_data.recalled_at",
					Message: "recall_data.recalled_at must be an ISO8601 timestamp",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToState converts a validated request into a snapshot. Unknown roles and
// repeated roles are data integrity failures rather than validation errors.
func (r *ResolveProgressRequest) ToState() (ApprovalState, error) {
	state := ApprovalState{
		IsDeptHeadRequest: r.IsDeptHeadRequest != nil && *r.IsDeptHeadRequest,
		IsRecalled:        r.IsRecalled != nil && *r.IsRecalled,
	}

	seen := make(map[Role]bool, len(Roles))
	for _, a := range r.Approvals {
		role, err := ParseRole(a.Role)
		if err != nil {
			return ApprovalState{}, err
		}
		if seen[role] {
			return ApprovalState{}, &DataIntegrityError{Field: "role", Value: a.Role, Reason: "duplicate approval record"}
		}
		seen[role] = true

		status, _ := ParseApprovalStatus(a.Status)
		record := ApprovalRecord{Role: role, Status: status, Remarks: a.Remarks}
		if a.ApprovedAt != nil {
			if t, ok := validator.IsValidDateTime(*a.ApprovedAt); ok {
				record.ApprovedAt = &t
			}
		}
		state.Approvals = append(state.Approvals, record)
	}

	if r.RecallData != nil {
		state.RecallData = &RecallData{
			OriginalDateFrom: parseDatePtr(r.RecallData.OriginalDateFrom),
			OriginalDateTo:   parseDatePtr(r.RecallData.OriginalDateTo),
			NewDateFrom:      parseDatePtr(r.RecallData.NewDateFrom),
			NewDateTo:        parseDatePtr(r.RecallData.NewDateTo),
			Reason:           r.RecallData.Reason,
		}
		if r.RecallData.RecalledAt != nil {
			if t, ok := validator.IsValidDateTime(*r.RecallData.RecalledAt); ok {
				state.RecallData.RecalledAt = &t
			}
		}
	}

	return state, nil
}

func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := validator.IsValidDate(*s)
	if !ok {
		return nil
	}
	return &t
}

type DecideApprovalRequest struct {
	LeaveRequestID string  `json:"-"`
	Role           string  `json:"-"`
	Decision       string  `json:"decision"`
	Remarks        *string `json:"remarks,omitempty"`

	// Taken from the access token, never from the body.
	ApproverID   string `json:"-"`
	ApproverRole string `json:"-"`
}

func (r *DecideApprovalRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.LeaveRequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_request_id",
			Message: "leave_request_id is required",
		})
	}
	if validator.IsEmpty(r.Role) {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role is required",
		})
	}
	if d := Decision(r.Decision); d != DecisionApprove && d != DecisionReject {
		errs = append(errs, validator.ValidationError{
			Field:   "decision",
			Message: "decision must be either approve or reject",
		})
	}
	if Decision(r.Decision) == DecisionReject && (r.Remarks == nil || validator.IsEmpty(*r.Remarks)) {
		errs = append(errs, validator.ValidationError{
			Field:   "remarks",
			Message: "remarks are required when rejecting",
		})
	}
	if r.Remarks != nil && len(*r.Remarks) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "remarks",
			Message: "remarks must not exceed 1000 characters",
		})
	}
	if validator.IsEmpty(r.ApproverID) {
		errs = append(errs, validator.ValidationError{
			Field:   "approver_id",
			Message: "approver_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RecallLeaveRequest struct {
	LeaveRequestID string `json:"-"`
	NewDateFrom    string `json:"new_date_from"`
	NewDateTo      string `json:"new_date_to"`
	Reason         string `json:"reason"`
	RecalledBy     string `json:"-"`
}

func (r *RecallLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.LeaveRequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_request_id",
			Message: "leave_request_id is required",
		})
	}
	errs = append(errs, validateDateRange("new_date_from", r.NewDateFrom, "new_date_to", r.NewDateTo)...)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if validator.IsEmpty(r.RecalledBy) {
		errs = append(errs, validator.ValidationError{
			Field:   "recalled_by",
			Message: "recalled_by is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CreateRescheduleRequest struct {
	LeaveRequestID string `json:"-"`
	NewDateFrom    string `json:"new_date_from"`
	NewDateTo      string `json:"new_date_to"`
	Reason         string `json:"reason"`
	RequestedBy    string `json:"-"`
}

func (r *CreateRescheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.LeaveRequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_request_id",
			Message: "leave_request_id is required",
		})
	}
	errs = append(errs, validateDateRange("new_date_from", r.NewDateFrom, "new_date_to", r.NewDateTo)...)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DecideRescheduleRequest struct {
	RescheduleID string  `json:"-"`
	Decision     string  `json:"decision"`
	Remarks      *string `json:"remarks,omitempty"`
	DecidedBy    string  `json:"-"`
}

func (r *DecideRescheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RescheduleID) {
		errs = append(errs, validator.ValidationError{
			Field:   "reschedule_id",
			Message: "reschedule_id is required",
		})
	}
	if d := Decision(r.Decision); d != DecisionApprove && d != DecisionReject {
		errs = append(errs, validator.ValidationError{
			Field:   "decision",
			Message: "decision must be either approve or reject",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateDateRange(fromField, from, toField, to string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	fromDate, fromOK := validator.IsValidDate(from)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   fromField,
			Message: fromField + " must be in YYYY-MM-DD format",
		})
	}
	toDate, toOK := validator.IsValidDate(to)
	if !toOK {
		errs = append(errs, validator.ValidationError{
			Field:   toField,
			Message: toField + " must be in YYYY-MM-DD format",
		})
	}
	if fromOK && toOK && toDate.Before(fromDate) {
		errs = append(errs, validator.ValidationError{
			Field:   toField,
			Message: toField + " must not be before " + fromField,
		})
	}

	return errs
}

type RescheduleResponse struct {
	ID               string           `json:"id"`
	LeaveRequestID   string           `json:"leave_request_id"`
	RequestedBy      string           `json:"requested_by"`
	OriginalDateFrom string           `json:"original_date_from"`
	OriginalDateTo   string           `json:"original_date_to"`
	NewDateFrom      string           `json:"new_date_from"`
	NewDateTo        string           `json:"new_date_to"`
	Reason           string           `json:"reason"`
	Status           RescheduleStatus `json:"status"`
	DecidedBy        *string          `json:"decided_by,omitempty"`
	DecidedAt        *time.Time       `json:"decided_at,omitempty"`
	Remarks          *string          `json:"remarks,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func NewRescheduleResponse(r RescheduleRequest) RescheduleResponse {
	return RescheduleResponse{
		ID:               r.ID,
		LeaveRequestID:   r.LeaveRequestID,
		RequestedBy:      r.RequestedBy,
		OriginalDateFrom: r.OriginalDateFrom.Format(validator.DateLayout),
		OriginalDateTo:   r.OriginalDateTo.Format(validator.DateLayout),
		NewDateFrom:      r.NewDateFrom.Format(validator.DateLayout),
		NewDateTo:        r.NewDateTo.Format(validator.DateLayout),
		Reason:           r.Reason,
		Status:           r.Status,
		DecidedBy:        r.DecidedBy,
		DecidedAt:        r.DecidedAt,
		Remarks:          r.Remarks,
		CreatedAt:        r.CreatedAt,
	}
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
