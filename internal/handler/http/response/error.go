package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/auth"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var integrityErr *approval.DataIntegrityError
	if errors.As(err, &integrityErr) {
		DataIntegrityError(w, integrityErr.Reason, map[string]string{integrityErr.Field: integrityErr.Value})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrMissingClaims):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")

	// User domain errors
	case errors.Is(err, user.ErrApproverAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Approval domain errors
	case errors.Is(err, approval.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, approval.ErrRescheduleNotFound):
		NotFound(w, "Reschedule request not found")
	case errors.Is(err, approval.ErrUnauthorizedAccess),
		errors.Is(err, approval.ErrRoleMismatch):
		Forbidden(w, err.Error())
	case errors.Is(err, approval.ErrApprovalAlreadyStarted),
		errors.Is(err, approval.ErrApprovalNotStarted),
		errors.Is(err, approval.ErrApprovalAlreadyDecided),
		errors.Is(err, approval.ErrApprovalRejected),
		errors.Is(err, approval.ErrStageBypassed),
		errors.Is(err, approval.ErrStageOutOfOrder),
		errors.Is(err, approval.ErrLeaveRecalled),
		errors.Is(err, approval.ErrAlreadyRecalled),
		errors.Is(err, approval.ErrNotFullyApproved),
		errors.Is(err, approval.ErrReschedulePending),
		errors.Is(err, approval.ErrRescheduleProcessed):
		Conflict(w, err.Error())

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
