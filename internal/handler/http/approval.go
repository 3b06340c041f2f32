package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/response"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ApprovalHandler interface {
	Resolve(w http.ResponseWriter, r *http.Request)
	GetProgress(w http.ResponseWriter, r *http.Request)

	Start(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Recall(w http.ResponseWriter, r *http.Request)

	RequestReschedule(w http.ResponseWriter, r *http.Request)
	DecideReschedule(w http.ResponseWriter, r *http.Request)
	ListReschedules(w http.ResponseWriter, r *http.Request)
}

type ApprovalHandlerImpl struct {
	approvalService approval.ApprovalService
}

func NewApprovalHandler(approvalService approval.ApprovalService) ApprovalHandler {
	return &ApprovalHandlerImpl{
		approvalService: approvalService,
	}
}

// Resolve implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	var req approval.ResolveProgressRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Resolve decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	progress, err := h.approvalService.ResolveSnapshot(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, progress)
}

// GetProgress implements ApprovalHandler.
func (h *ApprovalHandlerImpl) GetProgress(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	leaveRequestID, ok := pathID(w, r, "Leave request ID")
	if !ok {
		return
	}

	progress, err := h.approvalService.GetProgress(r.Context(), leaveRequestID, viewerOf(caller))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, progress)
}

// Start implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Start(w http.ResponseWriter, r *http.Request) {
	leaveRequestID, ok := pathID(w, r, "Leave request ID")
	if !ok {
		return
	}

	progress, err := h.approvalService.StartApproval(r.Context(), leaveRequestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Approval started", progress)
}

// Decide implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	leaveRequestID, ok := pathID(w, r, "Leave request ID")
	if !ok {
		return
	}

	var req approval.DecideApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Decide decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.LeaveRequestID = leaveRequestID
	req.Role = chi.URLParam(r, "role")
	req.ApproverID = caller.UserID
	approverRole, _ := caller.Role.ApprovalRole()
	req.ApproverRole = string(approverRole)

	progress, err := h.approvalService.Decide(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, progress.StatusMessage, progress)
}

// Recall implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Recall(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	leaveRequestID, ok := pathID(w, r, "Leave request ID")
	if !ok {
		return
	}

	var req approval.RecallLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Recall decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.LeaveRequestID = leaveRequestID
	req.RecalledBy = caller.UserID

	progress, err := h.approvalService.Recall(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, progress.StatusMessage, progress)
}

// RequestReschedule implements ApprovalHandler.
func (h *ApprovalHandlerImpl) RequestReschedule(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	leaveRequestID, ok := pathID(w, r, "Leave request ID")
	if !ok {
		return
	}

	var req approval.CreateRescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RequestReschedule decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.LeaveRequestID = leaveRequestID
	req.RequestedBy = caller.UserID

	reschedule, err := h.approvalService.RequestReschedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Reschedule requested", reschedule)
}

// DecideReschedule implements ApprovalHandler.
func (h *ApprovalHandlerImpl) DecideReschedule(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	rescheduleID, ok := pathID(w, r, "Reschedule ID")
	if !ok {
		return
	}

	var req approval.DecideRescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("DecideReschedule decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.RescheduleID = rescheduleID
	req.DecidedBy = caller.UserID

	reschedule, err := h.approvalService.DecideReschedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, reschedule)
}

// ListReschedules implements ApprovalHandler.
func (h *ApprovalHandlerImpl) ListReschedules(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	leaveRequestID, ok := pathID(w, r, "Leave request ID")
	if !ok {
		return
	}

	items, err := h.approvalService.ListReschedules(r.Context(), leaveRequestID, viewerOf(caller))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, items)
}

// pathID reads the "id" URL param and writes a 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request, label string) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, label+" is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, label+" must be a valid UUID", nil)
		return "", false
	}
	return id, true
}

func viewerOf(caller middleware.Caller) approval.Viewer {
	return approval.Viewer{
		UserID:     caller.UserID,
		IsApprover: user.HasPermission(caller.Role, user.PermissionLeaveViewAll),
	}
}
