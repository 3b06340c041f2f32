package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/config"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
	approvalService "github.com/cmlabs-hris/leave-approval-go/internal/service/approval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"

	testLeaveID      = "0192a3b4-c5d6-7e8f-9a0b-1c2d3e4f5a6b"
	missingLeaveID   = "0192a3b4-c5d6-7e8f-9a0b-000000000000"
	testRescheduleID = "0192a3b4-c5d6-7e8f-9a0b-aaaaaaaaaaaa"
)

// stubApprovalService resolves snapshots for real and returns canned
// results for everything that needs storage.
type stubApprovalService struct {
	decideErr  error
	lastDecide approval.DecideApprovalRequest
	lastViewer approval.Viewer
	events     chan approval.StreamEvent
}

func (s *stubApprovalService) ResolveSnapshot(ctx context.Context, req approval.ResolveProgressRequest) (approval.Progress, error) {
	if err := req.Validate(); err != nil {
		return approval.Progress{}, err
	}
	state, err := req.ToState()
	if err != nil {
		return approval.Progress{}, err
	}
	return approvalService.Resolve(state)
}

func (s *stubApprovalService) GetProgress(ctx context.Context, leaveRequestID string, viewer approval.Viewer) (approval.Progress, error) {
	s.lastViewer = viewer
	if leaveRequestID == missingLeaveID {
		return approval.Progress{}, approval.ErrLeaveRequestNotFound
	}
	return approvalService.Resolve(approval.ApprovalState{})
}

func (s *stubApprovalService) StartApproval(ctx context.Context, leaveRequestID string) (approval.Progress, error) {
	return approvalService.Resolve(approval.ApprovalState{
		Approvals: []approval.ApprovalRecord{{Role: approval.RoleHR, Status: approval.StatusPending}},
	})
}

func (s *stubApprovalService) Decide(ctx context.Context, req approval.DecideApprovalRequest) (approval.Progress, error) {
	s.lastDecide = req
	if s.decideErr != nil {
		return approval.Progress{}, s.decideErr
	}
	if err := req.Validate(); err != nil {
		return approval.Progress{}, err
	}
	return approvalService.Resolve(approval.ApprovalState{
		Approvals: []approval.ApprovalRecord{{Role: approval.RoleHR, Status: approval.StatusApproved}},
	})
}

func (s *stubApprovalService) Recall(ctx context.Context, req approval.RecallLeaveRequest) (approval.Progress, error) {
	return approvalService.Resolve(approval.ApprovalState{IsRecalled: true})
}

func (s *stubApprovalService) RequestReschedule(ctx context.Context, req approval.CreateRescheduleRequest) (approval.RescheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return approval.RescheduleResponse{}, err
	}
	return approval.RescheduleResponse{ID: testRescheduleID, LeaveRequestID: req.LeaveRequestID, RequestedBy: req.RequestedBy, Status: approval.ReschedulePending}, nil
}

func (s *stubApprovalService) DecideReschedule(ctx context.Context, req approval.DecideRescheduleRequest) (approval.RescheduleResponse, error) {
	return approval.RescheduleResponse{}, approval.ErrRescheduleProcessed
}

func (s *stubApprovalService) ListReschedules(ctx context.Context, leaveRequestID string, viewer approval.Viewer) ([]approval.RescheduleResponse, error) {
	return []approval.RescheduleResponse{}, nil
}

func (s *stubApprovalService) ExpireStaleReschedules(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubApprovalService) Subscribe(ctx context.Context, userID string) (<-chan approval.StreamEvent, func()) {
	return s.events, func() {}
}

type routerFixture struct {
	router http.Handler
	jwt    jwt.Service
	svc    *stubApprovalService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "leave-approval-test", Version: "test", Env: "test"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	jwtService := jwt.NewJWTService(handlerTestSecret, time.Hour)
	svc := &stubApprovalService{events: make(chan approval.StreamEvent, 1)}

	router := NewRouter(cfg, jwtService, NewApprovalHandler(svc), NewStreamHandler(svc, jwtService))
	return &routerFixture{router: router, jwt: jwtService, svc: svc}
}

func (f *routerFixture) token(t *testing.T, userID string, role user.Role) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(jwt.AccessClaims{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// Test stateless resolution over HTTP
func TestApprovalHandler_Resolve(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "user-1", user.RoleEmployee)

	body := map[string]interface{}{
		"approvals": []map[string]interface{}{
			{"role": "hr", "status": "approved", "approved_at": nil, "remarks": nil},
			{"role": "admin", "status": "approved", "approved_at": nil, "remarks": nil},
		},
		"is_dept_head_request": true,
		"is_recalled":          false,
		"recall_data":          nil,
	}
	rec := f.do(t, http.MethodPost, "/api/v1/leave-progress/resolve", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var out struct {
		Steps []struct {
			ID     string  `json:"id"`
			Status string  `json:"status"`
			Badge  *string `json:"badge"`
		} `json:"steps"`
		CurrentStepIndex int    `json:"currentStepIndex"`
		StatusMessage    string `json:"statusMessage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 2, out.CurrentStepIndex)
	assert.Equal(t, "Approved by Admin - fully approved", out.StatusMessage)
	require.Len(t, out.Steps, 3)
	assert.Nil(t, out.Steps[0].Badge)
	assert.Equal(t, "current", out.Steps[2].Status)
}

func TestApprovalHandler_ResolveErrors(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, "user-1", user.RoleEmployee)

	t.Run("missing flags", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/leave-progress/resolve", token, map[string]interface{}{"approvals": []interface{}{}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "is_dept_head_request")
	})

	t.Run("unknown role", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/leave-progress/resolve", token, map[string]interface{}{
			"approvals":            []map[string]string{{"role": "finance", "status": "pending"}},
			"is_dept_head_request": false,
			"is_recalled":          false,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "DATA_INTEGRITY_ERROR", env.Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leave-progress/resolve", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/leave-progress/resolve", "", map[string]interface{}{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestApprovalHandler_StreamTokenCannotCallAPI(t *testing.T) {
	f := newRouterFixture(t)
	streamToken, _, err := f.jwt.GenerateStreamToken("user-1")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/leave-requests/"+testLeaveID+"/progress", streamToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApprovalHandler_ExpiredToken(t *testing.T) {
	f := newRouterFixture(t)
	_, expired, err := f.jwt.JWTAuth().Encode(map[string]interface{}{
		"user_id": "user-1",
		"role":    string(user.RoleEmployee),
		"type":    jwt.TokenTypeAccess,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/leave-requests/"+testLeaveID+"/progress", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token expired", decodeEnvelope(t, rec).Error.Message)
}

func TestApprovalHandler_GetProgress(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/leave-requests/"+testLeaveID+"/progress", f.token(t, "user-1", user.RoleEmployee), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, approval.Viewer{UserID: "user-1"}, f.svc.lastViewer)

	rec = f.do(t, http.MethodGet, "/api/v1/leave-requests/"+testLeaveID+"/progress", f.token(t, "user-2", user.RoleDeptHead), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, approval.Viewer{UserID: "user-2", IsApprover: true}, f.svc.lastViewer)

	rec = f.do(t, http.MethodGet, "/api/v1/leave-requests/"+missingLeaveID+"/progress", f.token(t, "user-1", user.RoleEmployee), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApprovalHandler_Decide(t *testing.T) {
	f := newRouterFixture(t)
	body := map[string]interface{}{"decision": "approve"}

	rec := f.do(t, http.MethodPost, "/api/v1/leave-requests/"+testLeaveID+"/approvals/hr", f.token(t, "user-hr", user.RoleHR), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testLeaveID, f.svc.lastDecide.LeaveRequestID)
	assert.Equal(t, "hr", f.svc.lastDecide.Role)
	assert.Equal(t, "user-hr", f.svc.lastDecide.ApproverID)
	assert.Equal(t, "hr", f.svc.lastDecide.ApproverRole)
	assert.Equal(t, "Awaiting Department Head approval", decodeEnvelope(t, rec).Message)
}

func TestApprovalHandler_DecideForbiddenForEmployee(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/leave-requests/"+testLeaveID+"/approvals/hr", f.token(t, "user-1", user.RoleEmployee), map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApprovalHandler_DecideErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{approval.ErrStageOutOfOrder, http.StatusConflict},
		{approval.ErrApprovalAlreadyDecided, http.StatusConflict},
		{approval.ErrStageBypassed, http.StatusConflict},
		{approval.ErrRoleMismatch, http.StatusForbidden},
		{approval.ErrLeaveRequestNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newRouterFixture(t)
			f.svc.decideErr = tt.err
			rec := f.do(t, http.MethodPost, "/api/v1/leave-requests/"+testLeaveID+"/approvals/admin", f.token(t, "user-admin", user.RoleAdmin), map[string]string{"decision": "approve"})
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestApprovalHandler_RecallRequiresPermission(t *testing.T) {
	f := newRouterFixture(t)
	body := map[string]string{"new_date_from": "2025-07-10", "new_date_to": "2025-07-11", "reason": "Escalation"}

	rec := f.do(t, http.MethodPost, "/api/v1/leave-requests/"+testLeaveID+"/recall", f.token(t, "user-dh", user.RoleDeptHead), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/leave-requests/"+testLeaveID+"/recall", f.token(t, "user-admin", user.RoleAdmin), body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Leave request has been recalled", decodeEnvelope(t, rec).Message)
}

func TestApprovalHandler_Reschedules(t *testing.T) {
	f := newRouterFixture(t)
	employee := f.token(t, "user-1", user.RoleEmployee)

	rec := f.do(t, http.MethodPost, "/api/v1/leave-requests/"+testLeaveID+"/reschedules", employee, map[string]string{
		"new_date_from": "2025-08-04",
		"new_date_to":   "2025-08-06",
		"reason":        "Moved",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created approval.RescheduleResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &created))
	assert.Equal(t, testLeaveID, created.LeaveRequestID)
	assert.Equal(t, "user-1", created.RequestedBy)

	rec = f.do(t, http.MethodGet, "/api/v1/leave-requests/"+testLeaveID+"/reschedules", employee, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/leave-reschedules/"+testRescheduleID+"/decision", employee, map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/leave-reschedules/"+testRescheduleID+"/decision", f.token(t, "user-hr", user.RoleHR), map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStreamHandler(t *testing.T) {
	f := newRouterFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	rec := f.do(t, http.MethodPost, "/api/v1/leave-progress/stream-token", f.token(t, "user-1", user.RoleEmployee), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tokenResp approval.StreamTokenResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	resp, err := http.Get(server.URL + "/api/v1/leave-progress/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/leave-progress/stream?token="+tokenResp.Token, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return name, data
			}
		}
	}

	name, data := readEvent()
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, `"user_id":"user-1"`)

	f.svc.events <- approval.StreamEvent{
		Event: approval.EventLeaveProgress,
		Data:  approval.ProgressEvent{LeaveRequestID: testLeaveID},
	}
	name, data = readEvent()
	assert.Equal(t, approval.EventLeaveProgress, name)
	assert.Contains(t, data, `"leave_request_id":"`+testLeaveID+`"`)
}

func TestApprovalHandler_RejectsMalformedIDs(t *testing.T) {
	f := newRouterFixture(t)
	hr := f.token(t, "user-hr", user.RoleHR)

	rec := f.do(t, http.MethodGet, "/api/v1/leave-requests/leave-1/progress", hr, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/leave-requests/leave-1/approvals/hr", hr, map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.svc.lastDecide.LeaveRequestID)

	rec = f.do(t, http.MethodPost, "/api/v1/leave-reschedules/abc/decision", hr, map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
