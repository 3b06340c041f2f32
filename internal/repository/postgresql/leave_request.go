package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) approval.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// GetByID implements approval.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (approval.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT lr.id, lr.employee_id, lr.requester_user_id,
			   lr.start_date, lr.end_date, lr.is_dept_head_request,
			   lr.status, lr.created_at, lr.updated_at
		FROM leave_requests lr
		WHERE lr.id = $1
	`

	var req approval.LeaveRequest
	err := q.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.EmployeeID, &req.RequesterUserID,
		&req.StartDate, &req.EndDate, &req.IsDeptHeadRequest,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.LeaveRequest{}, approval.ErrLeaveRequestNotFound
		}
		return approval.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}

	return req, nil
}

// UpdateStatus implements approval.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, id string, status approval.LeaveRequestStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	commandTag, err := q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update leave request status: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return approval.ErrLeaveRequestNotFound
	}
	return nil
}

// UpdateDates implements approval.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateDates(ctx context.Context, id string, startDate, endDate time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET start_date = $2, end_date = $3, updated_at = NOW()
		WHERE id = $1
	`
	commandTag, err := q.Exec(ctx, query, id, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to update leave request dates: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return approval.ErrLeaveRequestNotFound
	}
	return nil
}
