package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type rescheduleRepositoryImpl struct {
	db *database.DB
}

func NewRescheduleRepository(db *database.DB) approval.RescheduleRepository {
	return &rescheduleRepositoryImpl{db: db}
}

const rescheduleColumns = `
	id, leave_request_id, requested_by,
	original_date_from, original_date_to,
	new_date_from, new_date_to,
	reason, status, decided_by, decided_at, remarks,
	created_at, updated_at
`

func scanReschedule(row pgx.Row) (approval.RescheduleRequest, error) {
	var rs approval.RescheduleRequest
	err := row.Scan(
		&rs.ID, &rs.LeaveRequestID, &rs.RequestedBy,
		&rs.OriginalDateFrom, &rs.OriginalDateTo,
		&rs.NewDateFrom, &rs.NewDateTo,
		&rs.Reason, &rs.Status, &rs.DecidedBy, &rs.DecidedAt, &rs.Remarks,
		&rs.CreatedAt, &rs.UpdatedAt,
	)
	return rs, err
}

// Create implements approval.RescheduleRepository.
func (r *rescheduleRepositoryImpl) Create(ctx context.Context, reschedule approval.RescheduleRequest) (approval.RescheduleRequest, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return approval.RescheduleRequest{}, fmt.Errorf("failed to generate reschedule id: %w", err)
	}
	reschedule.ID = id.String()

	query := `
		INSERT INTO leave_reschedules (
			id, leave_request_id, requested_by,
			original_date_from, original_date_to,
			new_date_from, new_date_to,
			reason, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		reschedule.ID, reschedule.LeaveRequestID, reschedule.RequestedBy,
		reschedule.OriginalDateFrom, reschedule.OriginalDateTo,
		reschedule.NewDateFrom, reschedule.NewDateTo,
		reschedule.Reason, reschedule.Status,
	).Scan(&reschedule.CreatedAt, &reschedule.UpdatedAt)
	if err != nil {
		return approval.RescheduleRequest{}, fmt.Errorf("failed to create reschedule: %w", err)
	}

	return reschedule, nil
}

// GetByID implements approval.RescheduleRepository.
func (r *rescheduleRepositoryImpl) GetByID(ctx context.Context, id string) (approval.RescheduleRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + rescheduleColumns + ` FROM leave_reschedules WHERE id = $1`

	rs, err := scanReschedule(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.RescheduleRequest{}, approval.ErrRescheduleNotFound
		}
		return approval.RescheduleRequest{}, fmt.Errorf("failed to get reschedule: %w", err)
	}
	return rs, nil
}

// GetByLeaveRequestID implements approval.RescheduleRepository.
func (r *rescheduleRepositoryImpl) GetByLeaveRequestID(ctx context.Context, leaveRequestID string) ([]approval.RescheduleRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + rescheduleColumns + `
		FROM leave_reschedules
		WHERE leave_request_id = $1
		ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, leaveRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reschedules: %w", err)
	}
	defer rows.Close()

	var result []approval.RescheduleRequest
	for rows.Next() {
		rs, err := scanReschedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reschedule: %w", err)
		}
		result = append(result, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// HasPending implements approval.RescheduleRepository.
func (r *rescheduleRepositoryImpl) HasPending(ctx context.Context, leaveRequestID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_reschedules
			WHERE leave_request_id = $1 AND status = 'pending'
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, leaveRequestID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending reschedules: %w", err)
	}
	return exists, nil
}

// UpdateDecision implements approval.RescheduleRepository.
func (r *rescheduleRepositoryImpl) UpdateDecision(ctx context.Context, reschedule approval.RescheduleRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_reschedules
		SET status = $2, decided_by = $3, decided_at = $4, remarks = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	commandTag, err := q.Exec(ctx, query,
		reschedule.ID, reschedule.Status, reschedule.DecidedBy, reschedule.DecidedAt, reschedule.Remarks,
	)
	if err != nil {
		return fmt.Errorf("failed to update reschedule: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return approval.ErrRescheduleProcessed
	}
	return nil
}

// ListPendingStartingBefore implements approval.RescheduleRepository.
func (r *rescheduleRepositoryImpl) ListPendingStartingBefore(ctx context.Context, date time.Time) ([]approval.RescheduleRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + rescheduleColumns + `
		FROM leave_reschedules
		WHERE status = 'pending' AND new_date_from < $1
		ORDER BY new_date_from ASC`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale reschedules: %w", err)
	}
	defer rows.Close()

	var result []approval.RescheduleRequest
	for rows.Next() {
		rs, err := scanReschedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reschedule: %w", err)
		}
		result = append(result, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
