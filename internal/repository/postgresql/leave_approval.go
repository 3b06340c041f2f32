package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type approvalRecordRepositoryImpl struct {
	db *database.DB
}

func NewApprovalRecordRepository(db *database.DB) approval.ApprovalRecordRepository {
	return &approvalRecordRepositoryImpl{db: db}
}

// Create implements approval.ApprovalRecordRepository.
func (r *approvalRecordRepositoryImpl) Create(ctx context.Context, record approval.ApprovalRecord) (approval.ApprovalRecord, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return approval.ApprovalRecord{}, fmt.Errorf("failed to generate approval id: %w", err)
	}
	record.ID = id.String()

	query := `
		INSERT INTO leave_approvals (
			id, leave_request_id, role, status,
			approver_id, approved_at, remarks,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			NOW(), NOW()
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		record.ID, record.LeaveRequestID, record.Role, record.Status,
		record.ApproverID, record.ApprovedAt, record.Remarks,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return approval.ApprovalRecord{}, &approval.DataIntegrityError{Field: "role", Value: string(record.Role), Reason: "duplicate approval record"}
		}
		return approval.ApprovalRecord{}, fmt.Errorf("failed to create approval record: %w", err)
	}

	return record, nil
}

// GetByLeaveRequestID implements approval.ApprovalRecordRepository.
func (r *approvalRecordRepositoryImpl) GetByLeaveRequestID(ctx context.Context, leaveRequestID string) ([]approval.ApprovalRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, leave_request_id, role, status,
			   approver_id, approved_at, remarks,
			   created_at, updated_at
		FROM leave_approvals
		WHERE leave_request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, leaveRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval records: %w", err)
	}
	defer rows.Close()

	var records []approval.ApprovalRecord
	for rows.Next() {
		var rec approval.ApprovalRecord
		err := rows.Scan(
			&rec.ID, &rec.LeaveRequestID, &rec.Role, &rec.Status,
			&rec.ApproverID, &rec.ApprovedAt, &rec.Remarks,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// UpdateDecision implements approval.ApprovalRecordRepository.
// Only a pending record is updated, so a concurrent decision loses.
func (r *approvalRecordRepositoryImpl) UpdateDecision(ctx context.Context, record approval.ApprovalRecord) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_approvals
		SET status = $3, approver_id = $4, approved_at = $5, remarks = $6, updated_at = NOW()
		WHERE leave_request_id = $1 AND role = $2 AND status = 'pending'
	`
	commandTag, err := q.Exec(ctx, query,
		record.LeaveRequestID, record.Role,
		record.Status, record.ApproverID, record.ApprovedAt, record.Remarks,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval record: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return approval.ErrApprovalAlreadyDecided
	}
	return nil
}
