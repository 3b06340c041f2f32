package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type recallRepositoryImpl struct {
	db *database.DB
}

func NewRecallRepository(db *database.DB) approval.RecallRepository {
	return &recallRepositoryImpl{db: db}
}

// Create implements approval.RecallRepository.
func (r *recallRepositoryImpl) Create(ctx context.Context, recall approval.RecallData) (approval.RecallData, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return approval.RecallData{}, fmt.Errorf("failed to generate recall id: %w", err)
	}
	recall.ID = id.String()

	query := `
		INSERT INTO leave_recalls (
			id, leave_request_id,
			original_date_from, original_date_to,
			new_date_from, new_date_to,
			reason, recalled_by, recalled_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW()
		) RETURNING recalled_at
	`

	err = q.QueryRow(ctx, query,
		recall.ID, recall.LeaveRequestID,
		recall.OriginalDateFrom, recall.OriginalDateTo,
		recall.NewDateFrom, recall.NewDateTo,
		recall.Reason, recall.RecalledBy,
	).Scan(&recall.RecalledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return approval.RecallData{}, approval.ErrAlreadyRecalled
		}
		return approval.RecallData{}, fmt.Errorf("failed to create recall: %w", err)
	}

	return recall, nil
}

// GetByLeaveRequestID implements approval.RecallRepository. A request that
// was never recalled yields nil without error.
func (r *recallRepositoryImpl) GetByLeaveRequestID(ctx context.Context, leaveRequestID string) (*approval.RecallData, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, leave_request_id,
			   original_date_from, original_date_to,
			   new_date_from, new_date_to,
			   reason, recalled_by, recalled_at
		FROM leave_recalls
		WHERE leave_request_id = $1
	`

	var rec approval.RecallData
	err := q.QueryRow(ctx, query, leaveRequestID).Scan(
		&rec.ID, &rec.LeaveRequestID,
		&rec.OriginalDateFrom, &rec.OriginalDateTo,
		&rec.NewDateFrom, &rec.NewDateTo,
		&rec.Reason, &rec.RecalledBy, &rec.RecalledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recall: %w", err)
	}

	return &rec, nil
}
