package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/google/uuid"
)

// TestDatabaseSetup holds the connection used by repository tests
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema.
// ok is false when no test database is configured.
func NewTestDatabase(ctx context.Context) (setup *TestDatabaseSetup, ok bool, err error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, false, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	if err != nil {
		return nil, true, fmt.Errorf("failed to connect to test database: %w", err)
	}

	setup = &TestDatabaseSetup{DB: db}
	if err := setup.applySchema(ctx); err != nil {
		db.Close()
		return nil, true, err
	}
	return setup, true, nil
}

func (t *TestDatabaseSetup) applySchema(ctx context.Context) error {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations", "000001_leave_approval.up.sql")

	schema, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := t.DB.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// TruncateAllTables removes every row from the approval tables
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	_, err := t.DB.Exec(ctx, `TRUNCATE TABLE leave_reschedules, leave_recalls, leave_approvals, leave_requests CASCADE`)
	return err
}

// InsertLeaveRequest seeds a leave request waiting for approval
func (t *TestDatabaseSetup) InsertLeaveRequest(ctx context.Context, isDeptHeadRequest bool) (id, requesterID string, err error) {
	id = uuid.Must(uuid.NewV7()).String()
	requesterID = uuid.Must(uuid.NewV7()).String()
	employeeID := uuid.Must(uuid.NewV7()).String()

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err = t.DB.Exec(ctx, `
		INSERT INTO leave_requests (id, employee_id, requester_user_id, start_date, end_date, is_dept_head_request)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, employeeID, requesterID, start, start.AddDate(0, 0, 2), isDeptHeadRequest)
	return id, requesterID, err
}

func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
