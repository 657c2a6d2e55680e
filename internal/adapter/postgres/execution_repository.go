package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type executionRepository struct {
	db DB
}

func NewExecutionRepository(db DB) interfaces.ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) CreateIfAbsent(ctx context.Context, orderID string, deadline time.Time) (*domain.WorkflowExecution, bool, error) {
	exec := domain.NewWorkflowExecution(orderID, deadline)

	query := `
		INSERT INTO workflow_executions (order_id, step_cursor, version, status, created_at, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		exec.OrderID, exec.Cursor, exec.Version, exec.Status, exec.CreatedAt, exec.Deadline,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create execution: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return exec, true, nil
	}

	// Conditional create lost to an earlier one: read the winner.
	existing, err := r.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *executionRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.WorkflowExecution, error) {
	query := `
		SELECT order_id, step_cursor, version, status, created_at, deadline
		FROM workflow_executions
		WHERE order_id = $1
	`

	var exec domain.WorkflowExecution
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&exec.OrderID, &exec.Cursor, &exec.Version, &exec.Status, &exec.CreatedAt, &exec.Deadline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to load execution: %w", err)
	}

	return &exec, nil
}

// CommitStep applies the whole commit in one transaction guarded by the
// execution's version. Zero rows on the guarded update means another
// commit already advanced the cursor (or the execution is terminal);
// that surfaces as ErrCursorConflict and the transaction rolls back.
func (r *executionRepository) CommitStep(ctx context.Context, orderID string, expectedVersion int64, commit interfaces.StepCommit) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	guard := `
		UPDATE workflow_executions
		SET step_cursor = $1, version = version + 1, status = $2
		WHERE order_id = $3 AND version = $4 AND status IN ('RUNNING', 'SUSPENDED')
	`
	tag, err := tx.Exec(ctx, guard, commit.NewCursor, commit.Status, orderID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to advance execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCursorConflict
	}

	if commit.PutOrder != nil {
		o := commit.PutOrder
		insert := `
			INSERT INTO orders (order_id, menu_id, user_id, quantity, amount, order_date, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (order_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, insert,
			o.ID, o.MenuID, o.UserID, o.Quantity, o.Amount, o.OrderDate, o.Status, o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
	}

	if commit.OrderStatus != nil {
		update := `UPDATE orders SET status = $1, updated_at = $2 WHERE order_id = $3`
		tag, err := tx.Exec(ctx, update, *commit.OrderStatus, time.Now(), orderID)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrOrderNotFound
		}
	}

	if commit.Payment != nil {
		p := commit.Payment
		insert := `
			INSERT INTO payments (payment_id, order_id, date, amount, status)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(ctx, insert, p.PaymentID, p.OrderID, p.Date, p.Amount, p.Status); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	if commit.CreateTask != nil {
		t := commit.CreateTask
		insert := `
			INSERT INTO pending_tasks (task_id, order_id, token, kind, created_at, resolved)
			VALUES ($1, $2, $3, $4, $5, FALSE)
		`
		if _, err := tx.Exec(ctx, insert, t.TaskID, t.OrderID, t.Token, t.Kind, t.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrTaskConflict
			}
			return fmt.Errorf("failed to insert pending task: %w", err)
		}
	}

	if commit.ResolveTaskID != "" {
		resolve := `
			UPDATE pending_tasks
			SET resolved = TRUE, resolved_at = $1
			WHERE task_id = $2 AND NOT resolved
		`
		tag, err := tx.Exec(ctx, resolve, time.Now(), commit.ResolveTaskID)
		if err != nil {
			return fmt.Errorf("failed to resolve pending task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTaskAlreadyResolved
		}
	}

	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
