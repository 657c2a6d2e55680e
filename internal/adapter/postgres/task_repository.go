package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type taskRepository struct {
	db DB
}

func NewTaskRepository(db DB) interfaces.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) FindTask(ctx context.Context, taskID string) (*domain.PendingTask, error) {
	query := `
		SELECT task_id, order_id, token, kind, created_at, started_at, resolved
		FROM pending_tasks
		WHERE task_id = $1
	`

	var task domain.PendingTask
	err := r.db.QueryRow(ctx, query, taskID).Scan(
		&task.TaskID, &task.OrderID, &task.Token, &task.Kind, &task.CreatedAt, &task.StartedAt, &task.Resolved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load pending task: %w", err)
	}

	return &task, nil
}

func (r *taskRepository) MarkStarted(ctx context.Context, taskID string, now time.Time) error {
	query := `UPDATE pending_tasks SET started_at = $1 WHERE task_id = $2 AND started_at IS NULL`
	if _, err := r.db.Exec(ctx, query, now, taskID); err != nil {
		return fmt.Errorf("failed to mark task started: %w", err)
	}
	return nil
}
