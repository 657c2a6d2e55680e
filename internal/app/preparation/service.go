package preparation

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/app/fulfillment"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

// Service advances a suspended execution from kitchen callbacks. Each
// callback is a fresh invocation carrying the task's bearer token; the
// resolved flag and the cursor advance land in one conditional commit,
// so duplicate callbacks observe AlreadyResolved and mutate nothing.
type Service struct {
	executions  interfaces.ExecutionRepository
	tasks       interfaces.TaskRepository
	interpreter *fulfillment.Interpreter
	logger      logger.Logger
}

func NewService(
	executions interfaces.ExecutionRepository,
	tasks interfaces.TaskRepository,
	interpreter *fulfillment.Interpreter,
	lgr logger.Logger,
) *Service {
	return &Service{
		executions:  executions,
		tasks:       tasks,
		interpreter: interpreter,
		logger:      lgr,
	}
}

// StartPreparation records that the kitchen began working the task. It
// never resolves the task; repeated calls are harmless.
func (s *Service) StartPreparation(ctx context.Context, taskID, token string) (string, error) {
	task, _, err := s.authorize(ctx, taskID, token)
	if err != nil {
		return "", err
	}

	if err := s.tasks.MarkStarted(ctx, taskID, time.Now()); err != nil {
		return "", fmt.Errorf("failed to mark task started: %w", err)
	}

	s.logger.Info("preparation_started", "Kitchen started preparing order", task.OrderID, map[string]interface{}{
		"task_id": taskID,
	})
	return task.OrderID, nil
}

// FinishPreparation resolves the task exactly once, commits the cursor
// past the Suspend step, and re-enters the interpreter.
func (s *Service) FinishPreparation(ctx context.Context, taskID, token string) (string, error) {
	task, exec, err := s.authorize(ctx, taskID, token)
	if err != nil {
		return "", err
	}

	commit := interfaces.StepCommit{
		NewCursor:     exec.Cursor + 1,
		Status:        domain.ExecutionRunning,
		ResolveTaskID: task.TaskID,
	}
	err = s.executions.CommitStep(ctx, task.OrderID, exec.Version, commit)
	switch {
	case errors.Is(err, domain.ErrCursorConflict):
		// A concurrent duplicate won the commit; same outcome for the caller.
		return "", domain.ErrTaskAlreadyResolved
	case err != nil:
		return "", err
	}

	s.logger.Info("preparation_finished", "Task resolved, resuming execution", task.OrderID, map[string]interface{}{
		"task_id": taskID,
	})

	if err := s.interpreter.Resume(ctx, task.OrderID); err != nil {
		// The resolve itself is durable; the remaining steps will be
		// retried on the next progress attempt.
		s.logger.Error("resume_failed", "Failed to run remaining steps", task.OrderID, nil, err)
	}
	return task.OrderID, nil
}

// authorize loads the task and its execution, checks the bearer token in
// constant time, and applies the task lifecycle rules shared by both
// callbacks. A bad token is indistinguishable from an unknown task.
func (s *Service) authorize(ctx context.Context, taskID, token string) (*domain.PendingTask, *domain.WorkflowExecution, error) {
	task, err := s.tasks.FindTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	if subtle.ConstantTimeCompare([]byte(task.Token), []byte(token)) != 1 {
		return nil, nil, domain.ErrTaskNotFound
	}

	exec, err := s.executions.FindByOrderID(ctx, task.OrderID)
	if err != nil {
		return nil, nil, err
	}

	if task.Resolved {
		return nil, nil, domain.ErrTaskAlreadyResolved
	}
	if exec.Status.Terminal() {
		return nil, nil, domain.ErrTaskExpired
	}
	if exec.DeadlineExceeded(time.Now()) {
		// One-way transition; a concurrent attempt may have won already.
		commitErr := s.executions.CommitStep(ctx, task.OrderID, exec.Version, interfaces.StepCommit{
			NewCursor: exec.Cursor,
			Status:    domain.ExecutionTimedOut,
		})
		if commitErr != nil && !errors.Is(commitErr, domain.ErrCursorConflict) {
			return nil, nil, commitErr
		}
		s.logger.Info("execution_timed_out", "Deadline exceeded before callback", task.OrderID, map[string]interface{}{
			"task_id": taskID,
		})
		return nil, nil, domain.ErrTaskExpired
	}

	return task, exec, nil
}
