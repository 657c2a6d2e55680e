package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

// changedBy identifies workflow-driven status transitions in notifications.
const changedBy = "fulfillment-workflow"

// Interpreter walks the fixed step list of one execution, persisting a
// cursor after each step. Progress is crash-safe: every advance is a
// conditional commit keyed on the execution's version, so concurrent
// invocations (intake redelivery, internal retry, resume callback)
// serialize through the store and losers observe a benign conflict.
type Interpreter struct {
	executions interfaces.ExecutionRepository
	orders     interfaces.OrderRepository
	payments   interfaces.PaymentProcessor
	publisher  interfaces.MessagePublisher
	logger     logger.Logger
	steps      []StepDescriptor
	retry      RetryPolicy
}

func NewInterpreter(
	executions interfaces.ExecutionRepository,
	orders interfaces.OrderRepository,
	payments interfaces.PaymentProcessor,
	publisher interfaces.MessagePublisher,
	lgr logger.Logger,
	retry RetryPolicy,
) *Interpreter {
	return &Interpreter{
		executions: executions,
		orders:     orders,
		payments:   payments,
		publisher:  publisher,
		logger:     lgr,
		steps:      Steps(),
		retry:      retry,
	}
}

// Run executes steps from the current cursor forward until a Suspend
// step, the end of the list, or a terminal failure. The order draft is
// required only while the persist-order step has not committed yet;
// resumed invocations pass nil.
//
// A nil return means the execution reached a well-defined state (which
// includes terminal FAILED and TIMED_OUT); a non-nil error is a
// transport-level failure the caller may retry.
func (i *Interpreter) Run(ctx context.Context, orderID string, draft *domain.Order) error {
	for {
		exec, err := i.executions.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if exec.Status.Terminal() {
			return nil
		}
		if exec.Status == domain.ExecutionSuspended {
			// Dormant until the resume endpoint advances the cursor.
			return nil
		}

		if exec.DeadlineExceeded(time.Now()) {
			return i.commitTimeout(ctx, exec)
		}

		if exec.Cursor >= len(i.steps) {
			// COMPLETED normally lands with the final step's commit;
			// reconcile if a crash separated the two observations.
			err := i.executions.CommitStep(ctx, orderID, exec.Version, interfaces.StepCommit{
				NewCursor: exec.Cursor,
				Status:    domain.ExecutionCompleted,
			})
			if errors.Is(err, domain.ErrCursorConflict) {
				return nil
			}
			return err
		}

		stop, err := i.runStep(ctx, exec, i.steps[exec.Cursor], draft)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Resume re-enters the step loop after an external callback advanced
// the cursor past a Suspend step. It is a fresh invocation, not a
// parked thread.
func (i *Interpreter) Resume(ctx context.Context, orderID string) error {
	return i.Run(ctx, orderID, nil)
}

func (i *Interpreter) runStep(ctx context.Context, exec *domain.WorkflowExecution, step StepDescriptor, draft *domain.Order) (bool, error) {
	order, err := i.currentOrder(ctx, exec.OrderID, draft)
	if err != nil {
		return true, err
	}

	commit := interfaces.StepCommit{
		NewCursor: exec.Cursor + 1,
		Status:    domain.ExecutionRunning,
	}
	if commit.NewCursor >= len(i.steps) {
		commit.Status = domain.ExecutionCompleted
	}

	switch step.Kind {
	case StepTransactional:
		if step.PutOrder {
			if draft == nil {
				return true, fmt.Errorf("step %s: order draft required", step.Name)
			}
			commit.PutOrder = draft
		}
		commit.OrderStatus = step.Status

	case StepInvoke:
		if order == nil {
			return true, fmt.Errorf("step %s: %w", step.Name, domain.ErrOrderNotFound)
		}
		payment, err := i.invokePayment(ctx, exec, order)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Shutdown, not exhaustion: leave the execution as-is so
				// redelivery retries it.
				return true, err
			}
			i.logger.Error("step_invoke_failed", fmt.Sprintf("Step %s exhausted retries", step.Name), exec.OrderID, map[string]interface{}{
				"step":   step.Name,
				"cursor": exec.Cursor,
			}, err)
			return true, i.commitFailed(ctx, exec)
		}
		commit.Payment = payment

	case StepSuspend:
		task, err := domain.NewPendingTask(exec.OrderID, step.TaskKind)
		if err != nil {
			return true, err
		}
		// The cursor moves past a Suspend step only at resolve time.
		commit.NewCursor = exec.Cursor
		commit.Status = domain.ExecutionSuspended
		commit.OrderStatus = step.Status
		commit.CreateTask = task

	default:
		return true, fmt.Errorf("step %s: unknown kind %q", step.Name, step.Kind)
	}

	err = i.executions.CommitStep(ctx, exec.OrderID, exec.Version, commit)
	switch {
	case errors.Is(err, domain.ErrCursorConflict), errors.Is(err, domain.ErrTaskConflict):
		// A concurrent invocation already advanced this execution.
		i.logger.Debug("step_commit_conflict", fmt.Sprintf("Step %s already committed elsewhere", step.Name), exec.OrderID, nil)
		return true, nil
	case err != nil:
		return true, fmt.Errorf("step %s: commit: %w", step.Name, err)
	}

	i.logger.Debug("step_committed", fmt.Sprintf("Step %s committed", step.Name), exec.OrderID, map[string]interface{}{
		"step":   step.Name,
		"cursor": commit.NewCursor,
	})

	if commit.OrderStatus != nil {
		old := domain.Status("")
		if order != nil {
			old = order.Status
		}
		i.notifyStatus(ctx, exec.OrderID, old, *commit.OrderStatus)
	} else if step.PutOrder {
		i.notifyStatus(ctx, exec.OrderID, "", draft.Status)
	}

	if step.Kind == StepSuspend {
		i.logger.Info("execution_suspended", "Awaiting preparation callback", exec.OrderID, map[string]interface{}{
			"task_id": commit.CreateTask.TaskID,
		})
		return true, nil
	}
	if commit.Status == domain.ExecutionCompleted {
		i.logger.Info("execution_completed", "Workflow finished", exec.OrderID, nil)
		return true, nil
	}
	return false, nil
}

// currentOrder prefers the persisted record, falling back to the intake
// draft while the persist-order step has not committed.
func (i *Interpreter) currentOrder(ctx context.Context, orderID string, draft *domain.Order) (*domain.Order, error) {
	order, err := i.orders.FindOrder(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if errors.Is(err, domain.ErrOrderNotFound) {
		return draft, nil
	}
	return nil, err
}

func (i *Interpreter) invokePayment(ctx context.Context, exec *domain.WorkflowExecution, order *domain.Order) (*domain.Payment, error) {
	req := interfaces.PaymentRequest{
		OrderID:        order.ID,
		Amount:         order.Amount,
		UserID:         order.UserID,
		IdempotencyKey: fmt.Sprintf("%s:%d", order.ID, exec.Cursor),
	}

	var payment *domain.Payment
	err := doWithRetry(ctx, i.retry, func(ctx context.Context) error {
		p, chErr := i.payments.Charge(ctx, req)
		if chErr != nil {
			return chErr
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (i *Interpreter) commitFailed(ctx context.Context, exec *domain.WorkflowExecution) error {
	err := i.executions.CommitStep(ctx, exec.OrderID, exec.Version, interfaces.StepCommit{
		NewCursor: exec.Cursor,
		Status:    domain.ExecutionFailed,
	})
	if errors.Is(err, domain.ErrCursorConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	i.logger.Info("execution_failed", "Workflow terminated after step failure", exec.OrderID, map[string]interface{}{
		"cursor": exec.Cursor,
	})
	return nil
}

func (i *Interpreter) commitTimeout(ctx context.Context, exec *domain.WorkflowExecution) error {
	err := i.executions.CommitStep(ctx, exec.OrderID, exec.Version, interfaces.StepCommit{
		NewCursor: exec.Cursor,
		Status:    domain.ExecutionTimedOut,
	})
	if errors.Is(err, domain.ErrCursorConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	i.logger.Info("execution_timed_out", "Deadline exceeded", exec.OrderID, map[string]interface{}{
		"deadline": exec.Deadline,
		"cursor":   exec.Cursor,
	})
	return nil
}

func (i *Interpreter) notifyStatus(ctx context.Context, orderID string, oldStatus, newStatus domain.Status) {
	if i.publisher == nil {
		return
	}
	msg := interfaces.StatusUpdateMessage{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		Timestamp: time.Now(),
	}
	// Best effort: a notification failure never fails a committed step.
	if err := i.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		i.logger.Error("notification_publish_failed", "Failed to publish status update", orderID, nil, err)
	}
}
