package interfaces

import (
	"context"
	"time"

	"cloud-restaurant/internal/domain"
)

// StepCommit describes everything that must land atomically when an
// execution advances past (or suspends at) one step: the new cursor, the
// execution status, and any side effects owned by that step. The store
// applies the whole commit in a single conditional operation keyed on
// the execution's last-known version.
type StepCommit struct {
	NewCursor int
	Status    domain.ExecutionStatus

	// PutOrder inserts the order record (first step only). The insert is
	// tolerant of re-runs: an existing row is left untouched.
	PutOrder *domain.Order

	// OrderStatus advances the order's status projection together with
	// the cursor, never in a separate write.
	OrderStatus *domain.Status

	// Payment persists the processor's payment record.
	Payment *domain.Payment

	// CreateTask persists the continuation for a Suspend step.
	CreateTask *domain.PendingTask

	// ResolveTaskID flips the named task's resolved flag; the commit
	// fails with ErrTaskAlreadyResolved if it was flipped before.
	ResolveTaskID string
}

// ExecutionRepository is the durable store for workflow executions.
// All writes are conditional: a version mismatch surfaces as
// domain.ErrCursorConflict, which callers treat as already-applied.
type ExecutionRepository interface {
	// CreateIfAbsent creates a RUNNING execution for the order unless one
	// already exists. The bool reports whether this call created it;
	// false is the idempotent-duplicate case, not an error.
	CreateIfAbsent(ctx context.Context, orderID string, deadline time.Time) (*domain.WorkflowExecution, bool, error)

	FindByOrderID(ctx context.Context, orderID string) (*domain.WorkflowExecution, error)

	// CommitStep applies commit if and only if the stored version equals
	// expectedVersion and the execution is not terminal.
	CommitStep(ctx context.Context, orderID string, expectedVersion int64, commit StepCommit) error
}

// TaskRepository reads and updates pending callback tasks. Resolution
// itself goes through ExecutionRepository.CommitStep so the resolved
// flag and the cursor advance land in one transaction.
type TaskRepository interface {
	FindTask(ctx context.Context, taskID string) (*domain.PendingTask, error)

	// MarkStarted sets the task's started_at once; later calls are no-ops.
	MarkStarted(ctx context.Context, taskID string, now time.Time) error
}

// OrderRepository serves the read side consumed by order-listing clients.
type OrderRepository interface {
	FindOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}
