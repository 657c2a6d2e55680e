package domain

import "time"

// WorkflowExecution tracks the durable progress of one order through the
// fulfillment step list. Exactly one execution exists per order id; the
// cursor only ever increases and the version increments on every
// persisted mutation, guarding against concurrent double-application.
type WorkflowExecution struct {
	OrderID   string
	Cursor    int
	Version   int64
	Status    ExecutionStatus
	CreatedAt time.Time
	Deadline  time.Time
}

// NewWorkflowExecution returns a fresh RUNNING execution with its
// wall-clock budget fixed at creation.
func NewWorkflowExecution(orderID string, deadline time.Time) *WorkflowExecution {
	return &WorkflowExecution{
		OrderID:   orderID,
		Cursor:    0,
		Version:   1,
		Status:    ExecutionRunning,
		CreatedAt: time.Now(),
		Deadline:  deadline,
	}
}

// DeadlineExceeded reports whether the execution has used up its budget.
func (e *WorkflowExecution) DeadlineExceeded(now time.Time) bool {
	return now.After(e.Deadline)
}
