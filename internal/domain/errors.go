package domain

import "errors"

var (
	// ErrCursorConflict means another commit already advanced the execution.
	// Callers treat it as success-by-someone-else, not a failure.
	ErrCursorConflict = errors.New("execution cursor conflict")

	// ErrExecutionNotFound is returned when no execution exists for an order.
	ErrExecutionNotFound = errors.New("workflow execution not found")

	// ErrOrderNotFound is returned when no order record exists.
	ErrOrderNotFound = errors.New("order not found")

	// ErrTaskNotFound covers both an unknown task id and a bad token, so a
	// caller probing tokens cannot tell the two apart.
	ErrTaskNotFound = errors.New("pending task not found")

	// ErrTaskAlreadyResolved means the task token was already consumed.
	ErrTaskAlreadyResolved = errors.New("pending task already resolved")

	// ErrTaskExpired means the owning execution is terminal or past its
	// deadline; the task can never be resolved.
	ErrTaskExpired = errors.New("pending task expired")

	// ErrTaskConflict means the execution already has an unresolved task.
	ErrTaskConflict = errors.New("unresolved pending task already exists")

	// ErrInvalidStatusTransition guards the forward-only status chain.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrPaymentDeclined is a permanent payment failure; retrying the
	// charge cannot succeed.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrBadMessage marks an intake message that can never be processed.
	// The consumer routes such messages to the dead-letter queue instead
	// of requeueing them.
	ErrBadMessage = errors.New("malformed order message")
)
