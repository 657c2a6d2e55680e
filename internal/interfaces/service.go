package interfaces

import (
	"context"
	"time"

	"cloud-restaurant/internal/domain"
)

// IntakeService turns possibly-duplicated queue messages into at most
// one workflow start per order.
type IntakeService interface {
	HandleOrderMessage(ctx context.Context, msg OrderMessage) error
}

// PreparationService advances a suspended execution from external
// kitchen callbacks carrying the task's bearer token.
type PreparationService interface {
	// StartPreparation marks the task as being worked on. It does not
	// resolve the task.
	StartPreparation(ctx context.Context, taskID, token string) (orderID string, err error)

	// FinishPreparation resolves the task exactly once and resumes the
	// execution at the step after the Suspend.
	FinishPreparation(ctx context.Context, taskID, token string) (orderID string, err error)
}

// TrackingService is the read side for order-listing clients.
type TrackingService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (*TrackingStatusResponse, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

// TrackingStatusResponse pairs the order's status projection with the
// fulfillment state of its execution.
type TrackingStatusResponse struct {
	OrderID         string
	Status          domain.Status
	ExecutionStatus domain.ExecutionStatus
	UpdatedAt       time.Time
	Deadline        time.Time
}
