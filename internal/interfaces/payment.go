package interfaces

import (
	"context"

	"cloud-restaurant/internal/domain"
)

// PaymentRequest is the synchronous charge call made by the workflow's
// Invoke step. IdempotencyKey is derived from (orderId, stepIndex) so a
// retried invocation cannot double-charge.
type PaymentRequest struct {
	OrderID        string  `json:"order_id"`
	Amount         float64 `json:"amount"`
	UserID         string  `json:"user_id"`
	IdempotencyKey string  `json:"-"`
}

// PaymentProcessor is the outbound port to the payment collaborator.
// A transport-level failure is retryable; domain.ErrPaymentDeclined is
// permanent and terminates the execution.
type PaymentProcessor interface {
	Charge(ctx context.Context, req PaymentRequest) (*domain.Payment, error)
}
