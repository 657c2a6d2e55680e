package interfaces

import (
	"context"
	"time"

	"cloud-restaurant/internal/domain"
)

// OrderMessage is the intake queue payload. Delivery is at-least-once;
// the consumer deduplicates by order id.
type OrderMessage struct {
	OrderID   string    `json:"order_id"`
	MenuID    string    `json:"menu_id"`
	UserID    string    `json:"user_id"`
	Quantity  int       `json:"quantity"`
	Amount    float64   `json:"amount"`
	OrderDate time.Time `json:"order_date"`
	Status    string    `json:"status"`
}

// StatusUpdateMessage is broadcast on the notifications fanout whenever
// a step commit changes the order's status.
type StatusUpdateMessage struct {
	OrderID   string        `json:"order_id"`
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	ChangedBy string        `json:"changed_by"`
	Timestamp time.Time     `json:"timestamp"`
}

type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	OrderMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
