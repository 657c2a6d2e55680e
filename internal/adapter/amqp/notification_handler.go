package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderID),
		msg.OrderID, map[string]interface{}{
			"order_id":   msg.OrderID,
			"new_status": msg.NewStatus,
		})

	// Print to console
	fmt.Printf("Notification for order %s: Status changed from '%s' to '%s' by %s\n",
		msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)

	return nil
}
