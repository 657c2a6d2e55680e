package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.IntakeService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.IntakeService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order message", "", nil, err)
		return fmt.Errorf("%w: %v", domain.ErrBadMessage, err)
	}

	return h.service.HandleOrderMessage(ctx, msg)
}
