package tracking

import (
	"context"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

// Service is the read side consumed by order-listing clients. Reads are
// consistent by construction: status and cursor advance in one commit.
type Service struct {
	orders     interfaces.OrderRepository
	executions interfaces.ExecutionRepository
	logger     logger.Logger
}

func NewService(orders interfaces.OrderRepository, executions interfaces.ExecutionRepository, lgr logger.Logger) *Service {
	return &Service{
		orders:     orders,
		executions: executions,
		logger:     lgr,
	}
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindOrder(ctx, orderID)
}

func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (*interfaces.TrackingStatusResponse, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingStatusResponse{
		OrderID:   order.ID,
		Status:    order.Status,
		UpdatedAt: order.UpdatedAt,
	}

	exec, err := s.executions.FindByOrderID(ctx, orderID)
	if err == nil {
		resp.ExecutionStatus = exec.Status
		resp.Deadline = exec.Deadline
	}

	return resp, nil
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
