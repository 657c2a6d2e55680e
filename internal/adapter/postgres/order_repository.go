package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `
		SELECT order_id, menu_id, user_id, quantity, amount, order_date, status, created_at, updated_at
		FROM orders
		WHERE order_id = $1
	`

	var order domain.Order
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&order.ID, &order.MenuID, &order.UserID, &order.Quantity, &order.Amount,
		&order.OrderDate, &order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `
		SELECT order_id, menu_id, user_id, quantity, amount, order_date, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY order_date ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.MenuID, &order.UserID, &order.Quantity, &order.Amount,
			&order.OrderDate, &order.Status, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &order)
	}

	return orders, nil
}
