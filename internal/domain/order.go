package domain

import (
	"errors"
	"fmt"
	"time"
)

// Order represents a customer order entity. It is created by the first
// step of a workflow execution and mutated only by step commits.
type Order struct {
	ID        string
	MenuID    string
	UserID    string
	Quantity  int
	Amount    float64
	OrderDate time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder builds an order draft with business validation applied.
// The draft carries status RECEIVED until committed by the workflow.
func NewOrder(id, menuID, userID string, quantity int, amount float64, orderDate time.Time) (*Order, error) {
	order := &Order{
		ID:        id,
		MenuID:    menuID,
		UserID:    userID,
		Quantity:  quantity,
		Amount:    amount,
		OrderDate: orderDate,
		Status:    StatusReceived,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies business validation rules.
func (o *Order) Validate() error {
	if o.ID == "" {
		return errors.New("order id is required")
	}
	if o.MenuID == "" {
		return errors.New("menu id is required")
	}
	if o.UserID == "" {
		return errors.New("user id is required")
	}
	if o.Quantity < 1 || o.Quantity > 100 {
		return errors.New("quantity must be 1-100")
	}
	if o.Amount < 0.01 {
		return errors.New("amount must be at least 0.01")
	}
	if o.OrderDate.IsZero() {
		return errors.New("order date is required")
	}
	return nil
}

// TransitionTo moves the order to a new status. Only forward movement
// through the fixed enumeration is allowed.
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, newStatus)
	}

	o.Status = newStatus
	o.UpdatedAt = time.Now()
	return nil
}

// CanTransitionTo checks if the order can move to the new status.
func (o *Order) CanTransitionTo(newStatus Status) bool {
	cur, ok := statusRank[o.Status]
	if !ok {
		return false
	}
	next, ok := statusRank[newStatus]
	if !ok {
		return false
	}
	return next > cur
}
