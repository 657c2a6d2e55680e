package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

// Store is an in-memory implementation of the execution, task and order
// repositories. It mirrors the conditional-write semantics of the
// postgres adapter and backs both the engine tests and local runs with
// `store.backend: memory`.
type Store struct {
	mu         sync.RWMutex
	executions map[string]*domain.WorkflowExecution // keyed by order id
	orders     map[string]*domain.Order             // keyed by order id
	tasks      map[string]*domain.PendingTask       // keyed by task id
	payments   map[string]*domain.Payment           // keyed by payment id
}

func NewStore() *Store {
	return &Store{
		executions: make(map[string]*domain.WorkflowExecution),
		orders:     make(map[string]*domain.Order),
		tasks:      make(map[string]*domain.PendingTask),
		payments:   make(map[string]*domain.Payment),
	}
}

var (
	_ interfaces.ExecutionRepository = (*Store)(nil)
	_ interfaces.TaskRepository      = (*Store)(nil)
	_ interfaces.OrderRepository     = (*Store)(nil)
)

func (s *Store) CreateIfAbsent(ctx context.Context, orderID string, deadline time.Time) (*domain.WorkflowExecution, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.executions[orderID]; ok {
		cp := *existing
		return &cp, false, nil
	}

	exec := domain.NewWorkflowExecution(orderID, deadline)
	s.executions[orderID] = exec

	cp := *exec
	return &cp, true, nil
}

func (s *Store) FindByOrderID(ctx context.Context, orderID string) (*domain.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[orderID]
	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	cp := *exec
	return &cp, nil
}

func (s *Store) CommitStep(ctx context.Context, orderID string, expectedVersion int64, commit interfaces.StepCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[orderID]
	if !ok {
		return domain.ErrExecutionNotFound
	}
	// A terminal execution never mutates again; a stale version means a
	// concurrent commit already advanced the cursor. Both are benign.
	if exec.Status.Terminal() || exec.Version != expectedVersion {
		return domain.ErrCursorConflict
	}

	// Validate the full commit before applying any of it.
	if commit.CreateTask != nil {
		for _, t := range s.tasks {
			if t.OrderID == orderID && !t.Resolved {
				return domain.ErrTaskConflict
			}
		}
	}
	if commit.ResolveTaskID != "" {
		task, ok := s.tasks[commit.ResolveTaskID]
		if !ok {
			return domain.ErrTaskNotFound
		}
		if task.Resolved {
			return domain.ErrTaskAlreadyResolved
		}
	}
	if commit.OrderStatus != nil && commit.PutOrder == nil {
		if _, ok := s.orders[orderID]; !ok {
			return domain.ErrOrderNotFound
		}
	}

	exec.Cursor = commit.NewCursor
	exec.Version++
	exec.Status = commit.Status

	if commit.PutOrder != nil {
		if _, ok := s.orders[commit.PutOrder.ID]; !ok {
			cp := *commit.PutOrder
			s.orders[cp.ID] = &cp
		}
	}
	if commit.OrderStatus != nil {
		order := s.orders[orderID]
		order.Status = *commit.OrderStatus
		order.UpdatedAt = time.Now()
	}
	if commit.Payment != nil {
		cp := *commit.Payment
		s.payments[cp.PaymentID] = &cp
	}
	if commit.CreateTask != nil {
		cp := *commit.CreateTask
		s.tasks[cp.TaskID] = &cp
	}
	if commit.ResolveTaskID != "" {
		s.tasks[commit.ResolveTaskID].Resolved = true
	}

	return nil
}

func (s *Store) FindTask(ctx context.Context, taskID string) (*domain.PendingTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *task
	if task.StartedAt != nil {
		t := *task.StartedAt
		cp.StartedAt = &t
	}
	return &cp, nil
}

func (s *Store) MarkStarted(ctx context.Context, taskID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.MarkStarted(now)
	return nil
}

// FindOrder serves the tracking read side.
func (s *Store) FindOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.Before(orders[j].OrderDate)
	})
	return orders, nil
}

// TasksForOrder returns all tasks minted for an order.
func (s *Store) TasksForOrder(ctx context.Context, orderID string) []*domain.PendingTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PendingTask
	for _, t := range s.tasks {
		if t.OrderID == orderID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// PaymentsForOrder returns all payment records held for an order.
func (s *Store) PaymentsForOrder(ctx context.Context, orderID string) []*domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}
