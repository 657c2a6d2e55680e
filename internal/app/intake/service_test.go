package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud-restaurant/internal/adapter/memory"
	"cloud-restaurant/internal/app/fulfillment"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

type countingProcessor struct {
	mu      sync.Mutex
	charges int
}

func (p *countingProcessor) Charge(ctx context.Context, req interfaces.PaymentRequest) (*domain.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges++
	return &domain.Payment{
		PaymentID: "pay-1",
		OrderID:   req.OrderID,
		Date:      time.Now(),
		Amount:    req.Amount,
		Status:    domain.PaymentSuccessful,
	}, nil
}

func (p *countingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.charges
}

func newTestService(store *memory.Store, processor interfaces.PaymentProcessor) *Service {
	retry := fulfillment.RetryPolicy{MaxAttempts: 1, InitialInterval: time.Millisecond}
	interp := fulfillment.NewInterpreter(store, store, processor, nil, nopLogger{}, retry)
	return NewService(store, interp, nopLogger{}, 15*time.Minute)
}

func orderMsg(id string) interfaces.OrderMessage {
	return interfaces.OrderMessage{
		OrderID:   id,
		MenuID:    "menu-1",
		UserID:    "user-1",
		Quantity:  2,
		Amount:    25.50,
		OrderDate: time.Now(),
		Status:    string(domain.StatusReceived),
	}
}

func TestHandleOrderMessageStartsWorkflow(t *testing.T) {
	store := memory.NewStore()
	processor := &countingProcessor{}
	svc := newTestService(store, processor)
	ctx := context.Background()

	if err := svc.HandleOrderMessage(ctx, orderMsg("order-1")); err != nil {
		t.Fatalf("HandleOrderMessage: %v", err)
	}

	exec, err := store.FindByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("FindByOrderID: %v", err)
	}
	if exec.Status != domain.ExecutionSuspended {
		t.Errorf("expected SUSPENDED after intake, got %s", exec.Status)
	}
	if processor.count() != 1 {
		t.Errorf("expected one charge, got %d", processor.count())
	}
}

func TestHandleOrderMessageDeduplicates(t *testing.T) {
	store := memory.NewStore()
	processor := &countingProcessor{}
	svc := newTestService(store, processor)
	ctx := context.Background()

	msg := orderMsg("order-1")
	for i := 0; i < 3; i++ {
		if err := svc.HandleOrderMessage(ctx, msg); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	if processor.count() != 1 {
		t.Errorf("redelivery must not charge again, got %d charges", processor.count())
	}
	if tasks := store.TasksForOrder(ctx, "order-1"); len(tasks) != 1 {
		t.Errorf("redelivery must not mint more tasks, got %d", len(tasks))
	}
}

func TestHandleOrderMessageConcurrentDeliveries(t *testing.T) {
	store := memory.NewStore()
	processor := &countingProcessor{}
	svc := newTestService(store, processor)
	ctx := context.Background()

	msg := orderMsg("order-1")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.HandleOrderMessage(ctx, msg); err != nil {
				t.Errorf("HandleOrderMessage: %v", err)
			}
		}()
	}
	wg.Wait()

	if processor.count() != 1 {
		t.Errorf("concurrent deliveries must charge exactly once, got %d", processor.count())
	}
	if tasks := store.TasksForOrder(ctx, "order-1"); len(tasks) != 1 {
		t.Errorf("concurrent deliveries must mint exactly one task, got %d", len(tasks))
	}
	exec, _ := store.FindByOrderID(ctx, "order-1")
	if exec.Status != domain.ExecutionSuspended {
		t.Errorf("expected SUSPENDED, got %s", exec.Status)
	}
}

func TestHandleOrderMessageRejectsBadMessage(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, &countingProcessor{})
	ctx := context.Background()

	msg := orderMsg("order-1")
	msg.Quantity = 0
	err := svc.HandleOrderMessage(ctx, msg)
	if !errors.Is(err, domain.ErrBadMessage) {
		t.Fatalf("expected ErrBadMessage, got %v", err)
	}

	if _, err := store.FindByOrderID(ctx, "order-1"); !errors.Is(err, domain.ErrExecutionNotFound) {
		t.Error("bad message must not create an execution")
	}
}

func TestHandleOrderMessageDistinctOrders(t *testing.T) {
	store := memory.NewStore()
	processor := &countingProcessor{}
	svc := newTestService(store, processor)
	ctx := context.Background()

	for _, id := range []string{"order-1", "order-2"} {
		if err := svc.HandleOrderMessage(ctx, orderMsg(id)); err != nil {
			t.Fatalf("HandleOrderMessage(%s): %v", id, err)
		}
	}

	if processor.count() != 2 {
		t.Errorf("distinct orders get their own workflows, got %d charges", processor.count())
	}
}
