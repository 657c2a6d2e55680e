package preparation

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

type okProcessor struct{}

func (okProcessor) Charge(ctx context.Context, req interfaces.PaymentRequest) (*domain.Payment, error) {
	return &domain.Payment{
		PaymentID: "pay-1",
		OrderID:   req.OrderID,
		Date:      time.Now(),
		Amount:    req.Amount,
		Status:    domain.PaymentSuccessful,
	}, nil
}

// suspendedFixture drives a fresh execution to its suspend point and
// returns the pending task waiting on the kitchen.
func suspendedFixture(t *testing.T, deadline time.Duration) (*Service, *memory.Store, *domain.PendingTask) {
	t.Helper()
	store := memory.NewStore()
	retry := fulfillment.RetryPolicy{MaxAttempts: 1, InitialInterval: time.Millisecond}
	interp := fulfillment.NewInterpreter(store, store, okProcessor{}, nil, nopLogger{}, retry)
	svc := NewService(store, store, interp, nopLogger{})

	ctx := context.Background()
	if _, _, err := store.CreateIfAbsent(ctx, "order-1", time.Now().Add(deadline)); err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	draft, err := domain.NewOrder("order-1", "menu-1", "user-1", 1, 9.99, time.Now())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := interp.Run(ctx, "order-1", draft); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tasks := store.TasksForOrder(ctx, "order-1")
	if len(tasks) != 1 {
		t.Fatalf("expected one pending task, got %d", len(tasks))
	}
	return svc, store, tasks[0]
}

func TestStartPreparationMarksTask(t *testing.T) {
	svc, store, task := suspendedFixture(t, 15*time.Minute)
	ctx := context.Background()

	orderID, err := svc.StartPreparation(ctx, task.TaskID, task.Token)
	if err != nil {
		t.Fatalf("StartPreparation: %v", err)
	}
	if orderID != "order-1" {
		t.Errorf("expected order-1, got %s", orderID)
	}

	got, _ := store.FindTask(ctx, task.TaskID)
	if got.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}
	first := *got.StartedAt

	// Repeating the call neither errors nor moves the timestamp.
	if _, err := svc.StartPreparation(ctx, task.TaskID, task.Token); err != nil {
		t.Fatalf("repeated StartPreparation: %v", err)
	}
	got, _ = store.FindTask(ctx, task.TaskID)
	if !got.StartedAt.Equal(first) {
		t.Error("repeated start must not move started_at")
	}
	if got.Resolved {
		t.Error("start must never resolve the task")
	}
}

func TestFinishPreparationResolvesAndCompletes(t *testing.T) {
	svc, store, task := suspendedFixture(t, 15*time.Minute)
	ctx := context.Background()

	orderID, err := svc.FinishPreparation(ctx, task.TaskID, task.Token)
	if err != nil {
		t.Fatalf("FinishPreparation: %v", err)
	}
	if orderID != "order-1" {
		t.Errorf("expected order-1, got %s", orderID)
	}

	exec, _ := store.FindByOrderID(ctx, "order-1")
	if exec.Status != domain.ExecutionCompleted {
		t.Errorf("expected COMPLETED, got %s", exec.Status)
	}
	order, _ := store.FindOrder(ctx, "order-1")
	if order.Status != domain.StatusReadyForPickup {
		t.Errorf("expected READY_FOR_PICKUP, got %s", order.Status)
	}
	got, _ := store.FindTask(ctx, task.TaskID)
	if !got.Resolved {
		t.Error("task should be resolved")
	}
}

func TestFinishPreparationSecondCallConflicts(t *testing.T) {
	svc, store, task := suspendedFixture(t, 15*time.Minute)
	ctx := context.Background()

	if _, err := svc.FinishPreparation(ctx, task.TaskID, task.Token); err != nil {
		t.Fatalf("first FinishPreparation: %v", err)
	}

	_, err := svc.FinishPreparation(ctx, task.TaskID, task.Token)
	if !errors.Is(err, domain.ErrTaskAlreadyResolved) {
		t.Fatalf("expected ErrTaskAlreadyResolved, got %v", err)
	}

	exec, _ := store.FindByOrderID(ctx, "order-1")
	if exec.Status != domain.ExecutionCompleted {
		t.Errorf("duplicate finish must not disturb the execution, got %s", exec.Status)
	}
}

func TestFinishPreparationConcurrentCallbacks(t *testing.T) {
	svc, store, task := suspendedFixture(t, 15*time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.FinishPreparation(ctx, task.TaskID, task.Token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("exactly one callback may win, got %d", wins)
	}
	exec, _ := store.FindByOrderID(ctx, "order-1")
	if exec.Status != domain.ExecutionCompleted {
		t.Errorf("expected COMPLETED, got %s", exec.Status)
	}
}

func TestCallbacksRejectBadToken(t *testing.T) {
	svc, _, task := suspendedFixture(t, 15*time.Minute)
	ctx := context.Background()

	if _, err := svc.StartPreparation(ctx, task.TaskID, "wrong-token"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("bad token on start: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.FinishPreparation(ctx, task.TaskID, "wrong-token"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("bad token on finish: expected ErrTaskNotFound, got %v", err)
	}
}

func TestCallbacksRejectUnknownTask(t *testing.T) {
	svc, _, task := suspendedFixture(t, 15*time.Minute)
	ctx := context.Background()

	if _, err := svc.FinishPreparation(ctx, "no-such-task", task.Token); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestCallbackAfterDeadlineTimesOutExecution(t *testing.T) {
	svc, store, task := suspendedFixture(t, time.Millisecond)
	ctx := context.Background()

	time.Sleep(5 * time.Millisecond)

	_, err := svc.FinishPreparation(ctx, task.TaskID, task.Token)
	if !errors.Is(err, domain.ErrTaskExpired) {
		t.Fatalf("expected ErrTaskExpired, got %v", err)
	}

	exec, _ := store.FindByOrderID(ctx, "order-1")
	if exec.Status != domain.ExecutionTimedOut {
		t.Errorf("expected TIMED_OUT, got %s", exec.Status)
	}
	got, _ := store.FindTask(ctx, task.TaskID)
	if got.Resolved {
		t.Error("expired task must not be resolved")
	}

	// Subsequent callbacks hit the terminal execution.
	if _, err := svc.StartPreparation(ctx, task.TaskID, task.Token); !errors.Is(err, domain.ErrTaskExpired) {
		t.Errorf("expected ErrTaskExpired on terminal execution, got %v", err)
	}
}
