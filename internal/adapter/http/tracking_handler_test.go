package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type fakeTrackingService struct {
	orders map[string]*domain.Order
	execs  map[string]*domain.WorkflowExecution
}

func (f *fakeTrackingService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeTrackingService) GetOrderStatus(ctx context.Context, orderID string) (*interfaces.TrackingStatusResponse, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	resp := &interfaces.TrackingStatusResponse{
		OrderID:   order.ID,
		Status:    order.Status,
		UpdatedAt: order.UpdatedAt,
	}
	if exec, ok := f.execs[orderID]; ok {
		resp.ExecutionStatus = exec.Status
		resp.Deadline = exec.Deadline
	}
	return resp, nil
}

func (f *fakeTrackingService) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func trackingRouter(t *testing.T) http.Handler {
	t.Helper()
	order, err := domain.NewOrder("order-1", "menu-1", "user-1", 1, 9.99, time.Now())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	order.Status = domain.StatusPreparing

	svc := &fakeTrackingService{
		orders: map[string]*domain.Order{"order-1": order},
		execs: map[string]*domain.WorkflowExecution{
			"order-1": domain.NewWorkflowExecution("order-1", time.Now().Add(15*time.Minute)),
		},
	}
	svc.execs["order-1"].Status = domain.ExecutionSuspended

	r := chi.NewRouter()
	NewTrackingHandler(svc, nopLogger{}).RegisterRoutes(r)
	return r
}

func doGet(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetOrder(t *testing.T) {
	rec := doGet(t, trackingRouter(t), "/order/order-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["order_id"] != "order-1" {
		t.Errorf("expected order_id order-1, got %v", resp["order_id"])
	}
	if resp["status"] != string(domain.StatusPreparing) {
		t.Errorf("expected status PREPARING, got %v", resp["status"])
	}
}

func TestGetOrderNotFound(t *testing.T) {
	rec := doGet(t, trackingRouter(t), "/order/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetOrderStatusIncludesExecution(t *testing.T) {
	rec := doGet(t, trackingRouter(t), "/order/order-1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["execution_status"] != string(domain.ExecutionSuspended) {
		t.Errorf("expected execution_status SUSPENDED, got %v", resp["execution_status"])
	}
	if _, ok := resp["deadline"]; !ok {
		t.Error("expected deadline in status response")
	}
}

func TestListOrdersByUser(t *testing.T) {
	rec := doGet(t, trackingRouter(t), "/user/user-1/orders")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected one order, got %d", len(resp))
	}

	empty := doGet(t, trackingRouter(t), "/user/nobody/orders")
	var none []map[string]interface{}
	if err := json.Unmarshal(empty.Body.Bytes(), &none); err != nil {
		t.Fatalf("decode empty response: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no orders, got %d", len(none))
	}
}
