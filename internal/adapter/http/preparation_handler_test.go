package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"cloud-restaurant/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

// fakePreparationService validates a single task/token pair.
type fakePreparationService struct {
	taskID  string
	token   string
	orderID string
	err     error

	startCalls  int
	finishCalls int
}

func (f *fakePreparationService) check(taskID, token string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if taskID != f.taskID || token != f.token {
		return "", domain.ErrTaskNotFound
	}
	return f.orderID, nil
}

func (f *fakePreparationService) StartPreparation(ctx context.Context, taskID, token string) (string, error) {
	f.startCalls++
	return f.check(taskID, token)
}

func (f *fakePreparationService) FinishPreparation(ctx context.Context, taskID, token string) (string, error) {
	f.finishCalls++
	return f.check(taskID, token)
}

func preparationRouter(svc *fakePreparationService) http.Handler {
	r := chi.NewRouter()
	NewPreparationHandler(svc, nopLogger{}).RegisterRoutes(r)
	return r
}

func doPut(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestInProgressSuccess(t *testing.T) {
	svc := &fakePreparationService{taskID: "task-1", token: "secret", orderID: "order-1"}
	rec := doPut(t, preparationRouter(svc), "/order/task-1/in-progress", "secret")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OrderTaskID != "task-1" || resp.OrderID != "order-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if svc.startCalls != 1 || svc.finishCalls != 0 {
		t.Errorf("expected one start call, got start=%d finish=%d", svc.startCalls, svc.finishCalls)
	}
}

func TestPreparationFinishedSuccess(t *testing.T) {
	svc := &fakePreparationService{taskID: "task-1", token: "secret", orderID: "order-1"}
	rec := doPut(t, preparationRouter(svc), "/order/task-1/preparation-finished", "secret")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.finishCalls != 1 {
		t.Errorf("expected one finish call, got %d", svc.finishCalls)
	}
}

func TestCallbackMissingAuthorization(t *testing.T) {
	svc := &fakePreparationService{taskID: "task-1", token: "secret", orderID: "order-1"}
	rec := doPut(t, preparationRouter(svc), "/order/task-1/in-progress", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if svc.startCalls != 0 {
		t.Error("service must not be called without a token")
	}
}

func TestCallbackErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown task", domain.ErrTaskNotFound, http.StatusNotFound},
		{"already resolved", domain.ErrTaskAlreadyResolved, http.StatusConflict},
		{"expired", domain.ErrTaskExpired, http.StatusGone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakePreparationService{err: tc.err}
			rec := doPut(t, preparationRouter(svc), "/order/task-1/preparation-finished", "whatever")
			if rec.Code != tc.code {
				t.Errorf("expected %d, got %d", tc.code, rec.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error == "" {
				t.Error("expected an error message in the body")
			}
		})
	}
}

func TestCallbackBadTokenLooksLikeUnknownTask(t *testing.T) {
	svc := &fakePreparationService{taskID: "task-1", token: "secret", orderID: "order-1"}
	router := preparationRouter(svc)

	wrongToken := doPut(t, router, "/order/task-1/preparation-finished", "guess")
	wrongTask := doPut(t, router, "/order/no-such-task/preparation-finished", "secret")

	if wrongToken.Code != http.StatusNotFound || wrongTask.Code != http.StatusNotFound {
		t.Errorf("expected 404 for both, got %d and %d", wrongToken.Code, wrongTask.Code)
	}
	if wrongToken.Body.String() != wrongTask.Body.String() {
		t.Error("bad token and unknown task must be indistinguishable")
	}
}
