package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/order/{orderId}", h.GetOrder)
	r.Get("/order/{orderId}/status", h.GetOrderStatus)
	r.Get("/user/{userId}/orders", h.ListOrdersByUser)
}

func (h *TrackingHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.respondLookupError(w, orderID, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	result, err := h.service.GetOrderStatus(r.Context(), orderID)
	if err != nil {
		h.respondLookupError(w, orderID, err)
		return
	}

	resp := map[string]interface{}{
		"order_id":         result.OrderID,
		"status":           result.Status,
		"execution_status": result.ExecutionStatus,
		"updated_at":       result.UpdatedAt,
	}
	if !result.Deadline.IsZero() {
		resp["deadline"] = result.Deadline
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	orders, err := h.service.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("order_list_failed", "Failed to list orders", userID, nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]map[string]interface{}, len(orders))
	for i, order := range orders {
		resp[i] = orderResponse(order)
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) respondLookupError(w http.ResponseWriter, orderID string, err error) {
	if errors.Is(err, domain.ErrOrderNotFound) {
		respondError(w, "Order not found", http.StatusNotFound)
		return
	}
	h.logger.Error("order_lookup_failed", "Failed to look up order", orderID, nil, err)
	respondError(w, "Internal server error", http.StatusInternalServerError)
}

func orderResponse(order *domain.Order) map[string]interface{} {
	return map[string]interface{}{
		"order_id":   order.ID,
		"menu_id":    order.MenuID,
		"user_id":    order.UserID,
		"quantity":   order.Quantity,
		"amount":     order.Amount,
		"order_date": order.OrderDate,
		"status":     order.Status,
		"updated_at": order.UpdatedAt,
	}
}
