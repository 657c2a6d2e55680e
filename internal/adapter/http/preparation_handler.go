package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type PreparationHandler struct {
	service interfaces.PreparationService
	logger  logger.Logger
}

func NewPreparationHandler(service interfaces.PreparationService, logger logger.Logger) *PreparationHandler {
	return &PreparationHandler{
		service: service,
		logger:  logger,
	}
}

type TaskResponse struct {
	OrderTaskID string `json:"order_task_id"`
	OrderID     string `json:"order_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *PreparationHandler) RegisterRoutes(r chi.Router) {
	r.Put("/order/{taskId}/in-progress", h.InProgress)
	r.Put("/order/{taskId}/preparation-finished", h.PreparationFinished)
}

func (h *PreparationHandler) InProgress(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, "Missing or malformed Authorization header", http.StatusUnauthorized)
		return
	}

	orderID, err := h.service.StartPreparation(r.Context(), taskID, token)
	if err != nil {
		h.respondTaskError(w, taskID, "preparation_start_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, TaskResponse{OrderTaskID: taskID, OrderID: orderID})
}

func (h *PreparationHandler) PreparationFinished(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, "Missing or malformed Authorization header", http.StatusUnauthorized)
		return
	}

	orderID, err := h.service.FinishPreparation(r.Context(), taskID, token)
	if err != nil {
		h.respondTaskError(w, taskID, "preparation_finish_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, TaskResponse{OrderTaskID: taskID, OrderID: orderID})
}

func (h *PreparationHandler) respondTaskError(w http.ResponseWriter, taskID, action string, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		// Unknown task and bad token answer identically.
		respondError(w, "Task not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrTaskAlreadyResolved):
		respondError(w, "Task already resolved", http.StatusConflict)
	case errors.Is(err, domain.ErrTaskExpired):
		respondError(w, "Task expired", http.StatusGone)
	default:
		h.logger.Error(action, "Failed to handle preparation callback", taskID, nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(auth, prefix)
	if token == "" {
		return "", false
	}
	return token, true
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, msg string, status int) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}
