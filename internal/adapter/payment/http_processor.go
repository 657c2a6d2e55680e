// Package payment is the HTTP client for the external payment collaborator.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud-restaurant/internal/config"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

type httpProcessor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProcessor(cfg config.PaymentConfig) interfaces.PaymentProcessor {
	return &httpProcessor{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type chargeResponse struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Date      time.Time `json:"payment_date"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
}

// Charge posts the payment request. The idempotency key makes a retried
// call return the original record instead of charging twice.
func (p *httpProcessor) Charge(ctx context.Context, req interfaces.PaymentRequest) (*domain.Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out chargeResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, fmt.Errorf("decode charge response: %w", err)
		}
		payment := &domain.Payment{
			PaymentID: out.PaymentID,
			OrderID:   out.OrderID,
			Date:      out.Date,
			Amount:    out.Amount,
			Status:    domain.PaymentStatus(out.Status),
		}
		if payment.Status == domain.PaymentFailed {
			return nil, fmt.Errorf("%w: order %s", domain.ErrPaymentDeclined, req.OrderID)
		}
		return payment, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrPaymentDeclined, resp.StatusCode, string(respBody))

	default:
		return nil, fmt.Errorf("payment request failed: status %d: %s", resp.StatusCode, string(respBody))
	}
}
