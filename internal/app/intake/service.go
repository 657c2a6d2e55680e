package intake

import (
	"context"
	"fmt"
	"time"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/app/fulfillment"
	"cloud-restaurant/internal/domain"
	"cloud-restaurant/internal/interfaces"
)

// Service turns inbound, possibly-duplicated order messages into at
// most one workflow start per order. Deduplication rides on the store's
// conditional create, not on broker guarantees.
type Service struct {
	executions  interfaces.ExecutionRepository
	interpreter *fulfillment.Interpreter
	logger      logger.Logger
	deadline    time.Duration
}

func NewService(
	executions interfaces.ExecutionRepository,
	interpreter *fulfillment.Interpreter,
	lgr logger.Logger,
	deadline time.Duration,
) *Service {
	return &Service{
		executions:  executions,
		interpreter: interpreter,
		logger:      lgr,
		deadline:    deadline,
	}
}

// HandleOrderMessage processes one delivery. A nil return acknowledges
// the message; an error wrapping domain.ErrBadMessage routes it to the
// dead-letter queue, and any other error leaves it for redelivery.
func (s *Service) HandleOrderMessage(ctx context.Context, msg interfaces.OrderMessage) error {
	draft, err := domain.NewOrder(msg.OrderID, msg.MenuID, msg.UserID, msg.Quantity, msg.Amount, msg.OrderDate)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadMessage, err)
	}

	exec, created, err := s.executions.CreateIfAbsent(ctx, draft.ID, time.Now().Add(s.deadline))
	if err != nil {
		// Store unreachable: do not acknowledge, let the queue retry.
		return fmt.Errorf("failed to create execution: %w", err)
	}

	if created {
		s.logger.Info("execution_started", "Workflow execution created", draft.ID, map[string]interface{}{
			"deadline": exec.Deadline,
		})
		return s.interpreter.Run(ctx, draft.ID, draft)
	}

	// Duplicate delivery. If the execution is still in its pre-suspend
	// region the first delivery may have died before committing, so run
	// the idempotent loop again with the draft; conflicts are benign.
	if exec.Status == domain.ExecutionRunning {
		s.logger.Debug("duplicate_reconciled", "Duplicate message re-entered running execution", draft.ID, map[string]interface{}{
			"cursor": exec.Cursor,
		})
		return s.interpreter.Run(ctx, draft.ID, draft)
	}

	s.logger.Info("duplicate_discarded", "Duplicate order message dropped", draft.ID, map[string]interface{}{
		"execution_status": string(exec.Status),
	})
	return nil
}
