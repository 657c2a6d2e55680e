package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskKind string

const (
	TaskKindPreparation TaskKind = "preparation"
)

// PendingTask is the persisted continuation of a suspended execution.
// Its token is a bearer secret granted to one external party, permitting
// exactly one resumption of the suspended step.
type PendingTask struct {
	TaskID    string
	OrderID   string
	Token     string
	Kind      TaskKind
	CreatedAt time.Time
	StartedAt *time.Time
	Resolved  bool
}

// NewPendingTask mints a task with a fresh id and an opaque token.
func NewPendingTask(orderID string, kind TaskKind) (*PendingTask, error) {
	token, err := newTaskToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task token: %w", err)
	}

	return &PendingTask{
		TaskID:    uuid.NewString(),
		OrderID:   orderID,
		Token:     token,
		Kind:      kind,
		CreatedAt: time.Now(),
	}, nil
}

// MarkStarted records when the external party began working the task.
// Only the first call takes effect.
func (t *PendingTask) MarkStarted(now time.Time) {
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
}

// newTaskToken returns 32 bytes of crypto randomness, URL-safe encoded.
func newTaskToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
