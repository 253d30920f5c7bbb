package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"amenpay/internal/pkg/errs"
)

// Operational queue names; routing matters for worker sizing and dashboards.
const (
	QueuePayments      = "payments"
	QueueNotifications = "notifications"
)

// Task is the unit of work moved through a queue. Attempts and Exceptions
// are carried on the task itself so the retry budget survives re-delivery
// across worker processes.
type Task struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	Exceptions int             `json:"exceptions"`
	ExecuteAt  time.Time       `json:"execute_at"`
	Tags       []string        `json:"tags,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	// receipt is the raw wire form used to remove the task from the
	// processing list on ack; never serialized.
	receipt string
}

func NewTask(queueName, taskType string, payload any, tags ...string) (*Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "failed to marshal task payload")
	}
	return &Task{
		ID:         uuid.NewString(),
		Queue:      queueName,
		Type:       taskType,
		Payload:    body,
		Tags:       tags,
		EnqueuedAt: time.Now(),
	}, nil
}

func (t *Task) DecodePayload(target any) error {
	if err := json.Unmarshal(t.Payload, target); err != nil {
		return errs.Wrap(err, "failed to decode task payload")
	}
	return nil
}
