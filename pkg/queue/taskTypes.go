package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Queue is the delayed-task queue used to schedule hold-expiry sweeps.
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}

type TaskType string

const (
	// TaskTypeExpireHolds runs the hold-expiry sweep for one event. A task
	// is scheduled at reserved_until for every hold so expiry latency does
	// not depend solely on the periodic sweep.
	TaskTypeExpireHolds TaskType = "expire_holds"

	// TaskTypeInvalidateStats drops the cached seat statistics for an event.
	TaskTypeInvalidateStats TaskType = "invalidate_seat_stats"
)

// Task represents a unit of work in the queue.
type Task struct {
	ID         string                 `json:"id"`
	Type       TaskType               `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	CreatedAt  time.Time              `json:"created_at"`
	Attempts   int                    `json:"attempts"`
	MaxRetries int                    `json:"max_retries"`
}

// Validate checks if the task is valid.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task ID is required")
	}
	if strings.TrimSpace(string(t.Type)) == "" {
		return fmt.Errorf("task type is required")
	}
	if t.Data == nil {
		t.Data = make(map[string]interface{})
	}
	return nil
}

// GetInt64 returns an int64 value from task data. JSON round-trips numbers
// as float64, so both are accepted.
func (t *Task) GetInt64(key string) int64 {
	if val, ok := t.Data[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetString returns a string value from task data.
func (t *Task) GetString(key string) string {
	if val, ok := t.Data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
