package queue

import (
	"math/rand"
	"strings"
	"time"
)

// RetryManager manages retry logic for failed tasks.
type RetryManager struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewRetryManager(maxRetries int, baseDelay time.Duration) *RetryManager {
	return &RetryManager{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16,
	}
}

// ShouldRetry determines if a task should be retried and returns the delay.
func (r *RetryManager) ShouldRetry(task *Task, err error) (bool, time.Duration) {
	if task.Attempts >= task.MaxRetries {
		return false, 0
	}
	if !r.isRetryableError(err) {
		return false, 0
	}
	return true, r.Backoff(task.Attempts)
}

// isRetryableError rejects errors that will fail the same way on every
// attempt. Seat-state conflicts are permanent from the queue's point of
// view: the sweep already ran, re-running it changes nothing.
func (r *RetryManager) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	nonRetryable := []string{
		"invalid",
		"not found",
		"validation",
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range nonRetryable {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}

	return true
}

// Backoff calculates exponential backoff delay with jitter.
func (r *RetryManager) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return r.baseDelay
	}

	backoff := r.baseDelay * time.Duration(1<<(attempt-1))

	// ±25% jitter
	jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
	if rand.Intn(2) == 0 {
		backoff += jitter
	} else {
		backoff -= jitter
	}

	if backoff > r.maxDelay {
		backoff = r.maxDelay
	}

	return backoff
}
