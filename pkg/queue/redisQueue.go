package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
)

// RedisQueue implements Queue on top of Redis: a sorted set holds delayed
// tasks keyed by execution time, a list holds ready tasks, and tasks that
// exhaust their retries land in a dead-letter list for inspection.
type RedisQueue struct {
	client       *redis.Client
	mainQueue    string
	delayedQueue string
	dlq          string
	retryManager *RetryManager
	queueTimeout time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// RedisQueueConfig contains configuration for RedisQueue.
type RedisQueueConfig struct {
	MainQueue    string
	DelayedQueue string
	DLQ          string
	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
}

// DefaultRedisQueueConfig returns default configuration.
func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		MainQueue:    "seat_settlement:tasks",
		DelayedQueue: "seat_settlement:tasks:delayed",
		DLQ:          "seat_settlement:dlq",
		MaxRetries:   defaultMaxRetries,
		BaseDelay:    defaultBaseDelay,
		QueueTimeout: defaultQueueTimeout,
	}
}

// NewRedisQueue creates a new RedisQueue on an existing client.
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig, retryManager *RetryManager) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}
	if retryManager == nil {
		retryManager = NewRetryManager(cfg.MaxRetries, cfg.BaseDelay)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Infof("RedisQueue initialized: main=%s, delayed=%s, dlq=%s",
		cfg.MainQueue, cfg.DelayedQueue, cfg.DLQ)

	return &RedisQueue{
		client:       client,
		mainQueue:    cfg.MainQueue,
		delayedQueue: cfg.DelayedQueue,
		dlq:          cfg.DLQ,
		retryManager: retryManager,
		queueTimeout: cfg.QueueTimeout,
		stopChan:     make(chan struct{}),
	}, nil
}

// Publish sends a task to the queue. Tasks with a future ExecuteAt go to
// the delayed set; everything else is ready immediately.
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.retryManager.maxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if !task.ExecuteAt.IsZero() && task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		if err := r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  score,
			Member: taskData,
		}).Err(); err != nil {
			return fmt.Errorf("failed to publish delayed task: %w", err)
		}
		logrus.Debugf("Task %s scheduled for %s", task.ID, task.ExecuteAt.Format(time.RFC3339))
		return nil
	}

	if err := r.client.LPush(ctx, r.mainQueue, taskData).Err(); err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}
	logrus.Debugf("Task %s published", task.ID)
	return nil
}

// Subscribe starts consuming tasks from the queue.
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	logrus.Info("RedisQueue subscriber started")
	return nil
}

func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
			if err := r.consumeOne(ctx, handler); err != nil {
				logrus.Errorf("Error consuming task: %v", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (r *RedisQueue) consumeOne(ctx context.Context, handler func(*Task) error) error {
	taskData, err := r.client.BRPop(ctx, r.queueTimeout, r.mainQueue).Result()
	if err == redis.Nil {
		return nil // timeout, no tasks
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop task: %w", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(taskData[1]), &task); err != nil {
		logrus.Errorf("Failed to unmarshal task, moving to DLQ: %v", err)
		r.moveToDLQ(ctx, taskData[1], err)
		return nil
	}

	task.Attempts++
	if err := handler(&task); err != nil {
		if retry, delay := r.retryManager.ShouldRetry(&task, err); retry {
			task.ExecuteAt = time.Now().Add(delay)
			logrus.Warnf("Task %s failed (attempt %d), retrying in %s: %v",
				task.ID, task.Attempts, delay, err)
			return r.Publish(ctx, &task)
		}
		logrus.Errorf("Task %s failed after %d attempts: %v", task.ID, task.Attempts, err)
		data, _ := json.Marshal(&task)
		r.moveToDLQ(ctx, string(data), err)
	}
	return nil
}

// processDelayedTasks moves ready delayed tasks to the main queue.
func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.moveReadyDelayedTasks(ctx); err != nil {
				logrus.Errorf("Failed to process delayed tasks: %v", err)
			}
		}
	}
}

func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context) error {
	now := float64(time.Now().UnixNano()) / 1e9

	tasks, err := r.client.ZRangeByScore(ctx, r.delayedQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed tasks: %w", err)
	}

	for _, taskData := range tasks {
		pipe := r.client.TxPipeline()
		pipe.ZRem(ctx, r.delayedQueue, taskData)
		pipe.LPush(ctx, r.mainQueue, taskData)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to move delayed task: %w", err)
		}
	}
	return nil
}

func (r *RedisQueue) moveToDLQ(ctx context.Context, taskData string, cause error) {
	entry, _ := json.Marshal(map[string]interface{}{
		"task":      taskData,
		"error":     cause.Error(),
		"failed_at": time.Now().Format(time.RFC3339),
	})
	if err := r.client.LPush(ctx, r.dlq, entry).Err(); err != nil {
		logrus.Errorf("Failed to move task to DLQ: %v", err)
	}
}

// Close stops the background processors.
func (r *RedisQueue) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
	return nil
}
