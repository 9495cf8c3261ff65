package worker

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	cache "github.com/ds124wfegd/seat-settlement/internal/database/redis"
	"github.com/ds124wfegd/seat-settlement/internal/service"
	"github.com/ds124wfegd/seat-settlement/pkg/queue"
)

// HoldExpiryWorker consumes queue tasks scheduled at hold creation time,
// so a lapsed hold is released close to its deadline instead of waiting
// for the next periodic sweep.
type HoldExpiryWorker struct {
	seatService service.EventSeatService
	taskQueue   queue.Queue
	statsCache  *cache.StatisticsCache
}

func NewHoldExpiryWorker(seatService service.EventSeatService, taskQueue queue.Queue, statsCache *cache.StatisticsCache) *HoldExpiryWorker {
	return &HoldExpiryWorker{
		seatService: seatService,
		taskQueue:   taskQueue,
		statsCache:  statsCache,
	}
}

func (w *HoldExpiryWorker) Start(ctx context.Context) {
	logrus.Info("Hold expiry worker started")

	if err := w.taskQueue.Subscribe(ctx, w.handleTask); err != nil {
		logrus.Errorf("Hold expiry worker subscription failed: %v", err)
	}
}

func (w *HoldExpiryWorker) handleTask(task *queue.Task) error {
	ctx := context.Background()

	switch task.Type {
	case queue.TaskTypeExpireHolds:
		eventID := task.GetInt64("event_id")
		released, err := w.seatService.ExpireEventHolds(ctx, eventID)
		if err != nil {
			return fmt.Errorf("expire holds for event %d: %w", eventID, err)
		}
		if released > 0 {
			logrus.WithFields(logrus.Fields{
				"event_id": eventID,
				"released": released,
			}).Info("queue task released expired holds")
		}
		return nil

	case queue.TaskTypeInvalidateStats:
		// Statistics are invalidated inline on every transition; the task
		// type exists for operators to force a refresh from redis-cli.
		if w.statsCache == nil {
			return nil
		}
		tenantID := task.GetInt64("tenant_id")
		eventID := task.GetInt64("event_id")
		if err := w.statsCache.InvalidateStatistics(ctx, tenantID, eventID); err != nil {
			return fmt.Errorf("invalidate statistics for tenant %d event %d: %w", tenantID, eventID, err)
		}
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"event_id":  eventID,
		}).Info("statistics cache invalidated by task")
		return nil

	default:
		logrus.Warnf("Unknown task type: %s", task.Type)
		return nil
	}
}
