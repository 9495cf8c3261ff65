package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/seat-settlement/internal/entity"

	"github.com/go-redis/redis/v8"
)

// StatisticsCache keeps per-event seat counts hot. Counts are cheap to
// recompute, so every write path just drops the key and lets the next
// read repopulate it.
type StatisticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatisticsCache(client *redis.Client, ttl time.Duration) *StatisticsCache {
	return &StatisticsCache{
		client: client,
		ttl:    ttl,
	}
}

func statsKey(tenantID, eventID int64) string {
	return fmt.Sprintf("seat_stats:%d:%d", tenantID, eventID)
}

func (c *StatisticsCache) GetStatistics(ctx context.Context, tenantID, eventID int64) (*entity.SeatStatistics, error) {
	data, err := c.client.Get(ctx, statsKey(tenantID, eventID)).Result()
	if err != nil {
		return nil, err
	}

	var stats entity.SeatStatistics
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *StatisticsCache) SetStatistics(ctx context.Context, tenantID int64, stats *entity.SeatStatistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(tenantID, stats.EventID), data, c.ttl).Err()
}

func (c *StatisticsCache) InvalidateStatistics(ctx context.Context, tenantID, eventID int64) error {
	return c.client.Del(ctx, statsKey(tenantID, eventID)).Err()
}
