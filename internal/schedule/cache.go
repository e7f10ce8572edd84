package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps per-technician schedule snapshots in Redis for the browse
// path. A miss is never an error; callers fall through to the repository.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a schedule snapshot cache. A zero ttl disables expiry.
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: redisClient, ttl: ttl}
}

func (c *Cache) key(techID string) string {
	return "schedule:tech:" + techID
}

// Get returns the cached snapshot for a technician, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, techID string) ([]DaySchedule, bool, error) {
	if c == nil || c.redis == nil {
		return nil, false, nil
	}
	data, err := c.redis.Get(ctx, c.key(techID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("schedule: cache get: %w", err)
	}
	var days []DaySchedule
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, false, fmt.Errorf("schedule: cache decode: %w", err)
	}
	return days, true, nil
}

// Set stores a technician's snapshot.
func (c *Cache) Set(ctx context.Context, techID string, days []DaySchedule) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("schedule: cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(techID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("schedule: cache set: %w", err)
	}
	return nil
}

// Invalidate drops a technician's snapshot after a successful write.
func (c *Cache) Invalidate(ctx context.Context, techID string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(techID)).Err(); err != nil {
		return fmt.Errorf("schedule: cache invalidate: %w", err)
	}
	return nil
}
