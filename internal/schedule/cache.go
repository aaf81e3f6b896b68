package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medimeet/platform/pkg/logging"
)

// Cache keeps generated day schedules in redis for a short TTL so bursts of
// slot lookups do not hammer the database. Best effort: every failure falls
// through to regeneration.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache creates a schedule cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{redis: client, ttl: ttl, logger: logger}
}

func cacheKey(doctorID string) string {
	return fmt.Sprintf("schedule:doctor:%s", doctorID)
}

// Get returns the cached schedule for the doctor, if present.
func (c *Cache) Get(ctx context.Context, doctorID string) ([]DaySlots, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, cacheKey(doctorID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("schedule cache read failed", "error", err, "doctor_id", doctorID)
		}
		return nil, false
	}
	var days []DaySlots
	if err := json.Unmarshal(raw, &days); err != nil {
		c.logger.Warn("schedule cache decode failed", "error", err, "doctor_id", doctorID)
		return nil, false
	}
	return days, true
}

// Set stores the schedule under the doctor's key.
func (c *Cache) Set(ctx context.Context, doctorID string, days []DaySlots) {
	if c == nil || c.redis == nil {
		return
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(doctorID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("schedule cache write failed", "error", err, "doctor_id", doctorID)
	}
}

// Invalidate drops the doctor's cached schedule after a booking,
// cancellation or window change.
func (c *Cache) Invalidate(ctx context.Context, doctorID string) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKey(doctorID)).Err(); err != nil {
		c.logger.Warn("schedule cache invalidation failed", "error", err, "doctor_id", doctorID)
	}
}
