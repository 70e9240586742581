package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/redis"
)

// Cache is a best-effort Redis read-through for event-by-id lookups.
// Consistency comes from the database; a cache failure is logged and the
// request falls through to Postgres. Every event mutation invalidates the
// entry.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates an event cache with the given TTL.
func NewCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(id string) string { return "event:" + id }

// Get returns the cached event, or nil on miss or error.
func (c *Cache) Get(ctx context.Context, id string) *models.Event {
	if c == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var e models.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("event cache decode", zap.String("event_id", id), zap.Error(err))
		return nil
	}
	return &e
}

// Set stores the event under its id.
func (c *Cache) Set(ctx context.Context, e *models.Event) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(e.ID.String()), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("event cache set", zap.String("event_id", e.ID.String()), zap.Error(err))
	}
}

// Invalidate drops the cached event after a mutation.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("event cache invalidate", zap.String("event_id", id), zap.Error(err))
	}
}
