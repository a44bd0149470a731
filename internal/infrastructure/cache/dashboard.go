package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
	"workshop/pkg/logger"
)

// DashboardCache stores dashboards as JSON with a TTL. Keys of one company
// are tracked in a set so that InvalidateCompany can drop them together.
type DashboardCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewDashboardCache(client redis.Cmdable, ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardCache{client: client, ttl: ttl}
}

func companyIndexKey(companyID id.ID) string {
	return KeyPrefix + "dashboards:" + companyID.String()
}

func (c *DashboardCache) GetDashboard(ctx context.Context, key string) (*analytics.Dashboard, bool) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx, "dashboard cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var d analytics.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		logger.Warn(ctx, "dashboard cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &d, true
}

func (c *DashboardCache) SetDashboard(ctx context.Context, companyID id.ID, key string, d *analytics.Dashboard) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dashboard: %w", err)
	}
	idx := companyIndexKey(companyID)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyPrefix+key, data, c.ttl)
		p.SAdd(ctx, idx, KeyPrefix+key)
		p.Expire(ctx, idx, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache dashboard: %w", err)
	}
	return nil
}

func (c *DashboardCache) InvalidateCompany(ctx context.Context, companyID id.ID) error {
	idx := companyIndexKey(companyID)
	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("list cached dashboards: %w", err)
	}
	keys = append(keys, idx)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("drop cached dashboards: %w", err)
	}
	logger.Debug(ctx, "dashboard cache invalidated", "company_id", companyID, "keys", len(keys)-1)
	return nil
}

var _ analytics.Cache = (*DashboardCache)(nil)

// MemoryDashboardCache is the in-process cache used when Redis is disabled.
type MemoryDashboardCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	companyID id.ID
	dashboard *analytics.Dashboard
	expires   time.Time
}

func NewMemoryDashboardCache(ttl time.Duration) *MemoryDashboardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryDashboardCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryDashboardCache) GetDashboard(_ context.Context, key string) (*analytics.Dashboard, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.dashboard, true
}

func (c *MemoryDashboardCache) SetDashboard(_ context.Context, companyID id.ID, key string, d *analytics.Dashboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{companyID: companyID, dashboard: d, expires: now.Add(c.ttl)}
	return nil
}

func (c *MemoryDashboardCache) InvalidateCompany(_ context.Context, companyID id.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.companyID == companyID {
			delete(c.entries, k)
		}
	}
	return nil
}

var _ analytics.Cache = (*MemoryDashboardCache)(nil)
