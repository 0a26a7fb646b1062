// Package sweepcache caches the latest sweep result in Redis for the
// operator dashboard. Purely best-effort observability: the sweep itself
// never depends on it.
package sweepcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// DefaultTTL keeps cached results around long enough to cover several sweep
// intervals without serving stale data forever when sweeps stop.
const DefaultTTL = 24 * time.Hour

const (
	latestKey       = "frontdesk:sweep:latest"
	tenantKeyFormat = "frontdesk:sweep:tenant:%s:latest"
)

// RedisCache stores sweep results in Redis, globally and per tenant.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache with the default TTL.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ttl: DefaultTTL}
}

// StoreLatest writes the run-wide result plus one entry per tenant report.
func (c *RedisCache) StoreLatest(ctx context.Context, result *commands.RunSweepResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal sweep result: %w", err)
	}
	if err := c.client.Set(ctx, latestKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store sweep result: %w", err)
	}

	for _, report := range result.Tenants {
		entry, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal tenant report: %w", err)
		}
		key := fmt.Sprintf(tenantKeyFormat, report.TenantID)
		if err := c.client.Set(ctx, key, entry, c.ttl).Err(); err != nil {
			return fmt.Errorf("store tenant report: %w", err)
		}
	}

	return nil
}

// Latest returns the most recent cached result, or nil when no sweep has
// run within the TTL.
func (c *RedisCache) Latest(ctx context.Context) (*commands.RunSweepResult, error) {
	payload, err := c.client.Get(ctx, latestKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sweep result: %w", err)
	}

	var result commands.RunSweepResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode sweep result: %w", err)
	}
	return &result, nil
}

// LatestForTenant returns the most recent cached report for one tenant, or
// nil when absent.
func (c *RedisCache) LatestForTenant(ctx context.Context, tenantID uuid.UUID) (*domain.SweepReport, error) {
	key := fmt.Sprintf(tenantKeyFormat, tenantID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tenant report: %w", err)
	}

	var report domain.SweepReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode tenant report: %w", err)
	}
	return &report, nil
}
