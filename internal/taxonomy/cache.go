package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"freelance/notifier/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Cache stores built category trees in Redis so that a restart does not
// re-scrape both marketplaces while the snapshot is still fresh.
type Cache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		redisClient: redisClient,
		keyPrefix:   "flnotifier:taxonomy:",
		ttl:         ttl,
	}
}

// Get returns the cached tree for host, or nil on a cache miss.
func (c *Cache) Get(ctx context.Context, host domain.Host) ([]domain.Category, error) {
	if c == nil || c.redisClient == nil {
		return nil, nil
	}

	payload, err := c.redisClient.Get(ctx, c.keyPrefix+host.String()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy snapshot: %w", err)
	}

	var categories []domain.Category
	if err := json.Unmarshal([]byte(payload), &categories); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy snapshot: %w", err)
	}
	return categories, nil
}

// Put stores the tree for host with the configured TTL.
func (c *Cache) Put(ctx context.Context, host domain.Host, categories []domain.Category) error {
	if c == nil || c.redisClient == nil {
		return nil
	}

	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode taxonomy snapshot: %w", err)
	}

	if err := c.redisClient.Set(ctx, c.keyPrefix+host.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write taxonomy snapshot: %w", err)
	}
	return nil
}
