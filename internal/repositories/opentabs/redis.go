package opentabs

import (
	"context"
	"fmt"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client redis.UniversalClient
}

// NewRedisCache keeps each owner's open tabs in a Redis list
func NewRedisCache(client redis.UniversalClient) Cache {
	if client == nil {
		panic("Redis client cannot be nil")
	}
	return &redisCache{client: client}
}

func (c *redisCache) key(ownerID string) string {
	return fmt.Sprintf("owner:%s:open_tabs", ownerID)
}

// Save replaces the owner's list in one MULTI/EXEC so readers never see it half written
func (c *redisCache) Save(ctx context.Context, ownerID string, characterIDs []string) error {
	if ownerID == "" {
		return dnderr.InvalidArgument("owner ID is required")
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(ownerID))
	if len(characterIDs) > 0 {
		values := make([]any, len(characterIDs))
		for i, id := range characterIDs {
			values[i] = id
		}
		pipe.RPush(ctx, c.key(ownerID), values...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.Transport(fmt.Errorf("failed to save open tabs: %w", err), "save_tabs")
	}
	return nil
}

// Load returns the owner's open tabs in the order they were saved
func (c *redisCache) Load(ctx context.Context, ownerID string) ([]string, error) {
	if ownerID == "" {
		return nil, dnderr.InvalidArgument("owner ID is required")
	}

	ids, err := c.client.LRange(ctx, c.key(ownerID), 0, -1).Result()
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("failed to load open tabs: %w", err), "load_tabs")
	}
	return ids, nil
}
