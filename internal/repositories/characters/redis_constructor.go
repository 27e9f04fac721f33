package characters

import (
	"github.com/KirkDiggler/charsheet/internal/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedis creates a Redis-backed character repository with production defaults
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{
		Client:        client,
		UUIDGenerator: uuid.NewGoogleUUIDGenerator(),
		TimeProvider:  NewTimeProvider(),
	})
}
