package portraits

import (
	"context"
	"fmt"
	"time"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/uuid"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client redis.UniversalClient
	ids    uuid.Generator
	policy Policy
	now    func() time.Time
}

// RedisStoreConfig holds configuration for the Redis portrait store
type RedisStoreConfig struct {
	Client        redis.UniversalClient
	UUIDGenerator uuid.Generator
	MaxBytes      int
	Now           func() time.Time
}

// NewRedisStore creates a portrait store keeping each image in a hash
func NewRedisStore(cfg *RedisStoreConfig) Store {
	if cfg == nil {
		panic("RedisStoreConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}
	if cfg.UUIDGenerator == nil {
		cfg.UUIDGenerator = uuid.NewULIDGenerator()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &redisStore{
		client: cfg.Client,
		ids:    cfg.UUIDGenerator,
		policy: Policy{MaxBytes: cfg.MaxBytes},
		now:    cfg.Now,
	}
}

func (s *redisStore) key(ref string) string {
	return fmt.Sprintf("portrait:%s", ref)
}

// Put validates and stores an image
func (s *redisStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	stored, err := s.policy.Check(contentType, data)
	if err != nil {
		return "", err
	}

	ref := s.ids.New()
	err = s.client.HSet(ctx, s.key(ref),
		"content_type", stored,
		"data", data,
		"created_at", s.now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return "", dnderr.Transport(fmt.Errorf("failed to store portrait: %w", err), "put_portrait")
	}

	return ref, nil
}

// Get loads an image by ref
func (s *redisStore) Get(ctx context.Context, ref string) (*Portrait, error) {
	if ref == "" {
		return nil, dnderr.InvalidArgument("portrait ref is required")
	}

	fields, err := s.client.HGetAll(ctx, s.key(ref)).Result()
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("failed to load portrait: %w", err), "get_portrait")
	}
	if len(fields) == 0 {
		return nil, notFound(ref)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return &Portrait{
		Ref:         ref,
		ContentType: fields["content_type"],
		Data:        []byte(fields["data"]),
		CreatedAt:   createdAt,
	}, nil
}

// Delete removes an image
func (s *redisStore) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return dnderr.InvalidArgument("portrait ref is required")
	}

	removed, err := s.client.Del(ctx, s.key(ref)).Result()
	if err != nil {
		return dnderr.Transport(fmt.Errorf("failed to delete portrait: %w", err), "delete_portrait")
	}
	if removed == 0 {
		return notFound(ref)
	}
	return nil
}
