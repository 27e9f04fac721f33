package characters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Data is the serialized form of a character in Redis
type Data struct {
	ID            string                 `json:"id"`
	OwnerID       string                 `json:"owner_id"`
	Name          string                 `json:"name"`
	Attributes    character.AttributeSet `json:"attributes"`
	MaxHealth     int                    `json:"max_health"`
	MaxStress     int                    `json:"max_stress"`
	CurrentHealth int                    `json:"current_health"`
	CurrentStress int                    `json:"current_stress"`
	States        []string               `json:"states"`
	Effects       []string               `json:"effects"`
	PortraitRef   string                 `json:"portrait_ref,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// redisRepo implements the Repository interface using Redis
type redisRepo struct {
	client        redis.UniversalClient
	uuidGenerator uuid.Generator
	timeProvider  TimeProvider
}

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client        redis.UniversalClient
	UUIDGenerator uuid.Generator
	TimeProvider  TimeProvider
}

// NewRedisRepository creates a new Redis-backed character repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}
	if cfg.UUIDGenerator == nil {
		cfg.UUIDGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = NewTimeProvider()
	}

	return &redisRepo{
		client:        cfg.Client,
		uuidGenerator: cfg.UUIDGenerator,
		timeProvider:  cfg.TimeProvider,
	}
}

// key generates the Redis key for a character
func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("character:%s", id)
}

// ownerCharactersKey generates the Redis key for an owner's character set
func (r *redisRepo) ownerCharactersKey(ownerID string) string {
	return fmt.Sprintf("owner:%s:characters", ownerID)
}

// Create stores a new character
func (r *redisRepo) Create(ctx context.Context, rec *character.Record) (*character.Record, error) {
	data, err := prepare(rec, false)
	if err != nil {
		return nil, err
	}

	if data.ID == "" {
		data.ID = r.uuidGenerator.New()
	} else {
		exists, existsErr := r.client.Exists(ctx, r.key(data.ID)).Result()
		if existsErr != nil {
			return nil, dnderr.Transport(fmt.Errorf("failed to check character existence: %w", existsErr), "create")
		}
		if exists > 0 {
			return nil, dnderr.AlreadyExistsf("character with ID '%s' already exists", data.ID).
				WithMeta(dnderr.MetaID, data.ID)
		}
	}

	data.CreatedAt = r.timeProvider.Now()
	data.UpdatedAt = data.CreatedAt

	jsonData, err := json.Marshal(toData(data))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal character: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(data.ID), string(jsonData), 0)
	pipe.SAdd(ctx, r.ownerCharactersKey(data.OwnerID), data.ID)

	if _, err = pipe.Exec(ctx); err != nil {
		return nil, dnderr.Transport(fmt.Errorf("failed to create character: %w", err), "create").
			WithMeta(dnderr.MetaID, data.ID)
	}

	return data, nil
}

// Get retrieves a character by ID
func (r *redisRepo) Get(ctx context.Context, id string) (*character.Record, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("character ID is required")
	}

	jsonData, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("failed to get character: %w", err), "get").
			WithMeta(dnderr.MetaID, id)
	}

	var data Data
	if unmarshalErr := json.Unmarshal([]byte(jsonData), &data); unmarshalErr != nil {
		return nil, dnderr.WrapWithCode(unmarshalErr, dnderr.CodeInternal, "failed to unmarshal character").
			WithMeta(dnderr.MetaID, id)
	}

	rec := fromData(&data)
	rec.Normalize()
	return rec, nil
}

// ListByOwner loads the owner's index and fetches every member concurrently.
// Index entries pointing at deleted characters are skipped.
func (r *redisRepo) ListByOwner(ctx context.Context, ownerID string) ([]*character.Record, error) {
	if ownerID == "" {
		return nil, dnderr.InvalidArgument("owner ID is required")
	}

	ids, err := r.client.SMembers(ctx, r.ownerCharactersKey(ownerID)).Result()
	if err != nil {
		return nil, dnderr.Transport(fmt.Errorf("failed to list character IDs: %w", err), "list")
	}

	var mu sync.Mutex
	records := make([]*character.Record, 0, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			rec, getErr := r.Get(gctx, id)
			if dnderr.IsNotFound(getErr) {
				return nil
			}
			if getErr != nil {
				return getErr
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, dnderr.Transport(err, "list")
	}

	sortRecords(records)
	return records, nil
}

// Update replaces an existing character
func (r *redisRepo) Update(ctx context.Context, rec *character.Record) (*character.Record, error) {
	data, err := prepare(rec, true)
	if err != nil {
		return nil, err
	}

	existing, err := r.Get(ctx, data.ID)
	if err != nil {
		return nil, dnderr.Transport(err, "update")
	}

	data.CreatedAt = existing.CreatedAt
	data.UpdatedAt = r.timeProvider.Now()

	jsonData, err := json.Marshal(toData(data))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal character: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(data.ID), string(jsonData), 0)
	if existing.OwnerID != data.OwnerID {
		pipe.SRem(ctx, r.ownerCharactersKey(existing.OwnerID), data.ID)
		pipe.SAdd(ctx, r.ownerCharactersKey(data.OwnerID), data.ID)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return nil, dnderr.Transport(fmt.Errorf("failed to update character: %w", err), "update").
			WithMeta(dnderr.MetaID, data.ID)
	}

	return data, nil
}

// Delete removes a character and its index entry
func (r *redisRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dnderr.InvalidArgument("character ID is required")
	}

	existing, err := r.Get(ctx, id)
	if err != nil {
		return dnderr.Transport(err, "delete")
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(id))
	pipe.SRem(ctx, r.ownerCharactersKey(existing.OwnerID), id)

	if _, err = pipe.Exec(ctx); err != nil {
		return dnderr.Transport(fmt.Errorf("failed to delete character: %w", err), "delete").
			WithMeta(dnderr.MetaID, id)
	}

	return nil
}

func toData(rec *character.Record) *Data {
	return &Data{
		ID:            rec.ID,
		OwnerID:       rec.OwnerID,
		Name:          rec.Name,
		Attributes:    rec.Attributes,
		MaxHealth:     rec.MaxHealth,
		MaxStress:     rec.MaxStress,
		CurrentHealth: rec.CurrentHealth,
		CurrentStress: rec.CurrentStress,
		States:        rec.States,
		Effects:       rec.Effects,
		PortraitRef:   rec.PortraitRef,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func fromData(data *Data) *character.Record {
	return &character.Record{
		ID:            data.ID,
		OwnerID:       data.OwnerID,
		Name:          data.Name,
		Attributes:    data.Attributes,
		MaxHealth:     data.MaxHealth,
		MaxStress:     data.MaxStress,
		CurrentHealth: data.CurrentHealth,
		CurrentStress: data.CurrentStress,
		States:        data.States,
		Effects:       data.Effects,
		PortraitRef:   data.PortraitRef,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}
