package characters

import (
	"context"
	"sync"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/KirkDiggler/charsheet/internal/uuid"
)

// InMemoryRepository is an in-memory implementation of the character repository.
// Useful for tests and the CLI's memory store.
type InMemoryRepository struct {
	mu            sync.RWMutex
	characters    map[string]*character.Record
	uuidGenerator uuid.Generator
	timeProvider  TimeProvider
}

// InMemoryRepoConfig holds optional collaborators for the in-memory repository
type InMemoryRepoConfig struct {
	UUIDGenerator uuid.Generator
	TimeProvider  TimeProvider
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(cfg *InMemoryRepoConfig) *InMemoryRepository {
	if cfg == nil {
		cfg = &InMemoryRepoConfig{}
	}
	if cfg.UUIDGenerator == nil {
		cfg.UUIDGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = NewTimeProvider()
	}

	return &InMemoryRepository{
		characters:    make(map[string]*character.Record),
		uuidGenerator: cfg.UUIDGenerator,
		timeProvider:  cfg.TimeProvider,
	}
}

// Create stores a new character
func (r *InMemoryRepository) Create(ctx context.Context, rec *character.Record) (*character.Record, error) {
	data, err := prepare(rec, false)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if data.ID == "" {
		data.ID = r.uuidGenerator.New()
	}
	if _, exists := r.characters[data.ID]; exists {
		return nil, dnderr.AlreadyExistsf("character with ID '%s' already exists", data.ID).
			WithMeta(dnderr.MetaID, data.ID)
	}

	data.CreatedAt = r.timeProvider.Now()
	data.UpdatedAt = data.CreatedAt
	r.characters[data.ID] = data

	return data.Clone(), nil
}

// Get retrieves a character by ID
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*character.Record, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("character ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.characters[id]
	if !exists {
		return nil, notFound(id)
	}
	return rec.Clone(), nil
}

// ListByOwner retrieves all characters for a specific owner
func (r *InMemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*character.Record, error) {
	if ownerID == "" {
		return nil, dnderr.InvalidArgument("owner ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*character.Record, 0)
	for _, rec := range r.characters {
		if rec.OwnerID == ownerID {
			result = append(result, rec.Clone())
		}
	}

	sortRecords(result)
	return result, nil
}

// Update replaces an existing character, preserving its creation time
func (r *InMemoryRepository) Update(ctx context.Context, rec *character.Record) (*character.Record, error) {
	data, err := prepare(rec, true)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.characters[data.ID]
	if !exists {
		return nil, notFound(data.ID)
	}

	data.CreatedAt = existing.CreatedAt
	data.UpdatedAt = r.timeProvider.Now()
	r.characters[data.ID] = data

	return data.Clone(), nil
}

// Delete removes a character
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dnderr.InvalidArgument("character ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.characters[id]; !exists {
		return notFound(id)
	}
	delete(r.characters, id)
	return nil
}
