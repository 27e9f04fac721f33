package characters

//go:generate mockgen -destination=mock/mock.go -package=mockcharacters -source=interface.go

import (
	"context"
	"time"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
)

// Repository is the Character Store. Implementations assign IDs and timestamps,
// apply store-side defaults and return the stored record as the echo.
type Repository interface {
	// ListByOwner returns every character owned by ownerID, oldest first
	ListByOwner(ctx context.Context, ownerID string) ([]*character.Record, error)

	// Get retrieves a character by ID
	Get(ctx context.Context, id string) (*character.Record, error)

	// Create stores a new character and returns it with ID and timestamps set
	Create(ctx context.Context, rec *character.Record) (*character.Record, error)

	// Update replaces an existing character, preserving its creation time
	Update(ctx context.Context, rec *character.Record) (*character.Record, error)

	// Delete removes a character
	Delete(ctx context.Context, id string) error
}

// TimeProvider lets tests pin the timestamps a store writes
type TimeProvider interface {
	Now() time.Time
}

type utcTimeProvider struct{}

func (utcTimeProvider) Now() time.Time { return time.Now().UTC() }

// NewTimeProvider returns a TimeProvider backed by the wall clock in UTC
func NewTimeProvider() TimeProvider {
	return utcTimeProvider{}
}
