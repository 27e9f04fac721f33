// Package uuid wraps ID generation so callers can inject deterministic IDs
package uuid

//go:generate mockgen -destination=mocks/mock_uuid.go -package=mockuuid -source=uuid.go

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator produces unique string IDs
type Generator interface {
	New() string
}

// GoogleUUIDGenerator returns random v4 UUIDs. Character IDs use it.
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// ULIDGenerator returns lexically sortable IDs. Portrait refs use it so
// uploads sort by time.
type ULIDGenerator struct{}

// New generates a new ULID string
func (g *ULIDGenerator) New() string {
	return ulid.Make().String()
}

// NewULIDGenerator creates a new ULIDGenerator
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}
