// Package testutils holds helpers shared by tests across packages
package testutils

import (
	"time"

	"github.com/KirkDiggler/charsheet/internal/domain/character"
)

// FixtureTime is the creation time used by every fixture
var FixtureTime = time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC)

// CreateTestRecord creates a stored character with consistent derived values
func CreateTestRecord(id, ownerID, name string) *character.Record {
	attrs := character.AttributeSet{Strength: 10, Agility: 5, Perception: 5, Willpower: 8}
	return &character.Record{
		ID:            id,
		OwnerID:       ownerID,
		Name:          name,
		Attributes:    attrs,
		MaxHealth:     character.MaxHealth(attrs),
		MaxStress:     character.MaxStress(attrs),
		CurrentHealth: character.MaxHealth(attrs),
		States:        []string{},
		Effects:       []string{},
		CreatedAt:     FixtureTime,
		UpdatedAt:     FixtureTime,
	}
}

// CreateTestDraftRecord creates an unsaved character as an editor would send it
func CreateTestDraftRecord(ownerID, name string) *character.Record {
	rec := CreateTestRecord("", ownerID, name)
	rec.CreatedAt = time.Time{}
	rec.UpdatedAt = time.Time{}
	return rec
}
