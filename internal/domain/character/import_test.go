package character

import (
	"strings"
	"testing"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport(t *testing.T) {
	shared := &Record{
		ID:            "their-id",
		OwnerID:       "someone-else",
		Name:          "Brakk",
		Attributes:    AttributeSet{Strength: 12, Agility: 3, Perception: 4},
		CurrentHealth: 200,
		CurrentStress: 2,
		States:        []string{"wounded"},
		Effects:       []string{"rage"},
		PortraitRef:   "their-portrait",
	}

	char, err := Import(shared, "me")
	require.NoError(t, err)

	assert.Equal(t, "Brakk (Import)", char.Name())
	assert.Equal(t, "me", char.OwnerID())
	assert.True(t, char.IsDraft())
	assert.True(t, char.Dirty())
	assert.Empty(t, char.PortraitRef())
	assert.Equal(t, 1, char.Attributes().Willpower, "missing scores default to 1")
	assert.Equal(t, 36, char.MaxHealth())
	assert.Equal(t, 36, char.CurrentHealth())
	assert.Equal(t, 2, char.CurrentStress())
	assert.Equal(t, []string{"wounded"}, char.States())
	assert.Equal(t, []string{"rage"}, char.Effects())
}

func TestImport_LongNameStillFits(t *testing.T) {
	shared := &Record{Name: strings.Repeat("n", MaxNameLength), Attributes: DefaultAttributeSet()}

	char, err := Import(shared, "me")
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(char.Name())), MaxNameLength)
	assert.True(t, strings.HasSuffix(char.Name(), ImportSuffix))
}

func TestImport_Rejects(t *testing.T) {
	_, err := Import(nil, "me")
	assert.True(t, dnderr.IsInvalidArgument(err))

	_, err = Import(&Record{Name: " "}, "me")
	assert.True(t, dnderr.IsValidation(err))

	_, err = Import(&Record{Name: "X", Attributes: AttributeSet{Strength: 99}}, "me")
	assert.Equal(t, string(AttributeStrength), dnderr.Field(err))
}
