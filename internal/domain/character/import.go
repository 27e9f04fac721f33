package character

import (
	"strings"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
)

// ImportSuffix marks characters copied from another player's shared sheet
const ImportSuffix = " (Import)"

// Import builds a new draft for ownerID from a sheet shared by someone else.
// The copy gets no ID, no portrait and fresh derived values; current values are
// kept but clamped to the recomputed ceilings.
func Import(shared *Record, ownerID string, opts ...Option) (*Character, error) {
	if shared == nil {
		return nil, dnderr.InvalidArgument("shared character cannot be nil")
	}

	attrs := shared.Attributes
	for _, attr := range AllAttributes {
		if score, _ := attrs.Get(attr); score == 0 {
			attrs.set(attr, DefaultScore)
		}
	}
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(shared.Name)
	if name == "" {
		return nil, dnderr.Validation(FieldName, dnderr.ReasonRequired, "shared character has no name")
	}
	if len([]rune(name))+len([]rune(ImportSuffix)) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength-len([]rune(ImportSuffix))])
	}

	c, err := NewDraft(ownerID, name+ImportSuffix, opts...)
	if err != nil {
		return nil, err
	}

	c.attributes = attrs
	c.currentHealth = shared.CurrentHealth
	c.currentStress = shared.CurrentStress
	c.recalculate()
	if c.currentHealth < 0 {
		c.currentHealth = 0
	}
	if c.currentStress < 0 {
		c.currentStress = 0
	}

	if c.states, err = cleanTags(FieldStates, shared.States); err != nil {
		return nil, err
	}
	if c.effects, err = cleanTags(FieldEffects, shared.Effects); err != nil {
		return nil, err
	}

	return c, nil
}
