package character

import (
	"strings"
	"time"
	"unicode/utf8"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
)

// MaxNameLength matches the width of the name column in the stores
const MaxNameLength = 100

// Field names used in validation and range errors
const (
	FieldName          = "name"
	FieldCurrentHealth = "current_health"
	FieldCurrentStress = "current_stress"
	FieldStates        = "states"
	FieldEffects       = "effects"
	FieldPortrait      = "portrait"
)

// Character is the mutable sheet held by one tab. Derived ceilings are only ever
// written by recalculate. A Character is not safe for concurrent use; the tab
// that owns it serializes access.
type Character struct {
	id          string
	ownerID     string
	name        string
	attributes  AttributeSet
	portraitRef string
	createdAt   time.Time
	updatedAt   time.Time

	maxHealth     int
	maxStress     int
	currentHealth int
	currentStress int

	states  []string
	effects []string

	dirty bool
	calc  StatCalculator
}

// Option configures a Character at construction
type Option func(*Character)

// WithCalculator swaps the derived stat rules (for alternative rulesets and tests)
func WithCalculator(calc StatCalculator) Option {
	return func(c *Character) {
		if calc != nil {
			c.calc = calc
		}
	}
}

// NewDraft creates an unsaved character with default attributes and full health
func NewDraft(ownerID, name string, opts ...Option) (*Character, error) {
	cleanName, err := validateName(name)
	if err != nil {
		return nil, err
	}

	c := &Character{
		ownerID:    ownerID,
		name:       cleanName,
		attributes: DefaultAttributeSet(),
		states:     []string{},
		effects:    []string{},
		calc:       DefaultCalculator{},
		dirty:      true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.recalculate()
	c.currentHealth = c.maxHealth
	return c, nil
}

// FromRecord rebuilds a Character from a stored record. Attributes are validated,
// ceilings recomputed and current values clamped, whatever the record claims.
func FromRecord(rec *Record, opts ...Option) (*Character, error) {
	if rec == nil {
		return nil, dnderr.InvalidArgument("record cannot be nil")
	}
	if err := rec.Attributes.Validate(); err != nil {
		return nil, dnderr.Wrapf(err, "invalid attributes on character '%s'", rec.ID).
			WithMeta(dnderr.MetaID, rec.ID)
	}

	c := &Character{
		id:            rec.ID,
		ownerID:       rec.OwnerID,
		name:          rec.Name,
		attributes:    rec.Attributes,
		portraitRef:   rec.PortraitRef,
		createdAt:     rec.CreatedAt,
		updatedAt:     rec.UpdatedAt,
		currentHealth: rec.CurrentHealth,
		currentStress: rec.CurrentStress,
		states:        copyTags(rec.States),
		effects:       copyTags(rec.Effects),
		calc:          DefaultCalculator{},
		dirty:         rec.ID == "",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.recalculate()
	if c.currentHealth < 0 {
		c.currentHealth = 0
	}
	if c.currentStress < 0 {
		c.currentStress = 0
	}
	return c, nil
}

// Record returns the plain form of the character for persistence
func (c *Character) Record() *Record {
	return &Record{
		ID:            c.id,
		OwnerID:       c.ownerID,
		Name:          c.name,
		Attributes:    c.attributes,
		MaxHealth:     c.maxHealth,
		MaxStress:     c.maxStress,
		CurrentHealth: c.currentHealth,
		CurrentStress: c.currentStress,
		States:        copyTags(c.states),
		Effects:       copyTags(c.effects),
		PortraitRef:   c.portraitRef,
		CreatedAt:     c.createdAt,
		UpdatedAt:     c.updatedAt,
	}
}

// Clone returns a deep copy that shares no mutable state with c
func (c *Character) Clone() *Character {
	out := *c
	out.states = copyTags(c.states)
	out.effects = copyTags(c.effects)
	return &out
}

func (c *Character) ID() string               { return c.id }
func (c *Character) OwnerID() string          { return c.ownerID }
func (c *Character) Name() string             { return c.name }
func (c *Character) Attributes() AttributeSet { return c.attributes }
func (c *Character) MaxHealth() int           { return c.maxHealth }
func (c *Character) MaxStress() int           { return c.maxStress }
func (c *Character) CurrentHealth() int       { return c.currentHealth }
func (c *Character) CurrentStress() int       { return c.currentStress }
func (c *Character) States() []string         { return copyTags(c.states) }
func (c *Character) Effects() []string        { return copyTags(c.effects) }
func (c *Character) PortraitRef() string      { return c.portraitRef }
func (c *Character) CreatedAt() time.Time     { return c.createdAt }
func (c *Character) UpdatedAt() time.Time     { return c.updatedAt }

// IsDraft reports whether the store has never assigned an ID
func (c *Character) IsDraft() bool { return c.id == "" }

// Dirty reports whether the character holds changes not yet confirmed by the store
func (c *Character) Dirty() bool { return c.dirty }

// MarkClean clears the dirty flag once the store has confirmed the current state
func (c *Character) MarkClean() { c.dirty = false }

// Modifier returns the value added to a d20 when rolling against attr
func (c *Character) Modifier(attr Attribute) (int, error) {
	return c.attributes.Get(attr)
}

// AdoptServerFields copies the store-assigned identity and timestamps from rec
// without touching any user-editable field.
func (c *Character) AdoptServerFields(rec *Record) {
	if rec == nil {
		return
	}
	c.id = rec.ID
	c.createdAt = rec.CreatedAt
	c.updatedAt = rec.UpdatedAt
}

// ApplyAttributes validates every field in patch, then recomputes the ceilings and
// clamps the current values. Nothing is applied when any field fails.
func (c *Character) ApplyAttributes(patch AttributePatch) error {
	for attr := range patch {
		if _, err := c.attributes.Get(attr); err != nil {
			return err
		}
	}

	next := c.attributes
	for _, attr := range AllAttributes {
		raw, ok := patch[attr]
		if !ok {
			continue
		}
		score, err := ParseAttribute(attr, raw)
		if err != nil {
			return err
		}
		next.set(attr, score)
	}

	c.commitAttributes(next)
	return nil
}

// SetAttribute is the typed form of ApplyAttributes for a single score
func (c *Character) SetAttribute(attr Attribute, score int) error {
	if _, err := c.attributes.Get(attr); err != nil {
		return err
	}
	if err := validateScore(attr, score); err != nil {
		return err
	}

	next := c.attributes
	next.set(attr, score)
	c.commitAttributes(next)
	return nil
}

// SetAttributes replaces the whole set after validating it
func (c *Character) SetAttributes(attrs AttributeSet) error {
	if err := attrs.Validate(); err != nil {
		return err
	}
	c.commitAttributes(attrs)
	return nil
}

func (c *Character) commitAttributes(next AttributeSet) {
	c.attributes = next
	c.recalculate()
	c.dirty = true
}

// recalculate is the only writer of the ceilings. Current values are pulled down
// when a ceiling shrinks below them.
func (c *Character) recalculate() {
	if c.calc == nil {
		c.calc = DefaultCalculator{}
	}
	c.maxHealth = c.calc.MaxHealth(c.attributes)
	c.maxStress = c.calc.MaxStress(c.attributes)

	if c.currentHealth > c.maxHealth {
		c.currentHealth = c.maxHealth
	}
	if c.currentStress > c.maxStress {
		c.currentStress = c.maxStress
	}
}

// SetCurrentHealth writes current health directly. Values outside [0, MaxHealth]
// are rejected, never clamped.
func (c *Character) SetCurrentHealth(value int) error {
	if value < 0 || value > c.maxHealth {
		return dnderr.OutOfRangef(FieldCurrentHealth,
			"current health must be between 0 and %d, got %d", c.maxHealth, value).
			WithMeta("value", value).
			WithMeta("max", c.maxHealth)
	}
	if value != c.currentHealth {
		c.currentHealth = value
		c.dirty = true
	}
	return nil
}

// SetCurrentStress writes current stress directly. Values outside [0, MaxStress]
// are rejected, never clamped.
func (c *Character) SetCurrentStress(value int) error {
	if value < 0 || value > c.maxStress {
		return dnderr.OutOfRangef(FieldCurrentStress,
			"current stress must be between 0 and %d, got %d", c.maxStress, value).
			WithMeta("value", value).
			WithMeta("max", c.maxStress)
	}
	if value != c.currentStress {
		c.currentStress = value
		c.dirty = true
	}
	return nil
}

// AdjustCurrentHealth applies damage (negative) or healing (positive)
func (c *Character) AdjustCurrentHealth(delta int) error {
	return c.SetCurrentHealth(c.currentHealth + delta)
}

// AdjustCurrentStress adds or removes stress
func (c *Character) AdjustCurrentStress(delta int) error {
	return c.SetCurrentStress(c.currentStress + delta)
}

// Rename changes the display name
func (c *Character) Rename(name string) error {
	cleanName, err := validateName(name)
	if err != nil {
		return err
	}
	if cleanName != c.name {
		c.name = cleanName
		c.dirty = true
	}
	return nil
}

// SetPortrait points the sheet at an image held by the portrait store
func (c *Character) SetPortrait(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return dnderr.Validation(FieldPortrait, dnderr.ReasonRequired, "portrait reference is required")
	}
	if ref != c.portraitRef {
		c.portraitRef = ref
		c.dirty = true
	}
	return nil
}

// ClearPortrait removes the portrait reference
func (c *Character) ClearPortrait() {
	if c.portraitRef != "" {
		c.portraitRef = ""
		c.dirty = true
	}
}

func validateName(name string) (string, error) {
	cleanName := strings.TrimSpace(name)
	if cleanName == "" {
		return "", dnderr.Validation(FieldName, dnderr.ReasonRequired, "character name is required")
	}
	if utf8.RuneCountInString(cleanName) > MaxNameLength {
		return "", dnderr.Validation(FieldName, dnderr.ReasonLength, "character name is too long").
			WithMeta("max", MaxNameLength)
	}
	return cleanName, nil
}
