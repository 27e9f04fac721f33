package character

import (
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
)

// Attribute names one of the four base scores
type Attribute string

const (
	AttributeStrength   Attribute = "strength"
	AttributeAgility    Attribute = "agility"
	AttributePerception Attribute = "perception"
	AttributeWillpower  Attribute = "willpower"
)

// AllAttributes lists the attributes in validation order
var AllAttributes = []Attribute{AttributeStrength, AttributeAgility, AttributePerception, AttributeWillpower}

// Score bounds for every attribute. A narrower on-screen scale is a presentation concern.
const (
	MinScore     = 1
	MaxScore     = 20
	DefaultScore = 1
)

// ParseAttributeName maps user input such as "Strength" or " willpower " to an Attribute
func ParseAttributeName(name string) (Attribute, error) {
	attr := Attribute(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllAttributes {
		if attr == known {
			return attr, nil
		}
	}
	return "", dnderr.InvalidArgumentf("unknown attribute '%s'", name)
}

// AttributeSet holds the four base scores of a character
type AttributeSet struct {
	Strength   int `json:"strength"`
	Agility    int `json:"agility"`
	Perception int `json:"perception"`
	Willpower  int `json:"willpower"`
}

// DefaultAttributeSet returns the scores a new draft starts with
func DefaultAttributeSet() AttributeSet {
	return AttributeSet{
		Strength:   DefaultScore,
		Agility:    DefaultScore,
		Perception: DefaultScore,
		Willpower:  DefaultScore,
	}
}

// Get returns the score for attr
func (a AttributeSet) Get(attr Attribute) (int, error) {
	switch attr {
	case AttributeStrength:
		return a.Strength, nil
	case AttributeAgility:
		return a.Agility, nil
	case AttributePerception:
		return a.Perception, nil
	case AttributeWillpower:
		return a.Willpower, nil
	}
	return 0, dnderr.InvalidArgumentf("unknown attribute '%s'", attr)
}

func (a *AttributeSet) set(attr Attribute, value int) {
	switch attr {
	case AttributeStrength:
		a.Strength = value
	case AttributeAgility:
		a.Agility = value
	case AttributePerception:
		a.Perception = value
	case AttributeWillpower:
		a.Willpower = value
	}
}

// Validate checks every score against [MinScore, MaxScore] in validation order.
// Re-validating a valid set always returns nil.
func (a AttributeSet) Validate() error {
	for _, attr := range AllAttributes {
		score, _ := a.Get(attr)
		if err := validateScore(attr, score); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAttribute checks raw input for one attribute. The order is fixed:
// presence, then numeric, then range. Only the first failure is reported.
func ValidateAttribute(attr Attribute, raw string) error {
	_, err := ParseAttribute(attr, raw)
	return err
}

// ParseAttribute validates raw input for attr and returns the parsed score
func ParseAttribute(attr Attribute, raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, dnderr.Validation(string(attr), dnderr.ReasonRequired,
			string(attr)+" is required")
	}

	score, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, dnderr.Validation(string(attr), dnderr.ReasonNumeric,
			string(attr)+" must be a whole number")
	}

	if err := validateScore(attr, score); err != nil {
		return 0, err
	}

	return score, nil
}

func validateScore(attr Attribute, score int) error {
	if score < MinScore || score > MaxScore {
		return dnderr.Validation(string(attr), dnderr.ReasonRange,
			string(attr)+" must be between "+strconv.Itoa(MinScore)+" and "+strconv.Itoa(MaxScore)).
			WithMeta("value", score)
	}
	return nil
}

// AttributePatch carries raw, unvalidated input for the attributes being changed
type AttributePatch map[Attribute]string

// ParseAttributes validates raw input for all four attributes and builds a set
func ParseAttributes(raw map[Attribute]string) (AttributeSet, error) {
	var set AttributeSet
	for _, attr := range AllAttributes {
		score, err := ParseAttribute(attr, raw[attr])
		if err != nil {
			return AttributeSet{}, err
		}
		set.set(attr, score)
	}
	return set, nil
}
