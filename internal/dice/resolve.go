package dice

import (
	"fmt"
	"time"
)

// Classification labels a d20 result
type Classification string

const (
	ClassificationCriticalFailure Classification = "critical-fail"
	ClassificationCriticalSuccess Classification = "critical-success"
	ClassificationNormal          Classification = "normal"
)

const (
	D20                 = 20
	CriticalFailFace    = 1
	CriticalSuccessFace = D20
)

// Label is the short human text for the classification
func (c Classification) Label() string {
	switch c {
	case ClassificationCriticalFailure:
		return "Critical failure!"
	case ClassificationCriticalSuccess:
		return "Critical success!"
	default:
		return ""
	}
}

// Outcome is one resolved attribute roll
type Outcome struct {
	ID             string         `json:"id"`
	CharacterID    string         `json:"character_id,omitempty"`
	CharacterName  string         `json:"character_name,omitempty"`
	Attribute      string         `json:"attribute,omitempty"`
	DieValue       int            `json:"die_value"`
	Modifier       int            `json:"modifier"`
	Total          int            `json:"total"`
	Classification Classification `json:"classification"`
	RolledAt       time.Time      `json:"rolled_at"`
}

// Resolve classifies a d20 face and adds the modifier.
// Criticals depend only on the face; the total is always face plus modifier.
func Resolve(dieValue, modifier int) Outcome {
	classification := ClassificationNormal
	switch dieValue {
	case CriticalFailFace:
		classification = ClassificationCriticalFailure
	case CriticalSuccessFace:
		classification = ClassificationCriticalSuccess
	}

	return Outcome{
		DieValue:       dieValue,
		Modifier:       modifier,
		Total:          dieValue + modifier,
		Classification: classification,
	}
}

// RollD20 draws one d20 from roller and resolves it against modifier
func RollD20(roller Roller, modifier int) (Outcome, error) {
	if roller == nil {
		return Outcome{}, fmt.Errorf("roller is required")
	}

	result, err := roller.Roll(1, D20, 0)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to roll d20: %w", err)
	}

	return Resolve(result.First(), modifier), nil
}

// IsCritical reports whether the face alone decided the roll
func (o Outcome) IsCritical() bool {
	return o.Classification == ClassificationCriticalFailure ||
		o.Classification == ClassificationCriticalSuccess
}

// Announcement is the line shown to the table, e.g. "Mira rolls strength: d20=20+10=30 (Critical success!)"
func (o Outcome) Announcement() string {
	name := o.CharacterName
	if name == "" {
		name = "Someone"
	}
	attr := o.Attribute
	if attr == "" {
		attr = "d20"
	}

	line := fmt.Sprintf("%s rolls %s: d20=%d%+d=%d", name, attr, o.DieValue, o.Modifier, o.Total)
	if label := o.Classification.Label(); label != "" {
		line += " (" + label + ")"
	}
	return line
}
