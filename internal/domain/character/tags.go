package character

import (
	"strings"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
)

// AddState appends a narrative state such as "exhausted"
func (c *Character) AddState(state string) error {
	tag, err := cleanTag(FieldStates, state)
	if err != nil {
		return err
	}
	c.states = append(c.states, tag)
	c.dirty = true
	return nil
}

// RemoveState removes the first state equal to state and reports whether one was found
func (c *Character) RemoveState(state string) bool {
	var removed bool
	c.states, removed = removeFirst(c.states, strings.TrimSpace(state))
	if removed {
		c.dirty = true
	}
	return removed
}

// SetStates replaces all states, keeping their order
func (c *Character) SetStates(states []string) error {
	tags, err := cleanTags(FieldStates, states)
	if err != nil {
		return err
	}
	c.states = tags
	c.dirty = true
	return nil
}

// AddEffect appends an effect such as "blessed (+1 perception)"
func (c *Character) AddEffect(effect string) error {
	tag, err := cleanTag(FieldEffects, effect)
	if err != nil {
		return err
	}
	c.effects = append(c.effects, tag)
	c.dirty = true
	return nil
}

// RemoveEffect removes the first effect equal to effect and reports whether one was found
func (c *Character) RemoveEffect(effect string) bool {
	var removed bool
	c.effects, removed = removeFirst(c.effects, strings.TrimSpace(effect))
	if removed {
		c.dirty = true
	}
	return removed
}

// SetEffects replaces all effects, keeping their order
func (c *Character) SetEffects(effects []string) error {
	tags, err := cleanTags(FieldEffects, effects)
	if err != nil {
		return err
	}
	c.effects = tags
	c.dirty = true
	return nil
}

func cleanTag(field, tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", dnderr.Validation(field, dnderr.ReasonRequired, field+" entries cannot be empty")
	}
	return tag, nil
}

func cleanTags(field string, tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		clean, err := cleanTag(field, tag)
		if err != nil {
			return nil, err
		}
		out = append(out, clean)
	}
	return out, nil
}

func removeFirst(tags []string, tag string) ([]string, bool) {
	for i, existing := range tags {
		if existing == tag {
			out := make([]string, 0, len(tags)-1)
			out = append(out, tags[:i]...)
			return append(out, tags[i+1:]...), true
		}
	}
	return tags, false
}
