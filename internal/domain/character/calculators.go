package character

// StatCalculator derives the health and stress ceilings from an attribute set.
// Implementations must be pure: no clamping, no rounding, no hidden state.
type StatCalculator interface {
	MaxHealth(attrs AttributeSet) int
	MaxStress(attrs AttributeSet) int
}

// DefaultCalculator implements the house rules
type DefaultCalculator struct{}

// MaxHealth implements StatCalculator
func (DefaultCalculator) MaxHealth(attrs AttributeSet) int {
	return MaxHealth(attrs)
}

// MaxStress implements StatCalculator
func (DefaultCalculator) MaxStress(attrs AttributeSet) int {
	return MaxStress(attrs)
}

// MaxHealth = (strength + willpower) * 2 + 10
func MaxHealth(attrs AttributeSet) int {
	return (attrs.Strength+attrs.Willpower)*2 + 10
}

// MaxStress = willpower * 3
func MaxStress(attrs AttributeSet) int {
	return attrs.Willpower * 3
}
