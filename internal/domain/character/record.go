package character

import "time"

// Record is the plain structured form exchanged with stores and other sessions.
// It carries no invariants of its own; FromRecord re-establishes them.
type Record struct {
	ID            string       `json:"id"`
	OwnerID       string       `json:"owner_id"`
	Name          string       `json:"name"`
	Attributes    AttributeSet `json:"attributes"`
	MaxHealth     int          `json:"max_health"`
	MaxStress     int          `json:"max_stress"`
	CurrentHealth int          `json:"current_health"`
	CurrentStress int          `json:"current_stress"`
	States        []string     `json:"states"`
	Effects       []string     `json:"effects"`
	PortraitRef   string       `json:"portrait_ref,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.States = copyTags(r.States)
	out.Effects = copyTags(r.Effects)
	return &out
}

// Normalize fills store-side defaults: unset attributes become DefaultScore,
// derived values are recomputed and current values are clamped to them.
func (r *Record) Normalize() {
	for _, attr := range AllAttributes {
		if score, _ := r.Attributes.Get(attr); score == 0 {
			r.Attributes.set(attr, DefaultScore)
		}
	}
	r.MaxHealth = MaxHealth(r.Attributes)
	r.MaxStress = MaxStress(r.Attributes)
	r.CurrentHealth = clamp(r.CurrentHealth, 0, r.MaxHealth)
	r.CurrentStress = clamp(r.CurrentStress, 0, r.MaxStress)
	if r.States == nil {
		r.States = []string{}
	}
	if r.Effects == nil {
		r.Effects = []string{}
	}
}

func copyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
