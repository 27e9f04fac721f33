package mockdice

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/charsheet/internal/dice"
)

// ManualMockRoller implements dice.Roller with queued faces
type ManualMockRoller struct {
	mu    sync.Mutex
	queue []int
	calls int
}

// NewManualMockRoller creates a roller that returns rolls in the order given
func NewManualMockRoller(rolls ...int) *ManualMockRoller {
	return &ManualMockRoller{queue: append([]int(nil), rolls...)}
}

// SetNextRoll queues one more face
func (m *ManualMockRoller) SetNextRoll(roll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, roll)
}

// Calls reports how many times Roll was invoked
func (m *ManualMockRoller) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Remaining reports how many queued faces are left
func (m *ManualMockRoller) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Roll implements dice.Roller.Roll
func (m *ManualMockRoller) Roll(count, sides, bonus int) (*dice.RollResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if len(m.queue) < count {
		return nil, fmt.Errorf("need %d queued rolls, have %d", count, len(m.queue))
	}

	rolls := make([]int, count)
	raw := 0
	for i := range rolls {
		face := m.queue[i]
		if face < 1 || face > sides {
			return nil, fmt.Errorf("invalid roll %d for d%d", face, sides)
		}
		rolls[i] = face
		raw += face
	}
	m.queue = m.queue[count:]

	return &dice.RollResult{
		Total:    raw + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: raw,
	}, nil
}
