package dice_test

import (
	"testing"

	"github.com/KirkDiggler/charsheet/internal/dice"
	mockdice "github.com/KirkDiggler/charsheet/internal/dice/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualMockRoller_Roll(t *testing.T) {
	tests := []struct {
		name       string
		setupRolls []int
		count      int
		sides      int
		bonus      int
		wantTotal  int
		wantRolls  []int
		wantErr    bool
	}{
		{
			name:       "single d20 roll",
			setupRolls: []int{15},
			count:      1,
			sides:      20,
			wantTotal:  15,
			wantRolls:  []int{15},
		},
		{
			name:       "2d6+3",
			setupRolls: []int{4, 5},
			count:      2,
			sides:      6,
			bonus:      3,
			wantTotal:  12,
			wantRolls:  []int{4, 5},
		},
		{
			name:       "not enough rolls",
			setupRolls: []int{10},
			count:      2,
			sides:      6,
			wantErr:    true,
		},
		{
			name:       "invalid roll for die size",
			setupRolls: []int{7},
			count:      1,
			sides:      6,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller(tt.setupRolls...)

			result, err := roller.Roll(tt.count, tt.sides, tt.bonus)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.Equal(t, 0, roller.Remaining())
		})
	}
}

func TestRandomRoller_StaysInRange(t *testing.T) {
	roller := dice.NewRandomRoller()

	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		result, err := roller.Roll(1, 20, 0)
		require.NoError(t, err)
		require.Len(t, result.Rolls, 1)
		assert.GreaterOrEqual(t, result.First(), 1)
		assert.LessOrEqual(t, result.First(), 20)
		seen[result.First()] = true
	}

	assert.True(t, seen[1], "expected a 1 in 2000 rolls")
	assert.True(t, seen[20], "expected a 20 in 2000 rolls")
}

func TestRoll_RejectsBadInput(t *testing.T) {
	_, err := dice.Roll(0, 20, 0)
	assert.ErrorIs(t, err, dice.ErrInvalidCount)

	_, err = dice.Roll(1, 0, 0)
	assert.ErrorIs(t, err, dice.ErrInvalidSides)
}

func TestRollResult_String(t *testing.T) {
	result := &dice.RollResult{Total: 12, Rolls: []int{4, 5}, Bonus: 3, Count: 2, Sides: 6, RawTotal: 9}
	assert.Equal(t, "2d6+3 = 12 [4,5]", result.String())
}
