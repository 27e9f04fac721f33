package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	ErrInvalidCount = errors.New("invalid dice count")
	ErrInvalidSides = errors.New("invalid dice size")
)

// RollResult is the raw draw produced by a Roller
type RollResult struct {
	Total    int
	Rolls    []int
	Bonus    int
	Count    int
	Sides    int
	RawTotal int
}

// First returns the first die face, or 0 when nothing was rolled
func (r *RollResult) First() int {
	if r == nil || len(r.Rolls) == 0 {
		return 0
	}
	return r.Rolls[0]
}

func (r *RollResult) String() string {
	compact := strings.ReplaceAll(fmt.Sprintf("%v", r.Rolls), " ", "")
	return fmt.Sprintf("%dd%d%+d = %d %s", r.Count, r.Sides, r.Bonus, r.Total, compact)
}

// Roll draws count dice of the given size from the shared generator
func Roll(count, sides, bonus int) (*RollResult, error) {
	return roll(rand.IntN, count, sides, bonus)
}

func roll(intn func(int) int, count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if sides < 1 {
		return nil, ErrInvalidSides
	}

	rolls := make([]int, count)
	rawTotal := 0
	for i := 0; i < count; i++ {
		rolls[i] = intn(sides) + 1
		rawTotal += rolls[i]
	}

	return &RollResult{
		Total:    rawTotal + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: rawTotal,
	}, nil
}
