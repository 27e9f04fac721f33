package dice_test

import (
	"sync"
	"testing"

	"github.com/KirkDiggler/charsheet/internal/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_NewestFirstAndBounded(t *testing.T) {
	history := dice.NewHistory(3)

	for die := 1; die <= 5; die++ {
		history.Append(dice.Resolve(die, 0))
	}

	entries := history.List()
	require.Len(t, entries, 3)
	assert.Equal(t, 5, entries[0].DieValue)
	assert.Equal(t, 4, entries[1].DieValue)
	assert.Equal(t, 3, entries[2].DieValue)
}

func TestHistory_AssignsUniqueIDs(t *testing.T) {
	history := dice.NewHistory(0)
	assert.Equal(t, dice.DefaultHistoryLimit, history.Limit())

	first := history.Append(dice.Resolve(3, 1))
	second := history.Append(dice.Resolve(3, 1))

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	kept := history.Append(dice.Outcome{ID: "fixed"})
	assert.Equal(t, "fixed", kept.ID)
}

func TestHistory_ListIsACopy(t *testing.T) {
	history := dice.NewHistory(5)
	history.Append(dice.Resolve(10, 0))

	entries := history.List()
	entries[0].Total = 99

	assert.Equal(t, 10, history.List()[0].Total)
}

func TestHistory_NilIsSafe(t *testing.T) {
	var history *dice.History

	outcome := history.Append(dice.Resolve(2, 2))

	assert.NotEmpty(t, outcome.ID)
	assert.Empty(t, history.List())
	assert.Equal(t, 0, history.Len())
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	history := dice.NewHistory(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			history.Append(dice.Resolve(10, 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, history.Len())
}
