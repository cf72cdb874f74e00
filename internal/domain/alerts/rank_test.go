package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPriorityOrder(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := []Alert{
		{ID: "low", Priority: PriorityLow, CreatedAt: base},
		{ID: "high", Priority: PriorityHigh, CreatedAt: base},
		{ID: "medium", Priority: PriorityMedium, CreatedAt: base},
	}

	ranked := Rank(list)

	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].ID)
	assert.Equal(t, "medium", ranked[1].ID)
	assert.Equal(t, "low", ranked[2].ID)
}

func TestRankRecencyBreaksTies(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := []Alert{
		{ID: "older", Priority: PriorityHigh, CreatedAt: base},
		{ID: "newer", Priority: PriorityHigh, CreatedAt: base.Add(time.Hour)},
	}

	ranked := Rank(list)

	assert.Equal(t, "newer", ranked[0].ID)
	assert.Equal(t, "older", ranked[1].ID)
}

func TestRankStable(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := []Alert{
		{ID: "first", Priority: PriorityMedium, CreatedAt: base},
		{ID: "second", Priority: PriorityMedium, CreatedAt: base},
		{ID: "third", Priority: PriorityMedium, CreatedAt: base},
	}

	once := Rank(list)
	twice := Rank(once)

	assert.Equal(t, once, twice, "re-sorting identical inputs must not reorder equal-key items")
	assert.Equal(t, "first", once[0].ID)
	assert.Equal(t, "second", once[1].ID)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := []Alert{
		{ID: "low", Priority: PriorityLow, CreatedAt: base},
		{ID: "high", Priority: PriorityHigh, CreatedAt: base},
	}

	_ = Rank(list)

	assert.Equal(t, "low", list[0].ID)
}
