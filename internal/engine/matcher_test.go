package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerex/internal/common"
	"wagerex/internal/money"
)

func scaled(units uint64) money.Scaled { return money.FromUint64(units * Scale) }

// Exact cross: matching stakes at the same odds produce a single fill.
func TestMatchExactCross(t *testing.T) {
	book := NewOrderBook(1, 1)
	l1 := mustOrder(t, 1, common.Lay, 200, 100, 1)
	require.NoError(t, book.Insert(l1))

	b1 := mustOrder(t, 2, common.Back, 200, 100, 2)
	res := Match(b1, book)

	require.Len(t, res.Fills, 1)
	assert.Equal(t, uint64(200), res.Fills[0].Odds)
	assert.True(t, res.Fills[0].Amount.Cmp(scaled(100)) == 0)
	assert.True(t, res.MatchedOwn.Cmp(scaled(100)) == 0)
	assert.True(t, res.ResidualOwn.IsZero())
}

// Price improvement: a Back order crosses a better (lower) Lay odds than its own limit.
func TestMatchPriceImprovement(t *testing.T) {
	book := NewOrderBook(1, 1)
	l1 := mustOrder(t, 1, common.Lay, 180, 100, 1) // liability = 100*(180-100)/100 = 80
	require.NoError(t, book.Insert(l1))
	require.True(t, l1.Liability.Cmp(scaled(80)) == 0)

	b1 := mustOrder(t, 2, common.Back, 200, 100, 2)
	res := Match(b1, book)

	require.Len(t, res.Fills, 1)
	assert.Equal(t, uint64(180), res.Fills[0].Odds) // executes at maker's odds
	assert.True(t, res.MatchedOwn.Cmp(scaled(100)) == 0)
	assert.True(t, res.ResidualOwn.IsZero())
	assert.True(t, res.ProfitDelta.Cmp(scaled(80)) == 0) // 100*(180-100)/100
}

// Partial fill: unmatched remainder stays resting on the book.
func TestMatchPartialFillResidual(t *testing.T) {
	book := NewOrderBook(1, 1)
	l1 := mustOrder(t, 1, common.Lay, 200, 50, 1)
	require.NoError(t, book.Insert(l1))

	b1 := mustOrder(t, 2, common.Back, 200, 100, 2)
	res := Match(b1, book)

	require.Len(t, res.Fills, 1)
	assert.True(t, res.MatchedOwn.Cmp(scaled(50)) == 0)
	assert.True(t, res.ResidualOwn.Cmp(scaled(50)) == 0)
}

// Price-time priority across a mixed-odds book, incoming Lay taker.
func TestMatchPriceTimePriority(t *testing.T) {
	book := NewOrderBook(1, 1)
	b1 := mustOrder(t, 1, common.Back, 200, 40, 1)
	b2 := mustOrder(t, 2, common.Back, 200, 60, 2)
	b3 := mustOrder(t, 3, common.Back, 210, 50, 3)
	require.NoError(t, book.Insert(b1))
	require.NoError(t, book.Insert(b2))
	require.NoError(t, book.Insert(b3))

	l1 := mustOrder(t, 4, common.Lay, 200, 100, 4)
	res := Match(l1, book)

	require.Len(t, res.Fills, 3)
	assert.Equal(t, uint64(3), res.Fills[0].MakerID)
	assert.True(t, res.Fills[0].Amount.Cmp(scaled(50)) == 0)
	assert.Equal(t, uint64(1), res.Fills[1].MakerID)
	assert.True(t, res.Fills[1].Amount.Cmp(scaled(40)) == 0)
	assert.Equal(t, uint64(2), res.Fills[2].MakerID)
	assert.True(t, res.Fills[2].Amount.Cmp(scaled(10)) == 0)
	assert.True(t, res.ResidualOwn.IsZero())
	// L1's own liability (100) is fully consumed at L1's own odds regardless
	// of which maker odds executed each individual fill.
	assert.True(t, res.MatchedOwn.Cmp(l1.Liability) == 0)
}

// No fill crosses the requested price barrier.
func TestMatchNeverCrossesPriceBarrier(t *testing.T) {
	book := NewOrderBook(1, 1)
	require.NoError(t, book.Insert(mustOrder(t, 1, common.Lay, 220, 50, 1)))

	b1 := mustOrder(t, 2, common.Back, 200, 100, 2)
	res := Match(b1, book)
	assert.Empty(t, res.Fills) // lay odds 220 > back limit 200, no cross
}
