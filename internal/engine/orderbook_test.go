package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerex/internal/common"
	"wagerex/internal/money"
)

func mustOrder(t *testing.T, id uint64, side common.Side, odds uint64, stake uint64, createdAt uint64) *Order {
	t.Helper()
	o, err := NewOrder(id, "owner", 1, 1, side, odds, money.FromUint64(stake*Scale), "tok", id, createdAt)
	require.NoError(t, err)
	return o
}

func TestOrderBookBackOrdering(t *testing.T) {
	book := NewOrderBook(1, 1)
	b1 := mustOrder(t, 1, common.Back, 200, 40, 1)
	b2 := mustOrder(t, 2, common.Back, 200, 60, 2)
	b3 := mustOrder(t, 3, common.Back, 210, 50, 3)

	require.NoError(t, book.Insert(b1))
	require.NoError(t, book.Insert(b2))
	require.NoError(t, book.Insert(b3))

	var order []uint64
	book.Walk(common.Back, func(o *Order) bool {
		order = append(order, o.ID)
		return true
	})
	assert.Equal(t, []uint64{3, 1, 2}, order) // best odds first, ties broken by created_at

	assert.Equal(t, uint64(210), book.BestOdds(common.Back))
	assert.Equal(t, uint64(3), book.Size(common.Back))
}

func TestOrderBookLiquidityTracksUnmatched(t *testing.T) {
	book := NewOrderBook(1, 1)
	o := mustOrder(t, 1, common.Lay, 180, 80, 1)
	require.NoError(t, book.Insert(o))
	assert.True(t, book.Liquidity(common.Lay).Cmp(o.Unmatched) == 0)

	removed, ok := book.Remove(common.Lay, 1)
	require.True(t, ok)
	assert.Equal(t, o, removed)
	assert.True(t, book.Liquidity(common.Lay).IsZero())
	assert.Equal(t, uint64(0), book.BestOdds(common.Lay))
}

func TestOrderBookDuplicateInsertRejected(t *testing.T) {
	book := NewOrderBook(1, 1)
	o := mustOrder(t, 1, common.Back, 200, 10, 1)
	require.NoError(t, book.Insert(o))
	assert.ErrorIs(t, book.Insert(o), ErrDuplicateOrder)
}
