package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerex/internal/common"
	"wagerex/internal/events"
	"wagerex/internal/ledger"
	"wagerex/internal/receipt"
	"wagerex/internal/store"
)

// recordingSink counts every record it receives, enough for the assertions
// in this file without pulling in a real transport.
type recordingSink struct {
	placed, matched, canceled, closed, refunded, rewarded, counters int
}

func (s *recordingSink) OrderPlaced(events.OrderPlaced)                 { s.placed++ }
func (s *recordingSink) OrderMatched(events.OrderMatched)               { s.matched++ }
func (s *recordingSink) OrderCanceled(events.OrderCanceled)             { s.canceled++ }
func (s *recordingSink) MarketClosed(events.MarketClosed)               { s.closed++ }
func (s *recordingSink) BetRefunded(events.BetRefunded)                 { s.refunded++ }
func (s *recordingSink) RewardDistributed(events.RewardDistributed)     { s.rewarded++ }
func (s *recordingSink) StatusCounterUpdated(events.StatusCounterUpdated) { s.counters++ }

func newTestEngine(t *testing.T) (*Engine, *ledger.Memory, *recordingSink) {
	t.Helper()
	led := ledger.New()
	sink := &recordingSink{}
	e := New("owner", led, receipt.New(), store.New(), sink)
	_, err := e.CreateMarket(1, 100, common.FullTimeResult, []uint64{1, 2, 3}, 1000)
	require.NoError(t, err)
	return e, led, sink
}

func TestPlaceOrderExactCrossMatchesBothFully(t *testing.T) {
	e, _, sink := newTestEngine(t)

	_, err := e.PlaceOrder("layer", 1, 1, common.Lay, 200, scaled(100), "tok", 1, 1)
	require.NoError(t, err)
	backID, err := e.PlaceOrder("backer", 1, 1, common.Back, 200, scaled(100), "tok", 2, 2)
	require.NoError(t, err)

	back, err := e.GetOrder(backID)
	require.NoError(t, err)
	assert.Equal(t, common.Matched, back.Status)
	assert.True(t, back.Unmatched.IsZero())

	view, err := e.GetBook(1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), view.BestBackOdds)
	assert.Equal(t, uint64(0), view.BestLayOdds)
	assert.Equal(t, 1, sink.matched)
}

func TestPlaceOrderRejectsUnknownMarket(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.PlaceOrder("x", 999, 1, common.Back, 200, scaled(10), "tok", 1, 1)
	assert.ErrorIs(t, err, ErrUnknownMarket)
}

func TestCancelOrderRefundsUnmatchedOnly(t *testing.T) {
	e, led, _ := newTestEngine(t)
	require.NoError(t, mustPlace(t, e, "layer", common.Lay, 200, 50, 1))
	backID, err := e.PlaceOrder("backer", 1, 1, common.Back, 200, scaled(100), "tok", 2, 2)
	require.NoError(t, err)

	require.NoError(t, e.CancelOrder(backID, 3))

	back, err := e.GetOrder(backID)
	require.NoError(t, err)
	assert.Equal(t, common.Matched, back.Status) // matched > 0, so Matched not Canceled
	assert.True(t, back.Unmatched.IsZero())
	assert.True(t, led.Balance("backer", "tok").Cmp(scaled(50)) == 0)
}

// Expiry refunds only the unmatched residual.
func TestExpireRefundsUnmatchedResidual(t *testing.T) {
	e, led, sink := newTestEngine(t)
	require.NoError(t, mustPlace(t, e, "layer", common.Lay, 200, 50, 1))
	backID, err := e.PlaceOrder("backer", 1, 1, common.Back, 200, scaled(100), "tok", 2, 2)
	require.NoError(t, err)

	require.NoError(t, e.Expire(1, 1000))

	back, err := e.GetOrder(backID)
	require.NoError(t, err)
	assert.Equal(t, common.Matched, back.Status)
	assert.True(t, back.Matched.Cmp(scaled(50)) == 0)
	assert.True(t, led.Balance("backer", "tok").Cmp(scaled(50)) == 0)
	assert.Equal(t, 1, sink.refunded)
	assert.Equal(t, 1, sink.closed)

	m, err := e.market(1)
	require.NoError(t, err)
	assert.Equal(t, common.Closed, m.Status)
}

// Settlement proceeds in resumable batches and is idempotent once Completed.
func TestSettleBatchResumableAndIdempotent(t *testing.T) {
	e, led, _ := newTestEngine(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, mustPlace(t, e, "layer", common.Lay, 200, 10, uint64(i+1)))
		_, err := e.PlaceOrder("backer", 1, 1, common.Back, 200, scaled(10), "tok", uint64(100+i), uint64(i+1))
		require.NoError(t, err)
	}
	require.NoError(t, e.Expire(1, 1000))
	require.NoError(t, e.SetResult("owner", 1, 2, 0)) // home>away, selection 1 wins (FullTimeResult)

	status, err := e.SettleBatch(1, 4)
	require.NoError(t, err)
	assert.Equal(t, common.InProgress, status)

	status, err = e.SettleBatch(1, 100)
	require.NoError(t, err)
	assert.Equal(t, common.Completed, status)

	before := led.CreditCount("backer")
	status, err = e.SettleBatch(1, 100) // idempotent no-op once already Completed
	require.NoError(t, err)
	assert.Equal(t, common.Completed, status)
	assert.Equal(t, before, led.CreditCount("backer"))
}

func TestSetResultUnauthorized(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Expire(1, 1000))
	err := e.SetResult("someone-else", 1, 1, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func mustPlace(t *testing.T, e *Engine, owner string, side common.Side, odds, stake, now uint64) error {
	t.Helper()
	_, err := e.PlaceOrder(owner, 1, 1, side, odds, scaled(stake), "tok", now, now)
	return err
}
