package engine

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerex/internal/common"
	"wagerex/internal/ledger"
	"wagerex/internal/receipt"
	"wagerex/internal/store"
)

func TestSettleBatchPersistsCursor(t *testing.T) {
	st := store.New()
	e := New("owner", ledger.New(), receipt.New(), st, &recordingSink{})
	_, err := e.CreateMarket(1, 1, common.FullTimeResult, []uint64{1, 2}, 100)
	require.NoError(t, err)
	require.NoError(t, mustPlace(t, e, "layer", common.Lay, 200, 10, 1))
	require.NoError(t, mustPlace(t, e, "backer", common.Back, 200, 10, 1))
	require.NoError(t, e.Expire(1, 1000))
	require.NoError(t, e.SetResult("owner", 1, 1, 0))

	_, err = e.SettleBatch(1, 1)
	require.NoError(t, err)

	raw, ok, err := st.Get(cursorKey(1))
	require.NoError(t, err)
	require.True(t, ok)
	cursor, err := strconv.ParseUint(string(raw), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cursor)
}

func TestSettleBatchAbortsOnLedgerFailure(t *testing.T) {
	led := ledger.New()
	e := New("owner", led, receipt.New(), store.New(), &recordingSink{})
	_, err := e.CreateMarket(1, 1, common.FullTimeResult, []uint64{1, 2}, 100)
	require.NoError(t, err)
	require.NoError(t, mustPlace(t, e, "layer", common.Lay, 200, 10, 1))
	require.NoError(t, mustPlace(t, e, "backer", common.Back, 200, 10, 1))
	require.NoError(t, e.Expire(1, 1000))
	require.NoError(t, e.SetResult("owner", 1, 1, 0))

	boom := errors.New("ledger unavailable")
	led.FailNext(boom)

	_, err = e.SettleBatch(1, 10)
	require.Error(t, err)
	var ledgerErr *LedgerError
	require.ErrorAs(t, err, &ledgerErr)

	// The failing bet must still be reachable via the cursor on retry.
	_, err = e.SettleBatch(1, 10)
	require.NoError(t, err)
}
