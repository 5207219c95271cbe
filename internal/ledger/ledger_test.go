package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerex/internal/money"
)

func TestCreditAccumulatesBalance(t *testing.T) {
	m := New()
	require.NoError(t, m.Credit("alice", "USD", 1, money.FromUint64(100)))
	require.NoError(t, m.Credit("alice", "USD", 2, money.FromUint64(50)))
	assert.True(t, m.Balance("alice", "USD").Cmp(money.FromUint64(150)) == 0)
	assert.Equal(t, 2, m.CreditCount("alice"))
}

func TestFailNextFailsExactlyOneCall(t *testing.T) {
	m := New()
	boom := errors.New("boom")
	m.FailNext(boom)

	err := m.Credit("alice", "USD", 1, money.FromUint64(100))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.CreditCount("alice"))

	require.NoError(t, m.Credit("alice", "USD", 1, money.FromUint64(100)))
	assert.Equal(t, 1, m.CreditCount("alice"))
}

func TestBalanceIgnoresOtherTokens(t *testing.T) {
	m := New()
	require.NoError(t, m.Credit("alice", "USD", 1, money.FromUint64(100)))
	require.NoError(t, m.Credit("alice", "EUR", 2, money.FromUint64(900)))
	assert.True(t, m.Balance("alice", "USD").Cmp(money.FromUint64(100)) == 0)
}
