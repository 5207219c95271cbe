package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueThenBurnRoundTrips(t *testing.T) {
	i := New()
	handle, err := i.Issue(42)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	id, ok := i.OrderFor(handle)
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	require.NoError(t, i.Burn(handle))
	_, ok = i.OrderFor(handle)
	assert.False(t, ok)
}

func TestBurnUnknownHandleFails(t *testing.T) {
	i := New()
	assert.ErrorIs(t, i.Burn("not-a-handle"), ErrUnknownHandle)
}

func TestDoubleBurnFails(t *testing.T) {
	i := New()
	handle, err := i.Issue(1)
	require.NoError(t, err)
	require.NoError(t, i.Burn(handle))
	assert.ErrorIs(t, i.Burn(handle), ErrUnknownHandle)
}

func TestIssueMintsDistinctHandles(t *testing.T) {
	i := New()
	a, err := i.Issue(1)
	require.NoError(t, err)
	b, err := i.Issue(2)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
