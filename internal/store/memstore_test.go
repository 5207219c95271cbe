package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	m := New()
	v, ok, err := m.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSetThenGetRoundTrips(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("k", []byte("v1")))
	v, ok, err := m.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)
}

func TestGetReturnsADefensiveCopy(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("k", []byte("v1")))
	v, _, err := m.Get("k")
	require.NoError(t, err)
	v[0] = 'x'

	v2, _, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v2)
}

func TestDeleteRemovesKey(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("k", []byte("v1")))
	require.NoError(t, m.Delete("k"))
	_, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotIsIndependentOfFurtherWrites(t *testing.T) {
	m := New()
	require.NoError(t, m.Set("k", []byte("v1")))
	snap := m.Snapshot()
	require.NoError(t, m.Set("k", []byte("v2")))
	assert.Equal(t, []byte("v1"), snap["k"])
}
