package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *AlertIndex {
	t.Helper()
	ix, err := OpenInMemory(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestAlertIndex_SearchOwnerScope(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.IndexBatch([]AlertDoc{
		{ID: "a1", UserID: 1, Category: "fire", Message: "kitchen fire spreading fast", Status: "pending", CreatedAt: time.Now()},
		{ID: "a2", UserID: 2, Category: "fire", Message: "fire alarm in the lobby", Status: "pending", CreatedAt: time.Now()},
		{ID: "a3", UserID: 1, Category: "medical", Message: "chest pain, needs ambulance", Status: "pending", CreatedAt: time.Now()},
	}))

	res, err := ix.Search("fire", 1, false)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1, "non-admin only sees own alerts")
	assert.Equal(t, "a1", res.Hits[0].ID)

	res, err = ix.Search("fire", 1, true)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 2, "admin sees all matching alerts")
}

func TestAlertIndex_Remove(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Index(AlertDoc{ID: "a1", UserID: 1, Category: "police", Message: "break-in reported", CreatedAt: time.Now()}))
	require.NoError(t, ix.Remove("a1"))

	res, err := ix.Search("break-in", 1, true)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestAlertIndex_ClosedGuard(t *testing.T) {
	ix := newTestIndex(t)
	require.NoError(t, ix.Close())
	assert.ErrorIs(t, ix.Index(AlertDoc{ID: "x"}), ErrClosed)
}
