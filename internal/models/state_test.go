// ABOUTME: Tests for marked-item set merging
// ABOUTME: Verifies last-writer-wins semantics and merge commutativity

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeByNewestDisjoint(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	local := []HiddenEntry{{ID: "a", HiddenAt: t1}}
	remote := []HiddenEntry{{ID: "b", HiddenAt: t2}}

	merged := MergeByNewest(local, remote)
	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
}

func TestMergeByNewestNewerWins(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Minute)

	local := []StarredEntry{{ID: "a", StarredAt: older}}
	remote := []StarredEntry{{ID: "a", StarredAt: newer}}

	merged := MergeByNewest(local, remote)
	require.Len(t, merged, 1)
	assert.Equal(t, newer, merged[0].StarredAt)

	// Same result with the sides swapped.
	swapped := MergeByNewest(remote, local)
	assert.Equal(t, merged, swapped)
}

func TestMergeByNewestLocalWinsOnTie(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	local := []HiddenEntry{{ID: "a", HiddenAt: at}}
	remote := []HiddenEntry{{ID: "a", HiddenAt: at}}

	merged := MergeByNewest(local, remote)
	require.Len(t, merged, 1)
}

func TestMergeByNewestDropsEmptyIDs(t *testing.T) {
	at := time.Now().UTC()
	local := []HiddenEntry{{ID: "", HiddenAt: at}, {ID: "a", HiddenAt: at}}

	merged := MergeByNewest(local, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "a", merged[0].ID)
}

func TestMergeByNewestSortedByStamp(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	local := []HiddenEntry{
		{ID: "c", HiddenAt: base.Add(2 * time.Hour)},
		{ID: "a", HiddenAt: base},
	}
	remote := []HiddenEntry{
		{ID: "b", HiddenAt: base.Add(time.Hour)},
	}

	merged := MergeByNewest(local, remote)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
}

func TestMarkedIDs(t *testing.T) {
	entries := []StarredEntry{{ID: "x"}, {ID: "y"}}
	ids := MarkedIDs(entries)
	assert.True(t, ids["x"])
	assert.True(t, ids["y"])
	assert.False(t, ids["z"])
}
