// ABOUTME: Tests for the pudge-backed local store
// ABOUTME: Verifies schema migration, fetch ordinals, and state record round-trips

package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
)

func openTestStore(t *testing.T) *PudgeStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMigratesToCurrentVersion(t *testing.T) {
	s := openTestStore(t)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.PutItem(&models.Item{GUID: "a", Title: "first"}))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	v, err := s2.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	item, err := s2.GetItem("a")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "first", item.Title)
}

func TestGetItemMissingIsNil(t *testing.T) {
	s := openTestStore(t)
	item, err := s.GetItem("nope")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestPutItemAssignsAndPreservesSeq(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutItem(&models.Item{GUID: "a"}))
	require.NoError(t, s.PutItem(&models.Item{GUID: "b"}))

	a, err := s.GetItem("a")
	require.NoError(t, err)
	b, err := s.GetItem("b")
	require.NoError(t, err)
	assert.Less(t, a.Seq, b.Seq)

	// Re-persisting keeps the original ordinal.
	require.NoError(t, s.PutItem(&models.Item{GUID: "a", Title: "updated"}))
	a2, err := s.GetItem("a")
	require.NoError(t, err)
	assert.Equal(t, a.Seq, a2.Seq)
	assert.Equal(t, "updated", a2.Title)
}

func TestAllItemsInFetchOrder(t *testing.T) {
	s := openTestStore(t)

	for _, guid := range []string{"z", "m", "a"} {
		require.NoError(t, s.PutItem(&models.Item{GUID: guid}))
	}

	items, err := s.AllItems()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "z", items[0].GUID)
	assert.Equal(t, "m", items[1].GUID)
	assert.Equal(t, "a", items[2].GUID)
}

func TestDeleteItem(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutItem(&models.Item{GUID: "a"}))
	require.NoError(t, s.DeleteItem("a"))

	item, err := s.GetItem("a")
	require.NoError(t, err)
	assert.Nil(t, item)

	// Deleting an absent key is a no-op.
	require.NoError(t, s.DeleteItem("a"))

	count, err := s.CountItems()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutState(models.KeyFilterMode, "unread"))

	rec, err := s.GetState(models.KeyFilterMode)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.KeyFilterMode, rec.Key)
	assert.False(t, rec.LastModified.IsZero())

	var mode string
	require.NoError(t, json.Unmarshal(rec.Value, &mode))
	assert.Equal(t, "unread", mode)
}

func TestGetStateMissingIsNil(t *testing.T) {
	s := openTestStore(t)
	rec, err := s.GetState("nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStateValueOrDefaults(t *testing.T) {
	s := openTestStore(t)

	enabled, err := StateValueOr(s, models.KeySyncEnabled, true)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.PutState(models.KeySyncEnabled, false))
	enabled, err = StateValueOr(s, models.KeySyncEnabled, true)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestStateValueOrMalformedDegrades(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutStateRecord(StateRecord{
		Key:          models.KeyShuffleCount,
		Value:        json.RawMessage(`"not a number"`),
		LastModified: time.Now().UTC(),
	}))

	count, err := StateValueOr(s, models.KeyShuffleCount, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteState(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutState(models.KeyTheme, "dark"))
	require.NoError(t, s.DeleteState(models.KeyTheme))

	rec, err := s.GetState(models.KeyTheme)
	require.NoError(t, err)
	assert.Nil(t, rec)
}
