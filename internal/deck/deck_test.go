// ABOUTME: Tests for deck selection, shuffle rate limiting, and auto-refill
// ABOUTME: Uses a store-backed saver double so no network is involved

package deck

import (
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
)

// storeSaver persists straight to the store, standing in for the syncer.
type storeSaver struct {
	st store.Store
}

func (s *storeSaver) SaveDeck(ids []string) error {
	return s.st.PutState(models.KeyCurrentDeck, ids)
}

func (s *storeSaver) SaveShuffleState(count int, resetDate string) error {
	if err := s.st.PutState(models.KeyShuffleCount, count); err != nil {
		return err
	}
	return s.st.PutState(models.KeyLastShuffleResetDate, resetDate)
}

func newTestSelector(t *testing.T, now func() time.Time) (*Selector, store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	sel := New(st, &storeSaver{st: st}, logrus.NewEntry(quiet),
		WithNow(now),
		WithRand(rand.New(rand.NewSource(1))))
	return sel, st
}

func fixedDay() time.Time {
	return time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local)
}

func seedItems(t *testing.T, st store.Store, n int) {
	t.Helper()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, st.PutItem(&models.Item{
			GUID:    fmt.Sprintf("item-%02d", i),
			Title:   fmt.Sprintf("Item %d", i),
			PubDate: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
		}))
	}
}

func TestLoadNextIsBoundedAndNewestFirst(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 15)

	ids, err := sel.LoadNext()
	require.NoError(t, err)
	require.Len(t, ids, Size)

	// item-14 has the latest publication date.
	assert.Equal(t, "item-14", ids[0])
	assert.Equal(t, "item-05", ids[Size-1])
}

func TestLoadNextTiesKeepFetchOrder(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	for _, guid := range []string{"first", "second", "third"} {
		require.NoError(t, st.PutItem(&models.Item{GUID: guid, PubDate: "2026-05-01T00:00:00Z"}))
	}

	ids, err := sel.LoadNext()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestLoadNextExcludesHidden(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 3)
	require.NoError(t, st.PutState(models.KeyHidden, []models.HiddenEntry{
		{ID: "item-01", HiddenAt: time.Now().UTC()},
	}))

	ids, err := sel.LoadNext()
	require.NoError(t, err)
	assert.NotContains(t, ids, "item-01")
	assert.Len(t, ids, 2)
}

func TestLoadNextEmptyStoreDegrades(t *testing.T) {
	sel, _ := newTestSelector(t, fixedDay)
	ids, err := sel.LoadNext()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestShuffleReplacesDeckWithNonMembers(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 25)

	before, err := sel.LoadNext()
	require.NoError(t, err)

	after, err := sel.Shuffle()
	require.NoError(t, err)
	require.Len(t, after, Size)
	for _, id := range after {
		assert.NotContains(t, before, id, "shuffle must draw from outside the deck")
	}
}

func TestShuffleRateLimit(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 40)

	for i := 0; i < DailyShuffleLimit; i++ {
		_, err := sel.Shuffle()
		require.NoError(t, err, "shuffle %d within the budget", i+1)
	}

	_, err := sel.Shuffle()
	assert.ErrorIs(t, err, ErrShuffleLimit)

	remaining, err := sel.ShufflesRemaining()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestShuffleBudgetResetsAtMidnight(t *testing.T) {
	now := fixedDay()
	sel, st := newTestSelector(t, func() time.Time { return now })
	seedItems(t, st, 40)

	for i := 0; i < DailyShuffleLimit; i++ {
		_, err := sel.Shuffle()
		require.NoError(t, err)
	}
	_, err := sel.Shuffle()
	require.ErrorIs(t, err, ErrShuffleLimit)

	// Next local day: budget restored, deck cleared.
	now = now.AddDate(0, 0, 1)
	remaining, err := sel.ShufflesRemaining()
	require.NoError(t, err)
	assert.Equal(t, DailyShuffleLimit, remaining)
	assert.Empty(t, sel.Current())

	_, err = sel.Shuffle()
	assert.NoError(t, err)
}

func TestShuffleNoCandidates(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 5)

	// All five unread items are already in the deck.
	_, err := sel.LoadNext()
	require.NoError(t, err)

	_, err = sel.Shuffle()
	assert.ErrorIs(t, err, ErrNoCandidates)

	remaining, err := sel.ShufflesRemaining()
	require.NoError(t, err)
	assert.Equal(t, DailyShuffleLimit, remaining, "a no-op shuffle spends no budget")
}

func TestRemoveShrinksDeckInPlace(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 12)

	ids, err := sel.LoadNext()
	require.NoError(t, err)
	require.Len(t, ids, Size)

	after, err := sel.Remove(ids[3])
	require.NoError(t, err)
	assert.Len(t, after, Size-1)
	assert.NotContains(t, after, ids[3])
}

func TestRemoveRefillsWhenDeckGoesUnread(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 4)

	ids, err := sel.LoadNext()
	require.NoError(t, err)
	require.Len(t, ids, 4)

	// Hide three, then remove them plus the last one.
	var hidden []models.HiddenEntry
	for _, id := range ids {
		hidden = append(hidden, models.HiddenEntry{ID: id, HiddenAt: time.Now().UTC()})
	}
	require.NoError(t, st.PutState(models.KeyHidden, hidden[:3]))

	deck := ids
	for _, id := range ids[:3] {
		deck, err = sel.Remove(id)
		require.NoError(t, err)
	}
	// One unread member left: no refill yet.
	assert.Equal(t, []string{ids[3]}, deck)

	require.NoError(t, st.PutState(models.KeyHidden, hidden))
	deck, err = sel.Remove(ids[3])
	require.NoError(t, err)
	assert.Empty(t, deck, "everything is read, refill yields an empty deck")
}

func TestEnsureRefillsAllHiddenDeck(t *testing.T) {
	sel, st := newTestSelector(t, fixedDay)
	seedItems(t, st, 6)

	ids, err := sel.LoadNext()
	require.NoError(t, err)
	require.Len(t, ids, 6)

	// Hide the first three and force them to be the whole deck.
	var hidden []models.HiddenEntry
	for _, id := range ids[:3] {
		hidden = append(hidden, models.HiddenEntry{ID: id, HiddenAt: time.Now().UTC()})
	}
	require.NoError(t, st.PutState(models.KeyHidden, hidden))
	require.NoError(t, st.PutState(models.KeyCurrentDeck, ids[:3]))

	deck, err := sel.Ensure()
	require.NoError(t, err)
	require.Len(t, deck, 3)
	for _, id := range deck {
		assert.NotContains(t, ids[:3], id)
	}
}
