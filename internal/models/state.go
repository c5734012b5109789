// ABOUTME: User-state value shapes and the state key registry
// ABOUTME: Provides timestamp-based last-writer-wins merging for marked-item sets

package models

import (
	"sort"
	"time"
)

// Well-known userState keys. Hidden and Starred hold marked-item sets,
// CurrentDeck holds the presented deck, the rest are scalars or sync
// metadata.
const (
	KeyHidden               = "hidden"
	KeyStarred              = "starred"
	KeyCurrentDeck          = "currentDeck"
	KeySyncEnabled          = "syncEnabled"
	KeyImagesEnabled        = "imagesEnabled"
	KeyFilterMode           = "filterMode"
	KeyShuffleCount         = "shuffleCount"
	KeyLastShuffleResetDate = "lastShuffleResetDate"
	KeyTheme                = "theme"
	KeyFeedScrollY          = "feedScrollY"
	KeyFeedVisibleLink      = "feedVisibleLink"
	KeyLastStateSync        = "lastStateSync"
)

// ScalarKeys lists the settings keys whose values are overwritten
// wholesale on pull and pushed whole on change.
var ScalarKeys = []string{
	KeySyncEnabled,
	KeyImagesEnabled,
	KeyFilterMode,
	KeyShuffleCount,
	KeyLastShuffleResetDate,
	KeyTheme,
	KeyFeedScrollY,
	KeyFeedVisibleLink,
}

// HiddenEntry marks an item as hidden. Entries are unique by ID; the
// newer HiddenAt wins when local and remote copies disagree.
type HiddenEntry struct {
	ID       string    `json:"id"`
	HiddenAt time.Time `json:"hiddenAt"`
}

func (h HiddenEntry) Key() string      { return h.ID }
func (h HiddenEntry) Stamp() time.Time { return h.HiddenAt }

// StarredEntry marks an item as starred, with the same set semantics
// as HiddenEntry.
type StarredEntry struct {
	ID        string    `json:"id"`
	StarredAt time.Time `json:"starredAt"`
}

func (s StarredEntry) Key() string      { return s.ID }
func (s StarredEntry) Stamp() time.Time { return s.StarredAt }

// Marked is a set element keyed by item ID and stamped with the time the
// mark was applied.
type Marked interface {
	Key() string
	Stamp() time.Time
}

// MergeByNewest merges two marked-item sets with field-level
// last-writer-wins. An entry present on only one side is retained as-is;
// an entry present on both is kept from whichever side has the newer
// stamp. The result is sorted by stamp ascending, oldest mark first, so
// merge order does not affect the output.
func MergeByNewest[T Marked](local, remote []T) []T {
	byID := make(map[string]T, len(local)+len(remote))
	for _, e := range local {
		if e.Key() == "" {
			continue
		}
		byID[e.Key()] = e
	}
	for _, e := range remote {
		if e.Key() == "" {
			continue
		}
		if cur, ok := byID[e.Key()]; !ok || e.Stamp().After(cur.Stamp()) {
			byID[e.Key()] = e
		}
	}

	merged := make([]T, 0, len(byID))
	for _, e := range byID {
		merged = append(merged, e)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Stamp().Equal(merged[j].Stamp()) {
			return merged[i].Key() < merged[j].Key()
		}
		return merged[i].Stamp().Before(merged[j].Stamp())
	})
	return merged
}

// MarkedIDs extracts the ID set from a marked-item list.
func MarkedIDs[T Marked](entries []T) map[string]bool {
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.Key()] = true
	}
	return ids
}
