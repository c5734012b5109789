// ABOUTME: Item model representing a cached feed entry
// ABOUTME: Tracks last server confirmation time for staleness-based expiry

package models

import "time"

// Item is a single feed entry as delivered by the server's batch endpoint.
// GUID is the stable identity; LastSync records the last time the server
// confirmed the item as part of its authoritative set (epoch millis).
type Item struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	LastSync    int64  `json:"lastSync"`

	// Seq is the local fetch ordinal, assigned once on first persist.
	// It breaks publication-date ties so deck ordering stays stable.
	Seq int64 `json:"seq,omitempty"`
}

// pubDateFormats covers the date shapes feeds actually emit.
var pubDateFormats = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PublishedAt parses PubDate. Returns the zero time when the string is
// empty or unparseable; callers treat those items as oldest.
func (it *Item) PublishedAt() time.Time {
	for _, layout := range pubDateFormats {
		if t, err := time.Parse(layout, it.PubDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// LastSyncTime converts the epoch-millis LastSync to a time.Time.
func (it *Item) LastSyncTime() time.Time {
	return time.UnixMilli(it.LastSync)
}

// StaleBefore reports whether the item's last server confirmation
// predates the cutoff.
func (it *Item) StaleBefore(cutoff time.Time) bool {
	return it.LastSyncTime().Before(cutoff)
}
