// ABOUTME: Tests for the Item model
// ABOUTME: Verifies publication-date parsing and staleness checks

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishedAtFormats(t *testing.T) {
	tests := []struct {
		name    string
		pubDate string
		want    time.Time
	}{
		{
			name:    "RFC3339",
			pubDate: "2026-03-01T10:30:00Z",
			want:    time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "RFC1123Z",
			pubDate: "Sun, 01 Mar 2026 10:30:00 +0000",
			want:    time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "date only",
			pubDate: "2026-03-01",
			want:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			pubDate: "",
			want:    time.Time{},
		},
		{
			name:    "garbage",
			pubDate: "not a date",
			want:    time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{PubDate: tt.pubDate}
			got := item.PublishedAt()
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestStaleBefore(t *testing.T) {
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	fresh := Item{LastSync: cutoff.Add(time.Hour).UnixMilli()}
	stale := Item{LastSync: cutoff.Add(-time.Hour).UnixMilli()}
	never := Item{} // zero LastSync is epoch, always stale

	assert.False(t, fresh.StaleBefore(cutoff))
	assert.True(t, stale.StaleBefore(cutoff))
	assert.True(t, never.StaleBefore(cutoff))
}
