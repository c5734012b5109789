// ABOUTME: Feed synchronization pass against the server manifest
// ABOUTME: Deletes stale absentees, batch-fetches new items, refreshes survivors

package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
)

const (
	// StaleWindow is the grace period for items absent from the server
	// manifest before they are deleted locally.
	StaleWindow = 30 * 24 * time.Hour

	// FetchBatchSize bounds one /items request.
	FetchBatchSize = 50
)

// syncFeed runs one reconciliation pass and returns the server timestamp
// it used, so callers can prune against the same time reference.
// Offline is a no-op returning local time. Deletions are applied before
// insertions. Already-processed batches stay committed when a later
// batch fails; the pass is not atomic as a whole.
func (s *Syncer) syncFeed(ctx context.Context) (time.Time, error) {
	if !s.client.Online() {
		s.log.Debug("offline, skipping feed sync")
		return s.now(), nil
	}

	serverTime, err := s.client.ServerTime(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch server time: %w", err)
	}
	guids, err := s.client.GUIDs(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch server manifest: %w", err)
	}

	serverSet := make(map[string]bool, len(guids))
	for _, g := range guids {
		serverSet[g] = true
	}

	local, err := s.store.AllItems()
	if err != nil {
		return time.Time{}, fmt.Errorf("load local items: %w", err)
	}
	localByGUID := make(map[string]models.Item, len(local))
	for _, it := range local {
		localByGUID[it.GUID] = it
	}

	// Absent from the manifest AND stale: delete. Absent but recent:
	// keep, as grace against transient server omissions.
	cutoff := serverTime.Add(-StaleWindow)
	deleted := 0
	for _, it := range local {
		if serverSet[it.GUID] {
			continue
		}
		if !it.StaleBefore(cutoff) {
			continue
		}
		if err := s.store.DeleteItem(it.GUID); err != nil {
			return time.Time{}, fmt.Errorf("delete stale item %q: %w", it.GUID, err)
		}
		delete(localByGUID, it.GUID)
		deleted++
	}

	var newGUIDs []string
	var existing []models.Item
	for _, g := range guids {
		if it, ok := localByGUID[g]; ok {
			existing = append(existing, it)
		} else {
			newGUIDs = append(newGUIDs, g)
		}
	}

	syncMillis := serverTime.UnixMilli()
	fetched := 0
	for start := 0; start < len(newGUIDs); start += FetchBatchSize {
		end := min(start+FetchBatchSize, len(newGUIDs))
		batch := newGUIDs[start:end]

		records, err := s.client.ItemsByGUID(ctx, batch)
		if err != nil {
			return time.Time{}, fmt.Errorf("fetch item batch: %w", err)
		}

		items := make([]models.Item, 0, len(batch))
		for _, g := range batch {
			item, ok := records[g]
			if !ok {
				s.log.WithField("guid", g).Warn("server manifest lists item it would not return")
				continue
			}
			item.GUID = g
			item.LastSync = syncMillis
			items = append(items, item)
		}
		if err := s.store.PutItems(items); err != nil {
			return time.Time{}, fmt.Errorf("persist item batch: %w", err)
		}
		fetched += len(items)
	}

	// Survivors only get their confirmation stamp refreshed; content is
	// not re-fetched.
	for start := 0; start < len(existing); start += FetchBatchSize {
		end := min(start+FetchBatchSize, len(existing))
		for i := start; i < end; i++ {
			it := existing[i]
			it.LastSync = syncMillis
			if err := s.store.PutItem(&it); err != nil {
				return time.Time{}, fmt.Errorf("refresh item %q: %w", it.GUID, err)
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"deleted":   deleted,
		"fetched":   fetched,
		"refreshed": len(existing),
	}).Info("feed sync complete")
	return serverTime, nil
}

// EnsureSeeded runs a feed sync when the items collection is empty, so
// first launch starts from the full server set.
func (s *Syncer) EnsureSeeded(ctx context.Context) (bool, error) {
	n, err := s.store.CountItems()
	if err != nil {
		return false, fmt.Errorf("count items: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.SyncFeed(ctx); err != nil {
		return false, err
	}
	return true, nil
}
