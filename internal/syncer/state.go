// ABOUTME: User-state synchronization: conditional pull with LWW merge, buffered push
// ABOUTME: Toggle operations write locally first, then propagate as deltas

package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
	"github.com/tim-projects/not-the-news-sub002/internal/transport"
)

// maxOpAttempts bounds replay of a persistently failing pending
// operation; past it the op is dropped with an error log.
const maxOpAttempts = 5

// deltaData is the payload of a queued star/hidden delta.
type deltaData struct {
	ID     string    `json:"id"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// pullUserState pulls the server's user state and merges it locally.
// Offline returns ("", nil). A not-modified response returns the
// previous cursor untouched. The cursor is persisted strictly after
// every merged field, so a crash mid-merge re-runs the full merge
// instead of skipping it.
func (s *Syncer) pullUserState(ctx context.Context) (string, error) {
	if !s.client.Online() {
		s.log.Debug("offline, skipping user-state pull")
		return "", nil
	}

	cursor := s.Cursor()
	snap, serverTime, notModified, err := s.client.FetchUserState(ctx, cursor)
	if err != nil {
		return "", fmt.Errorf("fetch user state: %w", err)
	}
	if notModified {
		s.log.WithField("cursor", cursor).Debug("user state not modified")
		return cursor, nil
	}

	localHidden := s.loadHidden()
	mergedHidden := models.MergeByNewest(localHidden, snap.Hidden)
	if err := s.store.PutState(models.KeyHidden, mergedHidden); err != nil {
		return "", fmt.Errorf("merge hidden: %w", err)
	}

	localStarred := s.loadStarred()
	mergedStarred := models.MergeByNewest(localStarred, snap.Starred)
	if err := s.store.PutState(models.KeyStarred, mergedStarred); err != nil {
		return "", fmt.Errorf("merge starred: %w", err)
	}

	// The deck is ephemeral UI state, not user intent: server wins.
	if snap.HasDeck {
		if err := s.store.PutState(models.KeyCurrentDeck, snap.CurrentDeck); err != nil {
			return "", fmt.Errorf("apply deck: %w", err)
		}
	}

	for key, raw := range snap.Scalars {
		rec := store.StateRecord{
			Key:          key,
			Value:        append(json.RawMessage(nil), raw...),
			LastModified: s.now().UTC(),
		}
		if err := s.store.PutStateRecord(rec); err != nil {
			return "", fmt.Errorf("apply scalar %q: %w", key, err)
		}
	}

	if err := s.store.PutState(models.KeyLastStateSync, serverTime); err != nil {
		return "", fmt.Errorf("persist cursor: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"hidden":  len(mergedHidden),
		"starred": len(mergedStarred),
		"scalars": len(snap.Scalars),
	}).Info("user-state pull complete")
	return serverTime, nil
}

// pushUserState drains buffered changes into a single keyed payload.
// Offline or transport failure converts the changes into a pending
// operation and is not an error; an HTTP error status restores the
// buffer and surfaces to the caller.
func (s *Syncer) pushUserState(ctx context.Context) error {
	changes := s.coord.takeBuffered()
	if len(changes) == 0 {
		return nil
	}

	if !s.client.Online() {
		if _, err := s.coord.enqueue(OpPushState, changes); err != nil {
			return err
		}
		s.log.WithField("keys", len(changes)).Info("offline, queued state push")
		return nil
	}

	serverTime, err := s.client.PushUserState(ctx, changes)
	if err != nil {
		if transport.IsOffline(err) || transport.IsTransport(err) {
			if _, qerr := s.coord.enqueue(OpPushState, changes); qerr != nil {
				return qerr
			}
			s.log.WithError(err).Warn("state push failed, queued for retry")
			return nil
		}
		s.coord.restoreBuffered(changes)
		return fmt.Errorf("push user state: %w", err)
	}

	if err := s.store.PutState(models.KeyLastStateSync, serverTime); err != nil {
		return fmt.Errorf("persist cursor: %w", err)
	}
	return nil
}

// processPendingOperations replays queued operations. Each failure
// re-queues that operation alone; past the attempt cap it is dropped.
func (s *Syncer) processPendingOperations(ctx context.Context) error {
	if !s.client.Online() {
		s.log.Debug("offline, keeping pending operations queued")
		return nil
	}

	ops := s.coord.drain()
	if len(ops) == 0 {
		return nil
	}
	s.log.WithField("count", len(ops)).Info("processing pending operations")

	for _, op := range ops {
		err := s.dispatchPending(ctx, op)
		if err == nil {
			continue
		}
		op.Attempts++
		if op.Attempts >= maxOpAttempts {
			s.log.WithError(err).WithFields(logrus.Fields{
				"op":       op.ID,
				"type":     op.Type,
				"attempts": op.Attempts,
			}).Error("dropping pending operation after repeated failures")
			continue
		}
		s.log.WithError(err).WithFields(logrus.Fields{
			"op":   op.ID,
			"type": op.Type,
		}).Warn("pending operation failed, re-queued")
		s.coord.requeue(op)
	}
	return nil
}

func (s *Syncer) dispatchPending(ctx context.Context, op PendingOp) error {
	switch op.Type {
	case OpPushState:
		var changes map[string]json.RawMessage
		if err := json.Unmarshal(op.Data, &changes); err != nil {
			return &transport.MalformedDataError{Op: string(op.Type), Err: err}
		}
		serverTime, err := s.client.PushUserState(ctx, changes)
		if err != nil {
			return err
		}
		return s.store.PutState(models.KeyLastStateSync, serverTime)

	case OpStarDelta:
		var d deltaData
		if err := json.Unmarshal(op.Data, &d); err != nil {
			return &transport.MalformedDataError{Op: string(op.Type), Err: err}
		}
		return s.client.StarredDelta(ctx, d.ID, transport.DeltaAction(d.Action), d.At)

	case OpHiddenDelta:
		var d deltaData
		if err := json.Unmarshal(op.Data, &d); err != nil {
			return &transport.MalformedDataError{Op: string(op.Type), Err: err}
		}
		return s.client.HiddenDelta(ctx, d.ID, transport.DeltaAction(d.Action), d.At)

	default:
		s.log.WithField("type", op.Type).Warn("unknown pending operation type, dropping")
		return nil
	}
}

// Star marks an item starred: local write first, then a delta send.
func (s *Syncer) Star(ctx context.Context, id string) error {
	return s.setStarred(ctx, id, true)
}

// Unstar removes an item from the starred set.
func (s *Syncer) Unstar(ctx context.Context, id string) error {
	return s.setStarred(ctx, id, false)
}

// Hide marks an item hidden: local write first, then a delta send.
func (s *Syncer) Hide(ctx context.Context, id string) error {
	return s.setHidden(ctx, id, true)
}

// Unhide removes an item from the hidden set.
func (s *Syncer) Unhide(ctx context.Context, id string) error {
	return s.setHidden(ctx, id, false)
}

func (s *Syncer) setStarred(ctx context.Context, id string, add bool) error {
	now := s.now().UTC()
	entries := s.loadStarred()
	entries = applyMark(entries, id, add, func() models.StarredEntry {
		return models.StarredEntry{ID: id, StarredAt: now}
	})
	if err := s.store.PutState(models.KeyStarred, entries); err != nil {
		return fmt.Errorf("persist starred: %w", err)
	}
	return s.sendDelta(ctx, OpStarDelta, id, add, now)
}

func (s *Syncer) setHidden(ctx context.Context, id string, add bool) error {
	now := s.now().UTC()
	entries := s.loadHidden()
	entries = applyMark(entries, id, add, func() models.HiddenEntry {
		return models.HiddenEntry{ID: id, HiddenAt: now}
	})
	if err := s.store.PutState(models.KeyHidden, entries); err != nil {
		return fmt.Errorf("persist hidden: %w", err)
	}
	return s.sendDelta(ctx, OpHiddenDelta, id, add, now)
}

// sendDelta propagates one set change. Offline or transport failure
// queues the delta for replay and is not an error; an HTTP error status
// surfaces.
func (s *Syncer) sendDelta(ctx context.Context, t OpType, id string, add bool, at time.Time) error {
	action := transport.DeltaRemove
	if add {
		action = transport.DeltaAdd
	}
	data := deltaData{ID: id, Action: string(action), At: at}

	if !s.client.Online() {
		if _, err := s.coord.enqueue(t, data); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"id": id, "type": t}).Debug("offline, queued delta")
		return nil
	}

	var err error
	switch t {
	case OpStarDelta:
		err = s.client.StarredDelta(ctx, id, action, at)
	case OpHiddenDelta:
		err = s.client.HiddenDelta(ctx, id, action, at)
	}
	if err != nil {
		if transport.IsOffline(err) || transport.IsTransport(err) {
			if _, qerr := s.coord.enqueue(t, data); qerr != nil {
				return qerr
			}
			s.log.WithError(err).WithField("id", id).Warn("delta send failed, queued for retry")
			return nil
		}
		return err
	}
	return nil
}

// SetScalar writes a settings value locally, buffers it, and attempts an
// immediate push cycle.
func (s *Syncer) SetScalar(ctx context.Context, key string, value any) error {
	if err := s.store.PutState(key, value); err != nil {
		return fmt.Errorf("persist %q: %w", key, err)
	}
	if err := s.coord.buffer(key, value); err != nil {
		return err
	}
	if err := s.PushUserState(ctx); err != nil && !errors.Is(err, ErrSyncInFlight) {
		return err
	}
	// An in-flight sync pass will pick the buffered change up on its
	// push leg; nothing is lost.
	return nil
}

// SaveDeck persists the deck order and buffers it for push. The deck is
// pushed whole; it has no delta form.
func (s *Syncer) SaveDeck(ids []string) error {
	if err := s.store.PutState(models.KeyCurrentDeck, ids); err != nil {
		return fmt.Errorf("persist deck: %w", err)
	}
	return s.coord.buffer(models.KeyCurrentDeck, ids)
}

// SaveShuffleState persists the shuffle counter and its reset date and
// buffers both for push.
func (s *Syncer) SaveShuffleState(count int, resetDate string) error {
	if err := s.store.PutState(models.KeyShuffleCount, count); err != nil {
		return fmt.Errorf("persist shuffle count: %w", err)
	}
	if err := s.store.PutState(models.KeyLastShuffleResetDate, resetDate); err != nil {
		return fmt.Errorf("persist shuffle reset date: %w", err)
	}
	if err := s.coord.buffer(models.KeyShuffleCount, count); err != nil {
		return err
	}
	return s.coord.buffer(models.KeyLastShuffleResetDate, resetDate)
}

// pruneHidden drops hidden entries whose item no longer exists locally
// and whose mark is older than the staleness window, measured against
// the same server time as the feed pass. Each removal propagates as a
// hidden delta.
func (s *Syncer) pruneHidden(ctx context.Context, serverTime time.Time) error {
	items, err := s.store.AllItems()
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.GUID] = true
	}

	hidden := s.loadHidden()
	cutoff := serverTime.Add(-StaleWindow)
	kept := hidden[:0:0]
	var pruned []models.HiddenEntry
	for _, e := range hidden {
		if present[e.ID] || e.HiddenAt.After(cutoff) {
			kept = append(kept, e)
			continue
		}
		pruned = append(pruned, e)
	}
	if len(pruned) == 0 {
		return nil
	}

	if err := s.store.PutState(models.KeyHidden, kept); err != nil {
		return fmt.Errorf("persist pruned hidden: %w", err)
	}
	for _, e := range pruned {
		if err := s.sendDelta(ctx, OpHiddenDelta, e.ID, false, s.now().UTC()); err != nil {
			return err
		}
	}
	s.log.WithField("pruned", len(pruned)).Info("pruned stale hidden entries")
	return nil
}

// loadHidden reads the hidden set, degrading to empty on malformed
// state.
func (s *Syncer) loadHidden() []models.HiddenEntry {
	entries, err := store.StateValueOr(s.store, models.KeyHidden, []models.HiddenEntry{})
	if err != nil {
		s.log.WithError(err).Warn("could not load hidden state, treating as empty")
		return nil
	}
	return entries
}

// loadStarred reads the starred set, degrading to empty on malformed
// state.
func (s *Syncer) loadStarred() []models.StarredEntry {
	entries, err := store.StateValueOr(s.store, models.KeyStarred, []models.StarredEntry{})
	if err != nil {
		s.log.WithError(err).Warn("could not load starred state, treating as empty")
		return nil
	}
	return entries
}

// applyMark inserts or removes one marked entry, keeping entries unique
// by id. Re-marking an existing id refreshes its timestamp.
func applyMark[T models.Marked](entries []T, id string, add bool, mark func() T) []T {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Key() != id {
			out = append(out, e)
		}
	}
	if add {
		out = append(out, mark())
	}
	return out
}
