// ABOUTME: Sync engine coordinating local store and remote server
// ABOUTME: Single-flight guarded full sync: pending ops, state pull, feed sync, prune

package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
	"github.com/tim-projects/not-the-news-sub002/internal/transport"
)

// ErrSyncInFlight is returned when a sync operation is invoked while
// another is running. Callers treat it as a clean no-op.
var ErrSyncInFlight = errors.New("sync already in flight")

// Syncer reconciles the local store with the remote server. All
// starred/hidden/scalar mutations go through it so local writes and
// their remote propagation stay paired.
type Syncer struct {
	store  store.Store
	client *transport.Client
	log    *logrus.Entry
	coord  *coordinator
	now    func() time.Time

	// flight serializes sync passes; TryLock rejects overlap instead of
	// queueing a second pass behind the first.
	flight sync.Mutex
}

// New creates a Syncer over the given store and transport.
func New(st store.Store, client *transport.Client, log *logrus.Entry) *Syncer {
	return &Syncer{
		store:  st,
		client: client,
		log:    log,
		coord:  newCoordinator(),
		now:    time.Now,
	}
}

// Online reports the transport's connectivity signal.
func (s *Syncer) Online() bool { return s.client.Online() }

// SyncEnabled reports the syncEnabled scalar, defaulting to true.
func (s *Syncer) SyncEnabled() bool {
	enabled, err := store.StateValueOr(s.store, models.KeySyncEnabled, true)
	if err != nil {
		s.log.WithError(err).Warn("could not read syncEnabled, assuming enabled")
		return true
	}
	return enabled
}

// PendingCount reports how many operations await retry.
func (s *Syncer) PendingCount() int { return s.coord.pendingCount() }

// BufferedCount reports how many state keys await the next push cycle.
func (s *Syncer) BufferedCount() int { return s.coord.bufferedCount() }

// Cursor returns the last persisted user-state sync cursor.
func (s *Syncer) Cursor() string {
	cursor, err := store.StateValueOr(s.store, models.KeyLastStateSync, "")
	if err != nil {
		s.log.WithError(err).Warn("could not read sync cursor")
		return ""
	}
	return cursor
}

// SyncFeed reconciles the items collection against the server's
// authoritative identifier set. See syncFeed for the pass itself.
func (s *Syncer) SyncFeed(ctx context.Context) (time.Time, error) {
	if !s.flight.TryLock() {
		return time.Time{}, ErrSyncInFlight
	}
	defer s.flight.Unlock()
	return s.syncFeed(ctx)
}

// PullUserState merges the server's user state into the local store.
func (s *Syncer) PullUserState(ctx context.Context) (string, error) {
	if !s.flight.TryLock() {
		return "", ErrSyncInFlight
	}
	defer s.flight.Unlock()
	return s.pullUserState(ctx)
}

// FullSync runs one complete pass: replay pending operations, push
// buffered changes, pull user state, sync the feed, then prune hidden
// entries against the post-sync item set. Skipped entirely when sync is
// disabled.
func (s *Syncer) FullSync(ctx context.Context) error {
	if !s.SyncEnabled() {
		s.log.Debug("sync disabled, skipping full sync")
		return nil
	}
	if !s.flight.TryLock() {
		return ErrSyncInFlight
	}
	defer s.flight.Unlock()

	if err := s.processPendingOperations(ctx); err != nil {
		return err
	}
	if err := s.pushUserState(ctx); err != nil {
		return err
	}
	if _, err := s.pullUserState(ctx); err != nil {
		return err
	}
	serverTime, err := s.syncFeed(ctx)
	if err != nil {
		return err
	}
	if err := s.pruneHidden(ctx, serverTime); err != nil {
		s.log.WithError(err).Warn("hidden-list prune failed")
	}
	return nil
}

// ProcessPendingOperations drains the retry queue once connectivity is
// confirmed.
func (s *Syncer) ProcessPendingOperations(ctx context.Context) error {
	if !s.flight.TryLock() {
		return ErrSyncInFlight
	}
	defer s.flight.Unlock()
	return s.processPendingOperations(ctx)
}

// PushUserState flushes buffered changes to the server.
func (s *Syncer) PushUserState(ctx context.Context) error {
	if !s.flight.TryLock() {
		return ErrSyncInFlight
	}
	defer s.flight.Unlock()
	return s.pushUserState(ctx)
}
