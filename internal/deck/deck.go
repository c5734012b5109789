// ABOUTME: Deck selection: bounded working set of unread items over the local store
// ABOUTME: Deterministic most-recent-first fill plus a rate-limited daily shuffle

package deck

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
	"github.com/tim-projects/not-the-news-sub002/internal/store"
	"github.com/tim-projects/not-the-news-sub002/internal/timeutil"
)

const (
	// Size bounds the deck.
	Size = 10
	// DailyShuffleLimit is how many shuffles a local day allows.
	DailyShuffleLimit = 2
)

var (
	// ErrShuffleLimit means today's shuffle budget is spent.
	ErrShuffleLimit = errors.New("daily shuffle limit reached")
	// ErrNoCandidates means no unread item outside the deck remains.
	ErrNoCandidates = errors.New("no unread items outside the current deck")
)

// Saver persists deck and shuffle-counter changes. The syncer implements
// it so every deck mutation rides the buffered-change push path.
type Saver interface {
	SaveDeck(ids []string) error
	SaveShuffleState(count int, resetDate string) error
}

// Selector derives the current deck from the local item set.
type Selector struct {
	store store.Store
	saver Saver
	log   *logrus.Entry
	now   func() time.Time
	rng   *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// WithRand overrides the shuffle source, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

func New(st store.Store, saver Saver, log *logrus.Entry, opts ...Option) *Selector {
	s := &Selector{
		store: st,
		saver: saver,
		log:   log,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the persisted deck. Malformed state degrades to empty.
func (s *Selector) Current() []string {
	ids, err := store.StateValueOr(s.store, models.KeyCurrentDeck, []string{})
	if err != nil {
		s.log.WithError(err).Warn("could not load deck, treating as empty")
		return nil
	}
	return ids
}

// Ensure returns a usable deck: it applies the new-day reset, and when
// the persisted deck has no unread member left it loads a fresh one. A
// deck whose members are all hidden counts as empty.
func (s *Selector) Ensure() ([]string, error) {
	if _, err := s.resetIfNewDay(); err != nil {
		return nil, err
	}
	current := s.Current()
	if len(current) > 0 {
		unread, err := s.unreadIDs()
		if err != nil {
			return nil, err
		}
		for _, id := range current {
			if unread[id] {
				return current, nil
			}
		}
	}
	return s.LoadNext()
}

// LoadNext replaces the deck with up to Size unread items, newest
// publication first. Ties keep original fetch order; the item listing is
// already in fetch order, so a stable sort preserves it.
func (s *Selector) LoadNext() ([]string, error) {
	items, err := s.unreadItems()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt().After(items[j].PublishedAt())
	})

	ids := make([]string, 0, Size)
	for _, it := range items {
		if len(ids) == Size {
			break
		}
		ids = append(ids, it.GUID)
	}
	if err := s.saver.SaveDeck(ids); err != nil {
		return nil, err
	}
	s.log.WithField("size", len(ids)).Debug("loaded next deck")
	return ids, nil
}

// Shuffle replaces the deck with a uniformly random selection of up to
// Size unread items not already in the deck, and spends one unit of
// today's budget. ErrShuffleLimit and ErrNoCandidates leave the deck and
// counter untouched.
func (s *Selector) Shuffle() ([]string, error) {
	count, err := s.resetIfNewDay()
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, ErrShuffleLimit
	}

	inDeck := make(map[string]bool)
	for _, id := range s.Current() {
		inDeck[id] = true
	}
	items, err := s.unreadItems()
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0, len(items))
	for _, it := range items {
		if !inDeck[it.GUID] {
			candidates = append(candidates, it.GUID)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > Size {
		candidates = candidates[:Size]
	}

	if err := s.saver.SaveDeck(candidates); err != nil {
		return nil, err
	}
	if err := s.saver.SaveShuffleState(count-1, timeutil.DayString(s.now())); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"size": len(candidates), "remaining": count - 1}).Debug("shuffled deck")
	return candidates, nil
}

// Remove drops an identifier from the deck in place. When that leaves
// the deck with no unread member, a fresh deck is loaded.
func (s *Selector) Remove(id string) ([]string, error) {
	current := s.Current()
	next := make([]string, 0, len(current))
	for _, member := range current {
		if member != id {
			next = append(next, member)
		}
	}
	if len(next) == len(current) {
		return current, nil
	}
	if err := s.saver.SaveDeck(next); err != nil {
		return nil, err
	}

	unread, err := s.unreadIDs()
	if err != nil {
		return nil, err
	}
	for _, member := range next {
		if unread[member] {
			return next, nil
		}
	}
	return s.LoadNext()
}

// ShufflesRemaining reports today's remaining shuffle budget without
// spending it.
func (s *Selector) ShufflesRemaining() (int, error) {
	return s.resetIfNewDay()
}

// resetIfNewDay restores the shuffle budget and clears the deck on the
// first call of a new local day, and returns the remaining budget.
func (s *Selector) resetIfNewDay() (int, error) {
	today := timeutil.DayString(s.now())
	last, err := store.StateValueOr(s.store, models.KeyLastShuffleResetDate, "")
	if err != nil {
		return 0, err
	}
	if last == today {
		count, err := store.StateValueOr(s.store, models.KeyShuffleCount, DailyShuffleLimit)
		if err != nil {
			s.log.WithError(err).Warn("malformed shuffle count, resetting to limit")
			count = DailyShuffleLimit
		}
		return count, nil
	}

	if err := s.saver.SaveShuffleState(DailyShuffleLimit, today); err != nil {
		return 0, err
	}
	// Only a real day rollover clears the deck; first run has nothing
	// to reset and must not wipe a deck pulled from the server.
	if last != "" {
		if err := s.saver.SaveDeck(nil); err != nil {
			return 0, err
		}
		s.log.WithField("date", today).Debug("new day, shuffle budget reset and deck cleared")
	}
	return DailyShuffleLimit, nil
}

// unreadItems lists locally stored items that are not hidden, in fetch
// order.
func (s *Selector) unreadItems() ([]models.Item, error) {
	items, err := s.store.AllItems()
	if err != nil {
		return nil, err
	}
	hidden, err := store.StateValueOr(s.store, models.KeyHidden, []models.HiddenEntry{})
	if err != nil {
		s.log.WithError(err).Warn("could not load hidden state, treating as empty")
		hidden = nil
	}
	hiddenIDs := models.MarkedIDs(hidden)

	unread := items[:0:0]
	for _, it := range items {
		if !hiddenIDs[it.GUID] {
			unread = append(unread, it)
		}
	}
	return unread, nil
}

// unreadIDs is unreadItems reduced to a membership set.
func (s *Selector) unreadIDs() (map[string]bool, error) {
	items, err := s.unreadItems()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(items))
	for _, it := range items {
		ids[it.GUID] = true
	}
	return ids, nil
}
