// ABOUTME: Pudge-backed implementation of the local store
// ABOUTME: One database file per collection plus a meta file with the schema version

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/recoilme/pudge"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
)

// schemaVersion is the current on-disk schema. Version 1 introduced the
// items collection, version 2 added userState. Upgrade steps are
// idempotent and monotonic: a step is skipped once the recorded version
// reaches it.
const schemaVersion = 2

const (
	itemsFile = "items"
	stateFile = "userstate"
	metaFile  = "meta"

	metaKeySchemaVersion = "schema_version"
	metaKeyItemSeq       = "item_seq"
)

// PudgeStore persists both collections in pudge database files under a
// single data directory. Each Get/Put/Delete is one pudge operation,
// which keeps transactions as narrow as the contract requires.
type PudgeStore struct {
	dir   string
	items *pudge.Db
	state *pudge.Db
	meta  *pudge.Db
}

var _ Store = (*PudgeStore)(nil)

// Open opens (creating if needed) the store under dir and applies any
// pending schema upgrades.
func Open(dir string) (*PudgeStore, error) {
	// Owner-only: reading habits are personal data.
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	meta, err := pudge.Open(filepath.Join(dir, metaFile), nil)
	if err != nil {
		return nil, fmt.Errorf("open meta db: %w", err)
	}

	s := &PudgeStore{dir: dir, meta: meta}
	if err := s.migrate(); err != nil {
		_ = meta.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies schema upgrade steps in order. Re-running at the same
// version is a no-op.
func (s *PudgeStore) migrate() error {
	version := 0
	err := s.meta.Get(metaKeySchemaVersion, &version)
	if err != nil && !errors.Is(err, pudge.ErrKeyNotFound) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		items, err := pudge.Open(filepath.Join(s.dir, itemsFile), nil)
		if err != nil {
			return fmt.Errorf("create items collection: %w", err)
		}
		s.items = items
		if err := s.setVersion(1); err != nil {
			return err
		}
		version = 1
	}
	if version < 2 {
		state, err := pudge.Open(filepath.Join(s.dir, stateFile), nil)
		if err != nil {
			return fmt.Errorf("create userState collection: %w", err)
		}
		s.state = state
		if err := s.setVersion(2); err != nil {
			return err
		}
		version = 2
	}

	// Already at current version: just open the collections.
	if s.items == nil {
		items, err := pudge.Open(filepath.Join(s.dir, itemsFile), nil)
		if err != nil {
			return fmt.Errorf("open items collection: %w", err)
		}
		s.items = items
	}
	if s.state == nil {
		state, err := pudge.Open(filepath.Join(s.dir, stateFile), nil)
		if err != nil {
			return fmt.Errorf("open userState collection: %w", err)
		}
		s.state = state
	}
	return nil
}

func (s *PudgeStore) setVersion(v int) error {
	if err := s.meta.Set(metaKeySchemaVersion, v); err != nil {
		return fmt.Errorf("record schema version %d: %w", v, err)
	}
	return nil
}

// SchemaVersion reports the recorded schema version.
func (s *PudgeStore) SchemaVersion() (int, error) {
	version := 0
	err := s.meta.Get(metaKeySchemaVersion, &version)
	if err != nil && !errors.Is(err, pudge.ErrKeyNotFound) {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Item operations

func (s *PudgeStore) GetItem(guid string) (*models.Item, error) {
	var item models.Item
	err := s.items.Get(guid, &item)
	if errors.Is(err, pudge.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %q: %w", guid, err)
	}
	return &item, nil
}

func (s *PudgeStore) AllItems() ([]models.Item, error) {
	keys, err := s.items.Keys(nil, 0, 0, true)
	if err != nil {
		return nil, fmt.Errorf("list item keys: %w", err)
	}

	items := make([]models.Item, 0, len(keys))
	for _, key := range keys {
		var item models.Item
		err := s.items.Get(string(key), &item)
		if errors.Is(err, pudge.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get item %q: %w", string(key), err)
		}
		items = append(items, item)
	}

	// Fetch order, not key order.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Seq < items[j].Seq
	})
	return items, nil
}

func (s *PudgeStore) PutItem(item *models.Item) error {
	if item == nil || item.GUID == "" {
		return errors.New("put item: missing guid")
	}

	existing, err := s.GetItem(item.GUID)
	if err != nil {
		return err
	}
	if existing != nil {
		item.Seq = existing.Seq
	} else if item.Seq == 0 {
		seq, err := s.nextItemSeq()
		if err != nil {
			return err
		}
		item.Seq = seq
	}

	if err := s.items.Set(item.GUID, item); err != nil {
		return fmt.Errorf("put item %q: %w", item.GUID, err)
	}
	return nil
}

func (s *PudgeStore) PutItems(items []models.Item) error {
	for i := range items {
		if err := s.PutItem(&items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PudgeStore) DeleteItem(guid string) error {
	err := s.items.Delete(guid)
	if errors.Is(err, pudge.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete item %q: %w", guid, err)
	}
	return nil
}

func (s *PudgeStore) CountItems() (int, error) {
	n, err := s.items.Count()
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (s *PudgeStore) nextItemSeq() (int64, error) {
	var seq int64
	err := s.meta.Get(metaKeyItemSeq, &seq)
	if err != nil && !errors.Is(err, pudge.ErrKeyNotFound) {
		return 0, fmt.Errorf("read item sequence: %w", err)
	}
	seq++
	if err := s.meta.Set(metaKeyItemSeq, seq); err != nil {
		return 0, fmt.Errorf("advance item sequence: %w", err)
	}
	return seq, nil
}

// UserState operations

func (s *PudgeStore) GetState(key string) (*StateRecord, error) {
	var rec StateRecord
	err := s.state.Get(key, &rec)
	if errors.Is(err, pudge.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %q: %w", key, err)
	}
	return &rec, nil
}

func (s *PudgeStore) PutState(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	return s.PutStateRecord(StateRecord{
		Key:          key,
		Value:        raw,
		LastModified: time.Now().UTC(),
	})
}

func (s *PudgeStore) PutStateRecord(rec StateRecord) error {
	if rec.Key == "" {
		return errors.New("put state: missing key")
	}
	if err := s.state.Set(rec.Key, rec); err != nil {
		return fmt.Errorf("put state %q: %w", rec.Key, err)
	}
	return nil
}

func (s *PudgeStore) DeleteState(key string) error {
	err := s.state.Delete(key)
	if errors.Is(err, pudge.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}

func (s *PudgeStore) Close() error {
	var firstErr error
	for _, db := range []*pudge.Db{s.items, s.state, s.meta} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
