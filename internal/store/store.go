// ABOUTME: Storage interface and record types for local persistence
// ABOUTME: Defines the two-collection contract: items and userState

package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
)

// StateRecord is a single userState row. Value holds the JSON-encoded
// value for the key; LastModified is the local write time and doubles as
// the conditional-pull marker for sync metadata keys.
type StateRecord struct {
	Key          string          `json:"key"`
	Value        json.RawMessage `json:"value"`
	LastModified time.Time       `json:"lastModified"`
}

// Store is the local durable store. Every method runs in its own narrow
// read or write transaction; callers must not assume atomicity across
// two calls, and must complete network I/O before invoking a write.
type Store interface {
	// Item collection, keyed by guid.

	GetItem(guid string) (*models.Item, error)
	// AllItems returns every item ordered by fetch sequence (Seq asc).
	AllItems() ([]models.Item, error)
	// PutItem inserts or overwrites an item. New items are assigned the
	// next fetch ordinal; existing items keep theirs.
	PutItem(item *models.Item) error
	// PutItems persists a batch in order, one write transaction per item.
	PutItems(items []models.Item) error
	DeleteItem(guid string) error
	CountItems() (int, error)

	// UserState collection, keyed by state key.

	// GetState returns the record for key, or (nil, nil) when absent.
	GetState(key string) (*StateRecord, error)
	// PutState JSON-encodes value and stamps LastModified with now.
	PutState(key string, value any) error
	// PutStateRecord writes a record verbatim, preserving its stamp.
	PutStateRecord(rec StateRecord) error
	DeleteState(key string) error

	// SchemaVersion reports the store's current schema version.
	SchemaVersion() (int, error)

	Close() error
}

// GetStateValue loads and decodes the value stored under key. The second
// return is false when the key is absent. A record that fails to decode
// is reported as an error; callers with a safe default should fall back
// to it and log.
func GetStateValue[T any](s Store, key string) (T, bool, error) {
	var zero T
	rec, err := s.GetState(key)
	if err != nil {
		return zero, false, err
	}
	if rec == nil {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		return zero, false, fmt.Errorf("decode state %q: %w", key, err)
	}
	return v, true, nil
}

// StateValueOr is GetStateValue with a default for absent or malformed
// records. Decode failures degrade to the default rather than erroring;
// state blobs are reconstructible from the server on the next pull.
func StateValueOr[T any](s Store, key string, def T) (T, error) {
	rec, err := s.GetState(key)
	if err != nil {
		return def, err
	}
	if rec == nil {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		return def, nil
	}
	return v, nil
}
