package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// OpenDB opens (or creates) the BoltDB file shared by the local document store and the
// pending-write buffer.
func OpenDB(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
}

// Store keeps snapshots that could not reach the primary document store.
// There is at most one pending item per document key; a newer snapshot replaces an older one.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// New ensures the bucket exists and returns a Store over it. The caller owns db.
func New(db *bolt.DB, bucket string) (*Store, error) {
	if db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if bucket == "" {
		bucket = "pending"
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Put stores item, replacing any pending snapshot for the same key.
func (s *Store) Put(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := item.normalize(); err != nil {
		return err
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(item.Key), payload)
	})
}

// Get returns the pending snapshot for key, if any.
func (s *Store) Get(key string) (Item, bool, error) {
	if s == nil || s.db == nil {
		return Item{}, false, bolt.ErrDatabaseNotOpen
	}
	var (
		item  Item
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("decode pending item %q: %w", key, err)
		}
		found = true
		return nil
	})
	return item, found, err
}

// GetBatch returns up to limit items without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Resolve removes item if no newer snapshot replaced it in the meantime.
func (s *Store) Resolve(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		current, ok := decode(b.Get([]byte(item.Key)))
		if !ok || !current.Timestamp.Equal(item.Timestamp) {
			return nil
		}
		return b.Delete([]byte(item.Key))
	})
}

// Discard drops whatever is pending for key.
func (s *Store) Discard(key string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// MarkFailed bumps the retry counter of item unless a newer snapshot replaced it.
// It returns the stored retry count.
func (s *Store) MarkFailed(item Item) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var retries int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		current, ok := decode(b.Get([]byte(item.Key)))
		if !ok || !current.Timestamp.Equal(item.Timestamp) {
			return nil
		}
		current.Retries++
		retries = current.Retries
		payload, err := json.Marshal(current)
		if err != nil {
			return err
		}
		return b.Put([]byte(current.Key), payload)
	})
	return retries, err
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func decode(v []byte) (Item, bool) {
	if v == nil {
		return Item{}, false
	}
	var item Item
	if err := json.Unmarshal(v, &item); err != nil {
		return Item{}, false
	}
	return item, true
}
