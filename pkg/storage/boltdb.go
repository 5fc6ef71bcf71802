package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/keepalive/pkg/events"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketEvents = []byte("events")
	bucketAlerts = []byte("alerts")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

type alertRecord struct {
	SentAt time.Time `json:"sent_at"`
}

// NewBoltStore creates a new BoltDB-backed store in dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "keepalive.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEvents, bucketAlerts} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// eventKey orders events by time; the ID suffix keeps same-instant events apart
func eventKey(event *events.Event) []byte {
	key := make([]byte, 8, 8+len(event.ID))
	binary.BigEndian.PutUint64(key, uint64(event.Timestamp.UnixNano()))
	return append(key, event.ID...)
}

// Event operations
func (s *BoltStore) SaveEvent(event *events.Event) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return b.Put(eventKey(event), data)
	})
}

// ListEvents returns up to limit events, newest first. A non-positive limit
// returns everything.
func (s *BoltStore) ListEvents(limit int) ([]*events.Event, error) {
	var list []*events.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(list) >= limit {
				break
			}
			var event events.Event
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			list = append(list, &event)
		}
		return nil
	})
	return list, err
}

// PruneEvents keeps the newest keep events and returns how many were removed
func (s *BoltStore) PruneEvents(keep int) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		excess := b.Stats().KeyN - keep
		if excess <= 0 {
			return nil
		}

		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Alert operations
func (s *BoltStore) LastAlert(key string) (time.Time, bool, error) {
	var rec alertRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAlerts).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	return rec.SentAt, found, err
}

func (s *BoltStore) RecordAlert(key string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(alertRecord{SentAt: at})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAlerts).Put([]byte(key), data)
	})
}
