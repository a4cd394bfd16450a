// Package store persists indexed chunks and their vectors in BoltDB so
// the index survives process restarts.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

var (
	bucketChunks = []byte("chunks")
	bucketMeta   = []byte("meta")
	keyDimension = []byte("dimension")
)

// Record is one persisted (chunk, vector) pair.
type Record struct {
	Chunk  domain.Chunk `json:"chunk"`
	Vector []float32    `json:"vector"`
}

// BoltStore is the on-disk representation of the embedding index.
// Records are keyed by a monotonically increasing sequence number, so
// iteration order equals insertion order and the in-memory index can
// be rebuilt with identical tie-breaking after a restart.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
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

// OpenOrRecreate opens the store at path, discarding an unreadable
// database file and starting fresh instead of failing. The returned
// bool reports whether an existing file was discarded.
func OpenOrRecreate(path string) (*BoltStore, bool, error) {
	s, err := Open(path)
	if err == nil {
		return s, false, nil
	}
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return nil, false, fmt.Errorf("failed to remove unreadable index db: %w", rmErr)
	}
	s, err = Open(path)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Append writes a batch of records in a single transaction. The batch
// is atomic: a crash mid-write leaves either all records or none.
func (s *BoltStore) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		chunks := tx.Bucket(bucketChunks)

		dim := len(records[0].Vector)
		if stored := meta.Get(keyDimension); stored != nil {
			storedDim := int(binary.BigEndian.Uint64(stored))
			if storedDim != dim {
				return fmt.Errorf("vector dimension mismatch: index has %d, got %d", storedDim, dim)
			}
		} else {
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], uint64(dim))
			if err := meta.Put(keyDimension, buf[:]); err != nil {
				return err
			}
		}

		for _, record := range records {
			if len(record.Vector) != dim {
				return fmt.Errorf("vector dimension mismatch within batch: %d vs %d", dim, len(record.Vector))
			}

			seq, err := chunks.NextSequence()
			if err != nil {
				return err
			}
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], seq)

			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := chunks.Put(key[:], data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns all records in insertion order. Corrupt entries are
// skipped rather than failing the whole load.
func (s *BoltStore) Load() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return nil // Skip corrupted entries
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Dimension returns the stored vector dimensionality, or 0 when the
// store is empty.
func (s *BoltStore) Dimension() (int, error) {
	var dim int
	err := s.db.View(func(tx *bbolt.Tx) error {
		if stored := tx.Bucket(bucketMeta).Get(keyDimension); stored != nil {
			dim = int(binary.BigEndian.Uint64(stored))
		}
		return nil
	})
	return dim, err
}

// Count returns the number of persisted records.
func (s *BoltStore) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return count, err
}

// Reset drops all records. Used by explicit reindexing.
func (s *BoltStore) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketMeta} {
			if err := tx.DeleteBucket(b); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
