// Package store persists local CLI state in a bbolt database: config
// values, hash-to-file mappings for deduplication and the folder
// watcher's bookkeeping.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names. Created on open so callers never see a missing bucket.
const (
	bucketConfig     = "config"
	bucketFileHashes = "file_hashes"
	bucketWatch      = "watch_states"
	bucketProcessed  = "processed_files"
)

// Store wraps the bolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketConfig, bucketFileHashes, bucketWatch, bucketProcessed} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetConfigValue returns the raw value for key, nil when absent.
func (s *Store) GetConfigValue(key string) ([]byte, error) {
	return s.getValue(bucketConfig, []byte(key))
}

// PutConfigValue stores a raw config value.
func (s *Store) PutConfigValue(key string, value []byte) error {
	return s.putValue(bucketConfig, []byte(key), value)
}

// DeleteConfigValue removes a config value.
func (s *Store) DeleteConfigValue(key string) error {
	return s.deleteValue(bucketConfig, []byte(key))
}

func (s *Store) getValue(bucket string, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		if v := b.Get(key); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, err
}

func (s *Store) putValue(bucket string, key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put(key, value)
	})
}

func (s *Store) deleteValue(bucket string, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Delete(key)
	})
}

func (s *Store) allValues(bucket string) ([][]byte, error) {
	result := make([][]byte, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.ForEach(func(k, v []byte) error {
			result = append(result, append([]byte(nil), v...))
			return nil
		})
	})
	return result, err
}
