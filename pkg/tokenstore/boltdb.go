package tokenstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketTokens = []byte("tokens")

// BoltTokenStore is a BoltDB-backed TokenStore. One file holds the
// tokens for every processor in the process, keyed by processor name.
type BoltTokenStore struct {
	db *bolt.DB
}

// NewBoltTokenStore opens (creating if needed) a token store database
// under dataDir.
func NewBoltTokenStore(dataDir string) (*BoltTokenStore, error) {
	dbPath := filepath.Join(dataDir, "meshrun-tokens.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTokens)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create token bucket: %w", err)
	}

	return &BoltTokenStore{db: db}, nil
}

// Close closes the database.
func (s *BoltTokenStore) Close() error {
	return s.db.Close()
}

func (s *BoltTokenStore) RetrieveToken(_ context.Context, processor string) (int64, bool, error) {
	var (
		token int64
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTokens)
		data := b.Get([]byte(processor))
		if data == nil {
			return nil
		}
		if len(data) != 8 {
			return fmt.Errorf("tokenstore: corrupt token for processor %q", processor)
		}
		token = int64(binary.BigEndian.Uint64(data))
		found = true
		return nil
	})
	return token, found, err
}

func (s *BoltTokenStore) StoreToken(_ context.Context, processor string, token int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTokens)
		data := make([]byte, 8)
		binary.BigEndian.PutUint64(data, uint64(token))
		return b.Put([]byte(processor), data)
	})
}
