package badger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TamilselvanRaman/Research-Platform/storage"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"
)

const objectKeyPrefix = "obj:"

// ObjectStore implements storage.ObjectStore on BadgerDB with
// content-addressed keys: identical bytes always map to the same key, so
// duplicate uploads share one stored object.
type ObjectStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// NewObjectStore creates an object store on the given backend.
func NewObjectStore(backend *Backend) *ObjectStore {
	return &ObjectStore{
		backend: backend,
		logger:  slog.Default().With("component", "object-store"),
	}
}

// StorageKeyForContent derives the content-addressed key for the bytes
// using BLAKE2b hashing. Identical content produces identical keys.
func StorageKeyForContent(data []byte) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Put stores the bytes under their content key and returns the key.
func (s *ObjectStore) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty object", storage.ErrInvalidQuery)
	}

	key := StorageKeyForContent(data)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeObjectKey(key), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}

	s.logger.Debug("stored object", "key", key, "bytes", len(data))
	return key, nil
}

// Get retrieves the bytes for a key.
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeObjectKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes the object. Badger deletes are blind writes, so deleting
// an absent key succeeds, keeping document deletion idempotent.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeObjectKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the shared backend owns the database handle.
func (s *ObjectStore) Close() error {
	return nil
}

func makeObjectKey(key string) []byte {
	return []byte(objectKeyPrefix + key)
}
