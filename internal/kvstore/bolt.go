package kvstore

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketName = []byte("kv")

// BoltStore is a persistent ordered KV store backed by bbolt. bbolt buckets
// are kept in byte-lexicographic key order internally, which is exactly the
// ordering Pairs must return.
type BoltStore struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// NewBoltStore opens (creating if necessary) a bbolt database at path.
func NewBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	logger.Info("kvstore opened", zap.String("engine", "bbolt"), zap.String("path", path))
	return &BoltStore{db: db, logger: logger}, nil
}

// Close releases the underlying database file.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func (b *BoltStore) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (b *BoltStore) Pairs(prefix []byte) ([]KV, error) {
	var out []KV
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			out = append(out, KV{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		}
		return nil
	})
	return out, err
}

func (b *BoltStore) Update(ops []Op) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, op := range ops {
			if op.Remove {
				if err := bucket.Delete(op.Key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.Key, op.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltStore) Mirror() Store {
	return newOverlay(b)
}

func (b *BoltStore) ToOps() []Op {
	return nil
}

func (b *BoltStore) Checksum() ([32]byte, error) {
	pairs, err := b.Pairs(nil)
	if err != nil {
		return [32]byte{}, err
	}
	return checksumPairs(pairs), nil
}
