package kvstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	leveldb "github.com/ipfs/go-ds-leveldb"
	"go.uber.org/zap"
)

// LevelStore is a persistent ordered KV store backed by go-ds-leveldb (an
// LSM-tree, per the Design Notes' "persistent ordered map" guidance). It is
// an alternative to BoltStore behind the same Store interface; the chain
// engine and the contract state manager both write to whichever single
// Store they are given.
type LevelStore struct {
	ds     *leveldb.Datastore
	logger *zap.Logger
}

// NewLevelStore opens (creating if necessary) a LevelDB datastore at path.
func NewLevelStore(path string, logger *zap.Logger) (*LevelStore, error) {
	d, err := leveldb.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb datastore: %w", err)
	}
	logger.Info("kvstore opened", zap.String("engine", "leveldb"), zap.String("path", path))
	return &LevelStore{ds: d, logger: logger}, nil
}

// Close releases the underlying database files.
func (l *LevelStore) Close() error {
	return l.ds.Close()
}

// toDSKey encodes an arbitrary byte key as a datastore key, hex-encoding so
// lexicographic order on the encoded string matches lexicographic order on
// the original bytes (two hex chars per byte, so any byte-aligned prefix
// maps to a string-aligned prefix).
func toDSKey(key []byte) ds.Key {
	return ds.NewKey("/" + hex.EncodeToString(key))
}

func fromDSKeyString(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "/"))
}

func (l *LevelStore) Get(key []byte) ([]byte, bool, error) {
	v, err := l.ds.Get(context.Background(), toDSKey(key))
	if err != nil {
		if err == ds.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (l *LevelStore) Pairs(prefix []byte) ([]KV, error) {
	q := query.Query{Prefix: "/" + hex.EncodeToString(prefix)}
	results, err := l.ds.Query(context.Background(), q)
	if err != nil {
		return nil, err
	}
	entries, err := results.Rest()
	if err != nil {
		return nil, err
	}
	out := make([]KV, 0, len(entries))
	for _, e := range entries {
		k, err := fromDSKeyString(e.Key)
		if err != nil {
			return nil, fmt.Errorf("decode datastore key %q: %w", e.Key, err)
		}
		out = append(out, KV{Key: k, Value: append([]byte(nil), e.Value...)})
	}
	sortPairs(out)
	return out, nil
}

func (l *LevelStore) Update(ops []Op) error {
	ctx := context.Background()
	batch, err := l.ds.Batch(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	for _, op := range ops {
		if op.Remove {
			if err := batch.Delete(ctx, toDSKey(op.Key)); err != nil {
				return err
			}
			continue
		}
		if err := batch.Put(ctx, toDSKey(op.Key), op.Value); err != nil {
			return err
		}
	}
	return batch.Commit(ctx)
}

func (l *LevelStore) Mirror() Store {
	return newOverlay(l)
}

func (l *LevelStore) ToOps() []Op {
	return nil
}

func (l *LevelStore) Checksum() ([32]byte, error) {
	pairs, err := l.Pairs(nil)
	if err != nil {
		return [32]byte{}, err
	}
	return checksumPairs(pairs), nil
}
