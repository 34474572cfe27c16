package keyValueDb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type levelDB struct {
	db *leveldb.DB
}

func newLevelDB(cfg Config) (DB, error) {
	db, err := leveldb.OpenFile(cfg.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", cfg.Path, err)
	}
	return &levelDB{db: db}, nil
}

func (l *levelDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, ErrDBClosed
	}

	val, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (l *levelDB) Write(ctx context.Context, key, value []byte) error {
	if l.db == nil {
		return ErrDBClosed
	}
	return l.db.Put(key, value, nil)
}

func (l *levelDB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return ErrDBClosed
	}
	return l.db.Delete(key, nil)
}

func (l *levelDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if l.db == nil {
		return ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			batch.Put(op.Key, op.Value)
		case BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("%w: unknown op type %d", ErrBatchOperationFailed, op.Type)
		}
	}
	return l.db.Write(batch, nil)
}

func (l *levelDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if l.db == nil {
		return nil, ErrDBClosed
	}

	var rng *util.Range
	if start != nil || end != nil {
		rng = &util.Range{Start: start, Limit: end}
	}
	return &levelIterator{iter: l.db.NewIterator(rng, nil)}, nil
}

func (l *levelDB) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

type levelIterator struct {
	iter    iterator.Iterator
	current struct {
		key, value []byte
	}
}

func (it *levelIterator) Next() bool {
	if !it.iter.Next() {
		return false
	}

	key := it.iter.Key()
	val := it.iter.Value()

	// goleveldb reuses the returned slices across Next calls.
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	valCopy := make([]byte, len(val))
	copy(valCopy, val)

	it.current.key = keyCopy
	it.current.value = valCopy
	return true
}

func (it *levelIterator) Key() []byte {
	return it.current.key
}

func (it *levelIterator) Value() []byte {
	return it.current.value
}

func (it *levelIterator) Error() error {
	return it.iter.Error()
}

func (it *levelIterator) Close() error {
	it.iter.Release()
	return it.iter.Error()
}
