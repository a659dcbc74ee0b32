package ldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Cursor is a thin wrapper around the leveldb iterator, scoped to a key
// prefix.
type Cursor struct {
	ldbIterator iterator.Iterator
	prefix      []byte

	isClosed bool
}

// Cursor begins a new cursor over the keys carrying the given prefix, in
// ascending key order.
func (db *LevelDB) Cursor(prefix []byte) *Cursor {
	ldbIterator := db.ldb.NewIterator(util.BytesPrefix(prefix), nil)

	return &Cursor{
		ldbIterator: ldbIterator,
		prefix:      prefix,
		isClosed:    false,
	}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted.
func (c *Cursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	return c.ldbIterator.Next()
}

// Key returns the key of the current key/value pair, without the cursor's
// prefix. The returned slice is its own copy and is safe to keep.
func (c *Cursor) Key() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	fullKeyPath := c.ldbIterator.Key()
	if fullKeyPath == nil {
		return nil, errors.Wrapf(ErrNotFound, "key not found")
	}
	suffix := fullKeyPath[len(c.prefix):]
	key := make([]byte, len(suffix))
	copy(key, suffix)
	return key, nil
}

// Value returns the value of the current key/value pair. The returned slice
// is its own copy and is safe to keep.
func (c *Cursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	value := c.ldbIterator.Value()
	if value == nil {
		return nil, errors.Wrapf(ErrNotFound, "value not found")
	}
	valueClone := make([]byte, len(value))
	copy(valueClone, value)
	return valueClone, nil
}

// Close releases the underlying iterator. Close is idempotent.
func (c *Cursor) Close() error {
	if c.isClosed {
		return nil
	}
	c.isClosed = true
	c.ldbIterator.Release()
	c.ldbIterator = nil
	return nil
}
