// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"prstorage/fault"
)

// Cursor is a forward scan over one Table's keyspace, or a sub-range
// of it reached via Seek. It generalizes the teacher's FetchCursor
// (tied to a single-byte PoolHandle prefix) to the arbitrary-length
// Table prefix.
type Cursor struct {
	table *Table
	rng   ldb_util.Range
}

// Seek repositions the cursor so the next Fetch/Map starts at key
// (inclusive) within the table.
func (c *Cursor) Seek(key []byte) *Cursor {
	c.rng.Start = c.table.key(key)
	return c
}

// Fetch returns up to count elements starting from the cursor's
// current position and advances the cursor past the last one
// returned.
func (c *Cursor) Fetch(tx *Transaction, count int) ([]Element, error) {
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}

	iter := tx.iterator(&c.rng)
	defer iter.Release()

	results := make([]Element, 0, count)
	for iter.Next() {
		key := append([]byte(nil), c.table.strip(iter.Key())...)
		value := append([]byte(nil), iter.Value()...)
		results = append(results, Element{Key: key, Value: value})
		if len(results) >= count {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return results, fault.EngineError{Op: "fetch", Err: err}
	}

	if n := len(results); n > 0 {
		c.advance(results[n-1].Key)
	}
	return results, nil
}

// Map invokes f on every element from the cursor's current position
// to the end of the range, stopping at the first error f returns.
func (c *Cursor) Map(tx *Transaction, f func(key, value []byte) error) error {
	iter := tx.iterator(&c.rng)
	defer iter.Release()

	for iter.Next() {
		key := append([]byte(nil), c.table.strip(iter.Key())...)
		value := append([]byte(nil), iter.Value()...)
		if err := f(key, value); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return fault.EngineError{Op: "map", Err: err}
	}
	return nil
}

// advance moves the start of the range just past lastKey: the
// immediate lexicographic successor of any byte string is itself with
// a zero byte appended, which is always strictly greater and never
// skips an intermediate key regardless of key length.
func (c *Cursor) advance(lastKey []byte) {
	next := make([]byte, len(lastKey)+1)
	copy(next, lastKey)
	c.rng.Start = c.table.key(next)
}
