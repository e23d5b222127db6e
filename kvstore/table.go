// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"
)

// Element is a raw key/value pair returned by a cursor scan, with the
// table's prefix already stripped.
type Element struct {
	Key   []byte
	Value []byte
}

// Table is a byte-prefixed keyspace inside a Database. It generalizes
// the teacher's PoolHandle, whose prefix was always exactly one byte
// drawn from a fixed struct of package-level pools, to an
// arbitrary-length prefix so an open-ended set of generic collections
// can each get their own namespace inside a shared Database. Prefixes
// are not checked against each other: a table whose prefix starts with
// another table's prefix lies inside that table's Range.
type Table struct {
	prefix []byte
	limit  []byte // exclusive upper bound of the prefix range, nil = unbounded
}

func newTable(prefix []byte) *Table {
	p := append([]byte(nil), prefix...)
	return &Table{
		prefix: p,
		limit:  upperBound(p),
	}
}

// upperBound returns the smallest byte string that is greater than
// every string sharing the given prefix, or nil if no such bound
// exists (the prefix is empty or all 0xff).
func upperBound(prefix []byte) []byte {
	limit := append([]byte(nil), prefix...)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return limit[:i+1]
		}
	}
	return nil
}

func (t *Table) key(k []byte) []byte {
	out := make([]byte, len(t.prefix)+len(k))
	copy(out, t.prefix)
	copy(out[len(t.prefix):], k)
	return out
}

func (t *Table) strip(fullKey []byte) []byte {
	return fullKey[len(t.prefix):]
}

// Range is the goleveldb range covering every key in this table.
func (t *Table) Range() ldb_util.Range {
	return ldb_util.Range{Start: t.prefix, Limit: t.limit}
}

// Put stages key/value inside tx. Visible to Get/Has on the same
// transaction before commit; not visible to other transactions or to
// cursor scans until the commit completes.
func (t *Table) Put(tx *Transaction, key, value []byte) {
	tx.put(t.key(key), value)
}

// Delete stages a removal of key inside tx.
func (t *Table) Delete(tx *Transaction, key []byte) {
	tx.delete(t.key(key))
}

// Get reads key, checking tx's own pending writes first.
func (t *Table) Get(tx *Transaction, key []byte) ([]byte, error) {
	return tx.get(t.key(key))
}

// Has reports whether key is present, checking tx's own pending
// writes first.
func (t *Table) Has(tx *Transaction, key []byte) (bool, error) {
	return tx.has(t.key(key))
}

// NewCursor returns a cursor over the whole table, positioned at the
// start of the keyspace.
func (t *Table) NewCursor() *Cursor {
	r := t.Range()
	return &Cursor{table: t, rng: r}
}

// SubRange returns a cursor confined to the keys sharing sub as a
// further prefix within this table, e.g. every secondary-index entry
// belonging to one parent inside a table shared by all parents. This
// is the equal-range scan a ChildStorage needs without walking the
// whole secondary keyspace.
func (t *Table) SubRange(sub []byte) *Cursor {
	start := t.key(sub)
	limit := upperBound(start)
	return &Cursor{table: t, rng: ldb_util.Range{Start: start, Limit: limit}}
}
