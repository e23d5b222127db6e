// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"prstorage/fault"
)

// Transaction batches writes against a Database and, through an
// in-memory cache, lets reads on the same transaction observe its own
// uncommitted writes. It mirrors the teacher's AccessData, the
// cache-aware generation of the two parallel access implementations
// storage/ carried (the other being the direct, cache-less PoolHandle
// path); that duplication is resolved here in favor of the cached one,
// since the cache is what SPEC_FULL wires github.com/patrickmn/go-cache
// for.
type Transaction struct {
	mu    sync.Mutex
	db    *Database
	batch *leveldb.Batch
	cache Cache
	inUse bool
}

func newTransaction(db *Database) *Transaction {
	return &Transaction{
		db:    db,
		batch: new(leveldb.Batch),
		cache: newCache(),
	}
}

// Begin reserves this transaction for exclusive use. Returns an
// EngineError if it is already in use.
func (t *Transaction) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inUse {
		return fault.EngineError{Op: "begin", Err: fault.ErrAlreadyPresent}
	}
	t.inUse = true
	return nil
}

// InUse reports whether Begin has succeeded without a matching
// Commit/Abort yet.
func (t *Transaction) InUse() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inUse
}

func (t *Transaction) put(key, value []byte) {
	t.cache.Set(dbPut, string(key), value)
	t.batch.Put(key, value)
}

func (t *Transaction) delete(key []byte) {
	t.cache.Set(dbDelete, string(key), nil)
	t.batch.Delete(key)
}

func (t *Transaction) get(key []byte) ([]byte, error) {
	if value, op, found := t.cache.Get(string(key)); found {
		if op == dbDelete {
			return nil, fault.ErrNotFound
		}
		return value, nil
	}
	value, err := t.db.ldb.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fault.EngineError{Op: "get", Err: err}
	}
	return value, nil
}

func (t *Transaction) has(key []byte) (bool, error) {
	if _, op, found := t.cache.Get(string(key)); found {
		return op == dbPut, nil
	}
	ok, err := t.db.ldb.Has(key, nil)
	if err != nil {
		return false, fault.EngineError{Op: "has", Err: err}
	}
	return ok, nil
}

// iterator scans committed state only: the in-flight batch is not
// reflected in cursor scans, matching the non-locking read policy
// mutations are exempt from.
func (t *Transaction) iterator(r *ldb_util.Range) iterator.Iterator {
	return t.db.ldb.NewIterator(r, nil)
}

// Commit writes the batch to the underlying database and releases the
// transaction for reuse. A failed commit still releases the
// transaction; the caller observes the engine error and the batch's
// writes are lost, per the abort-on-failure contract.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.db.ldb.Write(t.batch, nil)
	t.reset()
	if err != nil {
		return fault.EngineError{Op: "commit", Err: err}
	}
	return nil
}

// Abort discards the batch without writing it.
func (t *Transaction) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

func (t *Transaction) reset() {
	t.batch.Reset()
	t.cache.Clear()
	t.inUse = false
}
