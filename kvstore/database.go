// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"github.com/syndtr/goleveldb/leveldb"
)

// Database is one opened goleveldb file. Multiple independent Tables
// (byte-prefixed keyspaces) can share the same Database, and multiple
// Transactions can be opened against it; the teacher's pool package
// kept exactly one package-level Transaction per database, this
// generalizes that to one Transaction per caller scope.
type Database struct {
	ldb *leveldb.DB
}

// Table returns a byte-prefixed keyspace view over this database.
// prefix is copied; callers may reuse the slice they passed in.
func (db *Database) Table(prefix []byte) *Table {
	return newTable(prefix)
}

// Begin starts a new transaction against this database. Callers
// reserve it by also calling Begin on it (TransactionManager owns that
// step); staging writes and Commit do not check that reservation.
// Get/Has may be used immediately against committed state.
func (db *Database) Begin() *Transaction {
	return newTransaction(db)
}
