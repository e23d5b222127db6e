// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kvstore is the embedded ordered key-value engine binding.
//
// An Environment is a directory holding one or more goleveldb
// databases. A Database is opened once and shared by reference; every
// independent collection that needs its own keyspace inside that
// database gets a Table, a byte-prefixed view generalizing the single
// byte prefix scheme bitmarkd's pool package used for its fixed set of
// block/index pools to an arbitrary-length prefix, so that an open
// number of unrelated collections can share one Database.
//
// Transaction batches writes and, via a short-TTL cache, lets a read
// inside an open transaction see that transaction's own pending
// writes before they are committed.
package kvstore
