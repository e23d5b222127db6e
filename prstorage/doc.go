// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package prstorage is the typed storage façade: Storage wraps one
// kvstore.Table behind a deleter and a watcher, opening its own
// transaction around every mutation and emitting the matching change
// event only after that transaction commits. ChildStorage extends it
// with a secondary multimap keyed by a parent id, so a cascade from an
// upstream Storage can remove a whole family of child records inside
// the cascade's own still-open transaction.
package prstorage
