// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// dbOperation records whether a cached entry represents a pending put
// or a pending delete, so a cached delete correctly reports "not
// found" rather than serving a stale value.
type dbOperation int

const (
	dbPut dbOperation = iota
	dbDelete
)

const (
	cacheCleanupInterval = 1 * time.Minute
	cacheExpiration      = 2 * time.Minute
)

// Cache is a short-TTL read-through cache for a transaction's own
// uncommitted writes. Unlike a plain hit/miss cache, Get also reports
// which operation produced the cached entry: a transaction that puts
// then deletes the same key before committing must have both get and
// has see the delete, rather than falling through to the underlying
// database's still-committed (stale) value once the cache no longer
// distinguishes "never cached" from "cached as deleted".
type Cache interface {
	Get(key string) (value []byte, op dbOperation, found bool)
	Set(dbOperation, string, []byte)
	Clear()
}

type dbCache struct {
	cache *cache.Cache
}

type cacheEntry struct {
	op    dbOperation
	value []byte
}

func newCache() Cache {
	return &dbCache{
		cache: cache.New(cacheCleanupInterval, cacheExpiration),
	}
}

func (c *dbCache) Get(key string) ([]byte, dbOperation, bool) {
	obj, found := c.cache.Get(key)
	if !found {
		return nil, dbPut, false
	}

	entry := obj.(cacheEntry)
	return entry.value, entry.op, true
}

func (c *dbCache) Set(op dbOperation, key string, value []byte) {
	c.cache.Set(key, cacheEntry{op: op, value: value}, cacheExpiration)
}

func (c *dbCache) Clear() {
	c.cache.Flush()
}
