// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"

	"prstorage/fault"
)

var log = logger.New("KVSTORE")

// Environment is a directory holding zero or more named databases.
// It mirrors the teacher's package-level poolData.dbBlocks/dbIndex
// pair, generalized from two fixed fields to an open set of named
// databases opened on demand.
type Environment struct {
	mu  sync.Mutex
	dir string
	dbs map[string]*Database
}

// OpenEnvironment creates dir if necessary and returns a handle to it.
// No database file is opened until Database is called.
func OpenEnvironment(dir string) (*Environment, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Errorf("mkdir %q: %s", dir, err)
		return nil, fault.EngineError{Op: "mkdir", Err: err}
	}
	return &Environment{
		dir: dir,
		dbs: make(map[string]*Database),
	}, nil
}

// Database opens (or returns the already-open) named database under
// this environment. readOnly is sticky for the lifetime of the first
// open; a second call with a different value is ignored.
func (env *Environment) Database(name string, readOnly bool) (*Database, error) {
	env.mu.Lock()
	defer env.mu.Unlock()

	if db, ok := env.dbs[name]; ok {
		return db, nil
	}

	path := filepath.Join(env.dir, name+".leveldb")
	opt := &ldb_opt.Options{
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	ldb, err := leveldb.OpenFile(path, opt)
	if err != nil {
		log.Errorf("open %q: %s", path, err)
		return nil, fault.EngineError{Op: "open " + path, Err: err}
	}

	log.Infof("opened database %q readOnly=%t", path, readOnly)
	db := &Database{ldb: ldb}
	env.dbs[name] = db
	return db, nil
}

// Close closes every database opened through this environment. The
// environment is unusable afterward.
func (env *Environment) Close() error {
	env.mu.Lock()
	defer env.mu.Unlock()

	var firstErr error
	for name, db := range env.dbs {
		if err := db.ldb.Close(); err != nil {
			log.Errorf("close %q: %s", name, err)
			if firstErr == nil {
				firstErr = fault.EngineError{Op: "close " + name, Err: err}
			}
		}
		delete(env.dbs, name)
	}
	return firstErr
}
