package txmanager

import (
	"prstorage/kvstore"
)

// TransactionManager scopes one kvstore.Transaction to a single
// mutation: New reserves it, Commit or Abort completes it exactly
// once, and Release aborts whatever is still outstanding so a caller
// that returns early (error, panic recovered elsewhere) never leaks an
// open batch. A manager built with a nil database is a no-op: Tx
// returns nil and Commit/Abort/Release are harmless, mirroring the
// teacher's convention of a do-nothing handle when no environment was
// configured.
type TransactionManager struct {
	db   *kvstore.Database
	tx   *kvstore.Transaction
	done bool
}

// New reserves a fresh transaction against db. If db is nil, it
// returns a no-op manager. Every call gets its own Transaction, so
// managers on the same db neither block on nor fail because of one
// another, and conflicting writes are not detected. A Begin failure is
// returned to the caller; no persistent change is possible in that
// case.
func New(db *kvstore.Database) (*TransactionManager, error) {
	if db == nil {
		return &TransactionManager{}, nil
	}
	tx := db.Begin()
	if err := tx.Begin(); err != nil {
		return nil, err
	}
	return &TransactionManager{db: db, tx: tx}, nil
}

// Tx returns the underlying transaction, or nil for a no-op manager.
func (m *TransactionManager) Tx() *kvstore.Transaction {
	return m.tx
}

// Commit commits the transaction if one is active and marks the
// manager completed. Idempotent: a second call is a no-op returning
// nil.
func (m *TransactionManager) Commit() error {
	if m.done || m.tx == nil {
		m.done = true
		return nil
	}
	m.done = true
	return m.tx.Commit()
}

// Abort discards the transaction if one is active and marks the
// manager completed. Idempotent.
func (m *TransactionManager) Abort() {
	if m.done || m.tx == nil {
		m.done = true
		return
	}
	m.done = true
	m.tx.Abort()
}

// Release aborts the transaction if it is still outstanding. Callers
// defer this immediately after New so every exit path — including an
// early return on error — leaves no open batch behind.
func (m *TransactionManager) Release() {
	if m.done {
		return
	}
	m.Abort()
}
