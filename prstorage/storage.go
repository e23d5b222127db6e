package prstorage

import (
	"prstorage/deleter"
	"prstorage/kvstore"
	"prstorage/marshal"
	"prstorage/txmanager"
	"prstorage/watcher"
)

// Storage is the typed façade over one primary kvstore.Table: every
// mutation opens its own transaction via txmanager, runs its removal
// through an owned deleter.Remover, and — only once that transaction
// has committed — enqueues the matching event on its watcher.Notifier.
// A Storage built with a nil notifier silently drops events, the
// "null watcher mixin" of the original design.
type Storage[K comparable, E any] struct {
	db       *kvstore.Database
	table    *kvstore.Table
	keyCodec marshal.KeyCodec[K]
	idOf     func(E) K
	primary  *storagePrimaryView[K, E]
	remover  deleter.Remover[K, E, *kvstore.Transaction]
	notifier watcher.Notifier[E]
}

// NewStorage opens table (or reuses one already open) on db, registers
// m as the marshaller for E, and returns a Storage backed by it. A nil
// remover defaults to a LeafDeleter (no downstream to notify); a nil
// notifier defaults to the null watcher.
func NewStorage[K comparable, E any](
	db *kvstore.Database,
	primaryPrefix []byte,
	keyCodec marshal.KeyCodec[K],
	idOf func(E) K,
	m marshal.Marshaller[E],
	remover deleter.Remover[K, E, *kvstore.Transaction],
	notifier watcher.Notifier[E],
) (*Storage[K, E], error) {
	if err := kvstore.RegisterCodec[E](m); err != nil {
		return nil, err
	}
	if remover == nil {
		remover = deleter.NewLeafDeleter[K, E, *kvstore.Transaction]()
	}
	if notifier == nil {
		notifier = watcher.NullNotifier[E]{}
	}

	table := db.Table(primaryPrefix)
	return &Storage[K, E]{
		db:       db,
		table:    table,
		keyCodec: keyCodec,
		idOf:     idOf,
		primary:  &storagePrimaryView[K, E]{table: table, keyCodec: keyCodec},
		remover:  remover,
		notifier: notifier,
	}, nil
}

// Add inserts e if its key is not already present.
func (s *Storage[K, E]) Add(e E) (bool, error) {
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	encKey := s.keyCodec.EncodeKey(s.idOf(e))
	has, err := s.table.Has(tx, encKey)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	raw, err := kvstore.Encode(e)
	if err != nil {
		return false, err
	}
	s.table.Put(tx, encKey, raw)

	bufferFor(tx).add(func() { s.notifier.Enqueue(watcher.Added, e) })
	if err := mgr.Commit(); err != nil {
		return false, err
	}
	bufferFor(tx).flush()
	return true, nil
}

// Remove deletes the record keyed by key, running it through the
// owned Remover so any downstream cascade shares this transaction. Its
// own Removed event is prepended ahead of whatever cascade events the
// Remover's downstream notification already queued, so a commit fires
// the parent's event before any of its children's.
func (s *Storage[K, E]) Remove(key K) (bool, error) {
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	value, found, err := s.remover.Remove(tx, s.primary, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	bufferFor(tx).prepend([]func(){func() { s.notifier.Enqueue(watcher.Deleted, value) }})
	if err := mgr.Commit(); err != nil {
		return false, err
	}
	bufferFor(tx).flush()
	return true, nil
}

// StrictUpdate overwrites e's record only if its key is already
// present.
func (s *Storage[K, E]) StrictUpdate(e E) (bool, error) {
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	encKey := s.keyCodec.EncodeKey(s.idOf(e))
	has, err := s.table.Has(tx, encKey)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}

	raw, err := kvstore.Encode(e)
	if err != nil {
		return false, err
	}
	s.table.Put(tx, encKey, raw)

	bufferFor(tx).add(func() { s.notifier.Enqueue(watcher.Updated, e) })
	if err := mgr.Commit(); err != nil {
		return false, err
	}
	bufferFor(tx).flush()
	return true, nil
}

// Update inserts or overwrites e's record unconditionally.
func (s *Storage[K, E]) Update(e E) error {
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	raw, err := kvstore.Encode(e)
	if err != nil {
		return err
	}
	s.table.Put(tx, s.keyCodec.EncodeKey(s.idOf(e)), raw)

	bufferFor(tx).add(func() { s.notifier.Enqueue(watcher.Updated, e) })
	if err := mgr.Commit(); err != nil {
		return err
	}
	bufferFor(tx).flush()
	return nil
}

// Get returns the record keyed by key, or fault.ErrNotFound if absent.
func (s *Storage[K, E]) Get(key K) (E, error) {
	var zero E
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return zero, err
	}
	defer mgr.Release()

	raw, err := s.table.Get(mgr.Tx(), s.keyCodec.EncodeKey(key))
	if err != nil {
		return zero, err
	}
	return kvstore.Decode[E](raw)
}

// Has reports whether key is present.
func (s *Storage[K, E]) Has(key K) (bool, error) {
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()

	return s.table.Has(mgr.Tx(), s.keyCodec.EncodeKey(key))
}

// Size returns the number of records currently stored.
func (s *Storage[K, E]) Size() (int, error) {
	count := 0
	err := s.eachRaw(func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// All returns every record, in key order.
func (s *Storage[K, E]) All() ([]E, error) {
	return s.Filter(func(E) bool { return true })
}

// Filter returns every record for which pred returns true, in key
// order.
func (s *Storage[K, E]) Filter(pred func(E) bool) ([]E, error) {
	var results []E
	err := s.eachRaw(func(_, value []byte) error {
		record, err := kvstore.Decode[E](value)
		if err != nil {
			return err
		}
		if pred(record) {
			results = append(results, record)
		}
		return nil
	})
	return results, err
}

func (s *Storage[K, E]) eachRaw(f func(key, value []byte) error) error {
	mgr, err := txmanager.New(s.db)
	if err != nil {
		return err
	}
	defer mgr.Release()

	return s.table.NewCursor().Map(mgr.Tx(), f)
}

// Wrapper returns an edit handle over the record keyed by key,
// fetching a copy to be mutated in place and saved back with
// StrictUpdate.
func (s *Storage[K, E]) Wrapper(key K) (*Wrapper[K, E], error) {
	value, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	return &Wrapper[K, E]{storage: s, key: key, value: value}, nil
}
