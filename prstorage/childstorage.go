package prstorage

import (
	"prstorage/deleter"
	"prstorage/kvstore"
	"prstorage/marshal"
	"prstorage/txmanager"
	"prstorage/watcher"
)

// ChildStorage is a Storage that additionally maintains a secondary
// multimap from parent id to child record, so it can respond to
// ParentRemoved/ParentRemovedMany from an upstream Storage and cascade
// through its own Cascader — and, if it is itself a parent to a
// further ChildStorage, keep propagating through its own
// deleter.ChildNotifiee downstream.
type ChildStorage[K comparable, E any, PK comparable, Parent any] struct {
	*Storage[K, E]
	secondary      *kvstore.Table
	parentKeyCodec marshal.KeyCodec[PK]
	idOfParent     func(Parent) PK
	parentOf       func(E) PK
	secondaryView  *childSecondaryView[PK, K, E]
	cascader       deleter.Cascader[PK, E, *kvstore.Transaction]
}

var _ deleter.ChildNotifiee[struct{}, *kvstore.Transaction] = (*ChildStorage[string, struct{}, string, struct{}])(nil)

// NewChildStorage opens a ChildStorage over primaryPrefix/secondaryPrefix
// on db. parentOf extracts a child record's parent key; idOfParent
// extracts the same key from the upstream Parent type a ParentRemoved
// notification carries. A nil remover defaults to a LeafDeleter (for
// direct Storage.Remove calls on this storage); a nil cascader
// defaults to a ChildDeleter (for cascades triggered from above).
func NewChildStorage[K comparable, E any, PK comparable, Parent any](
	db *kvstore.Database,
	primaryPrefix, secondaryPrefix []byte,
	keyCodec marshal.KeyCodec[K],
	parentKeyCodec marshal.KeyCodec[PK],
	idOf func(E) K,
	idOfParent func(Parent) PK,
	parentOf func(E) PK,
	m marshal.Marshaller[E],
	remover deleter.Remover[K, E, *kvstore.Transaction],
	cascader deleter.Cascader[PK, E, *kvstore.Transaction],
	notifier watcher.Notifier[E],
) (*ChildStorage[K, E, PK, Parent], error) {
	storage, err := NewStorage[K, E](db, primaryPrefix, keyCodec, idOf, m, remover, notifier)
	if err != nil {
		return nil, err
	}
	if cascader == nil {
		cascader = deleter.NewChildDeleter[PK, E, *kvstore.Transaction]()
	}

	secondary := db.Table(secondaryPrefix)
	cs := &ChildStorage[K, E, PK, Parent]{
		Storage:        storage,
		secondary:      secondary,
		parentKeyCodec: parentKeyCodec,
		idOfParent:     idOfParent,
		parentOf:       parentOf,
		cascader:       cascader,
	}
	cs.secondaryView = &childSecondaryView[PK, K, E]{
		secondary:      secondary,
		primary:        storage.primary,
		parentKeyCodec: parentKeyCodec,
		keyCodec:       keyCodec,
	}
	return cs, nil
}

func (cs *ChildStorage[K, E, PK, Parent]) secondaryKey(encKey []byte, parent PK) []byte {
	parentBytes := cs.parentKeyCodec.EncodeKey(parent)
	key := make([]byte, 0, len(parentBytes)+len(encKey))
	key = append(key, parentBytes...)
	key = append(key, encKey...)
	return key
}

// Add inserts e into both the primary table and the secondary index
// keyed by its parent.
func (cs *ChildStorage[K, E, PK, Parent]) Add(e E) (bool, error) {
	mgr, err := txmanager.New(cs.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	encKey := cs.keyCodec.EncodeKey(cs.idOf(e))
	has, err := cs.table.Has(tx, encKey)
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
	cs.table.Put(tx, encKey, raw)
	cs.secondary.Put(tx, cs.secondaryKey(encKey, cs.parentOf(e)), encKey)

	bufferFor(tx).add(func() { cs.notifier.Enqueue(watcher.Added, e) })
	if err := mgr.Commit(); err != nil {
		return false, err
	}
	bufferFor(tx).flush()
	return true, nil
}

// Remove deletes the record keyed by key from both the primary table
// and the secondary index, running the primary removal through the
// owned Remover so a further downstream cascade still shares this
// transaction.
func (cs *ChildStorage[K, E, PK, Parent]) Remove(key K) (bool, error) {
	mgr, err := txmanager.New(cs.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	value, found, err := cs.remover.Remove(tx, cs.primary, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	cs.secondary.Delete(tx, cs.secondaryKey(cs.keyCodec.EncodeKey(key), cs.parentOf(value)))

	bufferFor(tx).prepend([]func(){func() { cs.notifier.Enqueue(watcher.Deleted, value) }})
	if err := mgr.Commit(); err != nil {
		return false, err
	}
	bufferFor(tx).flush()
	return true, nil
}

// StrictUpdate overwrites e's record only if its key is already
// present, relocating its secondary entry if its parent changed.
func (cs *ChildStorage[K, E, PK, Parent]) StrictUpdate(e E) (bool, error) {
	mgr, err := txmanager.New(cs.db)
	if err != nil {
		return false, err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	key := cs.idOf(e)
	encKey := cs.keyCodec.EncodeKey(key)
	old, found, err := cs.primary.Lookup(tx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	raw, err := kvstore.Encode(e)
	if err != nil {
		return false, err
	}
	cs.table.Put(tx, encKey, raw)
	cs.relocateSecondary(tx, encKey, cs.parentOf(old), cs.parentOf(e))

	bufferFor(tx).add(func() { cs.notifier.Enqueue(watcher.Updated, e) })
	if err := mgr.Commit(); err != nil {
		return false, err
	}
	bufferFor(tx).flush()
	return true, nil
}

// Update inserts or overwrites e's record unconditionally, relocating
// or creating its secondary entry as needed.
func (cs *ChildStorage[K, E, PK, Parent]) Update(e E) error {
	mgr, err := txmanager.New(cs.db)
	if err != nil {
		return err
	}
	defer mgr.Release()
	tx := mgr.Tx()
	defer releaseEvents(tx)

	key := cs.idOf(e)
	encKey := cs.keyCodec.EncodeKey(key)
	old, found, err := cs.primary.Lookup(tx, key)
	if err != nil {
		return err
	}

	raw, err := kvstore.Encode(e)
	if err != nil {
		return err
	}
	cs.table.Put(tx, encKey, raw)

	newParent := cs.parentOf(e)
	if found {
		cs.relocateSecondary(tx, encKey, cs.parentOf(old), newParent)
	} else {
		cs.secondary.Put(tx, cs.secondaryKey(encKey, newParent), encKey)
	}

	bufferFor(tx).add(func() { cs.notifier.Enqueue(watcher.Updated, e) })
	if err := mgr.Commit(); err != nil {
		return err
	}
	bufferFor(tx).flush()
	return nil
}

func (cs *ChildStorage[K, E, PK, Parent]) relocateSecondary(tx *kvstore.Transaction, encKey []byte, oldParent, newParent PK) {
	oldKey := cs.secondaryKey(encKey, oldParent)
	newKey := cs.secondaryKey(encKey, newParent)
	if string(oldKey) == string(newKey) {
		return
	}
	cs.secondary.Delete(tx, oldKey)
	cs.secondary.Put(tx, newKey, encKey)
}

// ParentRemoved cascades the removal of every child keyed to parent,
// inside tx, and buffers one Deleted event per removed child ahead of
// whatever its own downstream cascade already queued.
func (cs *ChildStorage[K, E, PK, Parent]) ParentRemoved(tx *kvstore.Transaction, parent Parent) error {
	children, err := cs.cascader.Cascade(tx, cs.secondaryView, cs.idOfParent(parent))
	if err != nil {
		return err
	}
	cs.bufferRemovals(tx, children)
	return nil
}

// ParentRemovedMany is the vectorized form of ParentRemoved.
func (cs *ChildStorage[K, E, PK, Parent]) ParentRemovedMany(tx *kvstore.Transaction, parents []Parent) error {
	parentKeys := make([]PK, len(parents))
	for i, p := range parents {
		parentKeys[i] = cs.idOfParent(p)
	}
	children, err := cs.cascader.CascadeMany(tx, cs.secondaryView, parentKeys)
	if err != nil {
		return err
	}
	cs.bufferRemovals(tx, children)
	return nil
}

func (cs *ChildStorage[K, E, PK, Parent]) bufferRemovals(tx *kvstore.Transaction, children []E) {
	fns := make([]func(), len(children))
	for i, child := range children {
		child := child
		fns[i] = func() { cs.notifier.Enqueue(watcher.Deleted, child) }
	}
	bufferFor(tx).prepend(fns)
}
