package prstorage

import (
	"prstorage/deleter"
	"prstorage/kvstore"
	"prstorage/marshal"
)

// childSecondaryView adapts a ChildStorage's secondary kvstore.Table
// into a deleter.SecondaryMultimap. The secondary table's keys are
// ParentKey++PrimaryKey, so every child of one parent sits in the
// sub-range of keys starting with that parent's encoded key; its
// values are the bare PrimaryKey, a pointer back into the primary
// table rather than a duplicated copy of the record. That sub-range
// can also hold children of a parent whose encoded key extends this
// one; EqualRange and EraseRange skip those by checking that an
// entry's key is exactly the parent's bytes followed by its value.
type childSecondaryView[PK comparable, K comparable, E any] struct {
	secondary      *kvstore.Table
	primary        *storagePrimaryView[K, E]
	parentKeyCodec marshal.KeyCodec[PK]
	keyCodec       marshal.KeyCodec[K]
}

var _ deleter.SecondaryMultimap[string, struct{}, *kvstore.Transaction] = (*childSecondaryView[string, string, struct{}])(nil)

// EqualRange returns every child record keyed to parent, in the
// secondary's natural order: within one parent, the byte order of the
// children's encoded primary keys.
func (v *childSecondaryView[PK, K, E]) EqualRange(tx *kvstore.Transaction, parent PK) ([]E, error) {
	var values []E
	parentBytes := v.parentKeyCodec.EncodeKey(parent)
	err := v.secondary.SubRange(parentBytes).Map(tx, func(subKey, rawKey []byte) error {
		if len(subKey) != len(parentBytes)+len(rawKey) {
			return nil // belongs to a parent whose key extends this one
		}
		key := v.keyCodec.DecodeKey(rawKey)
		value, found, err := v.primary.Lookup(tx, key)
		if err != nil {
			return err
		}
		if !found {
			// secondary entry outlived its primary record; skip rather
			// than fail the whole cascade.
			return nil
		}
		values = append(values, value)
		return nil
	})
	return values, err
}

// EraseRange removes every secondary entry keyed to parent, and the
// primary record each one points to. Keys are collected first so the
// erase pass never mutates the range it is still iterating.
func (v *childSecondaryView[PK, K, E]) EraseRange(tx *kvstore.Transaction, parent PK) error {
	var secondaryKeys [][]byte
	var primaryKeys []K

	parentBytes := v.parentKeyCodec.EncodeKey(parent)
	err := v.secondary.SubRange(parentBytes).Map(tx, func(subKey, rawKey []byte) error {
		if len(subKey) != len(parentBytes)+len(rawKey) {
			return nil // belongs to a parent whose key extends this one
		}
		secondaryKeys = append(secondaryKeys, append([]byte(nil), subKey...))
		primaryKeys = append(primaryKeys, v.keyCodec.DecodeKey(rawKey))
		return nil
	})
	if err != nil {
		return err
	}

	for _, k := range secondaryKeys {
		v.secondary.Delete(tx, k)
	}
	for _, k := range primaryKeys {
		if err := v.primary.Erase(tx, k); err != nil {
			return err
		}
	}
	return nil
}
