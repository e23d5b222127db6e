package prstorage

import (
	"prstorage/deleter"
	"prstorage/fault"
	"prstorage/kvstore"
	"prstorage/marshal"
)

// storagePrimaryView adapts a kvstore.Table into a deleter.PrimaryMap,
// letting the deleter graph remove a record without knowing anything
// about the engine underneath it.
type storagePrimaryView[K comparable, E any] struct {
	table    *kvstore.Table
	keyCodec marshal.KeyCodec[K]
}

var _ deleter.PrimaryMap[string, struct{}, *kvstore.Transaction] = (*storagePrimaryView[string, struct{}])(nil)

func (v *storagePrimaryView[K, E]) Lookup(tx *kvstore.Transaction, key K) (E, bool, error) {
	var zero E
	raw, err := v.table.Get(tx, v.keyCodec.EncodeKey(key))
	if err != nil {
		if fault.IsErrNotFound(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	value, err := kvstore.Decode[E](raw)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

func (v *storagePrimaryView[K, E]) Erase(tx *kvstore.Transaction, key K) error {
	v.table.Delete(tx, v.keyCodec.EncodeKey(key))
	return nil
}
