package prstorage

// Wrapper is an edit handle combining a shared Storage reference with
// a private copy of one record. Mutating the copy via Set never
// touches persistent state until Save succeeds.
type Wrapper[K comparable, E any] struct {
	storage *Storage[K, E]
	key     K
	value   E
}

// Value returns the wrapper's current in-memory copy.
func (w *Wrapper[K, E]) Value() E {
	return w.value
}

// Set replaces the wrapper's in-memory copy without touching
// persistent state.
func (w *Wrapper[K, E]) Set(v E) {
	w.value = v
}

// Save writes the wrapper's current copy back with StrictUpdate: it
// only succeeds if the key is still present.
func (w *Wrapper[K, E]) Save() (bool, error) {
	return w.storage.StrictUpdate(w.value)
}

// Remove deletes the record at the wrapper's key.
func (w *Wrapper[K, E]) Remove() (bool, error) {
	return w.storage.Remove(w.key)
}

// Reload refetches the record from storage, discarding any unsaved
// local edits.
func (w *Wrapper[K, E]) Reload() error {
	value, err := w.storage.Get(w.key)
	if err != nil {
		return err
	}
	w.value = value
	return nil
}
