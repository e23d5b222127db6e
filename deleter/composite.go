// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package deleter

// ParentDeleter removes a single record and, on success, notifies a
// downstream ChildStorage that the parent is gone, so the child can
// cascade its own deletions inside the same still-open transaction.
// This replaces the template-inheritance ParentsDeleter of the
// original design with a capability object holding a plain
// ChildNotifiee reference.
type ParentDeleter[K comparable, E any, Tx any] struct {
	*DefaultDeleter[K, E, Tx]
	downstream ChildNotifiee[E, Tx]
}

// NewParentDeleter returns a ParentDeleter that notifies downstream
// after every successful removal.
func NewParentDeleter[K comparable, E any, Tx any](downstream ChildNotifiee[E, Tx]) *ParentDeleter[K, E, Tx] {
	return &ParentDeleter[K, E, Tx]{
		DefaultDeleter: NewDefaultDeleter[K, E, Tx](),
		downstream:     downstream,
	}
}

// Remove erases key from primary and, if that succeeded, calls
// ParentRemoved on the downstream ChildStorage before returning, so
// the cascade shares the caller's transaction.
func (d *ParentDeleter[K, E, Tx]) Remove(tx Tx, primary PrimaryMap[K, E, Tx], key K) (E, bool, error) {
	value, found, err := d.remove(tx, primary, key)
	if err != nil || !found {
		return value, found, err
	}
	if err := d.downstream.ParentRemoved(tx, value); err != nil {
		return value, true, err
	}
	return value, true, nil
}

// ChildParentDeleter cascades its own secondary-keyed children and,
// for every child actually removed, notifies a further downstream
// ChildStorage that those children are themselves gone — the
// recursive step that lets a parent→child→grandchild chain cascade to
// arbitrary depth without any type hierarchy.
type ChildParentDeleter[PK comparable, E any, Tx any] struct {
	*ChildDeleter[PK, E, Tx]
	downstream ChildNotifiee[E, Tx]
}

// NewChildParentDeleter returns a ChildParentDeleter that notifies
// downstream with every batch of children it removes.
func NewChildParentDeleter[PK comparable, E any, Tx any](downstream ChildNotifiee[E, Tx]) *ChildParentDeleter[PK, E, Tx] {
	return &ChildParentDeleter[PK, E, Tx]{
		ChildDeleter: NewChildDeleter[PK, E, Tx](),
		downstream:   downstream,
	}
}

// Cascade removes parent's children and propagates the removal one
// layer further down before returning.
func (d *ChildParentDeleter[PK, E, Tx]) Cascade(tx Tx, secondary SecondaryMultimap[PK, E, Tx], parent PK) ([]E, error) {
	children, err := d.ChildDeleter.Cascade(tx, secondary, parent)
	if err != nil {
		return children, err
	}
	if len(children) == 0 {
		return children, nil
	}
	if err := d.downstream.ParentRemovedMany(tx, children); err != nil {
		return children, err
	}
	return children, nil
}

// CascadeMany is the vectorized form of Cascade.
func (d *ChildParentDeleter[PK, E, Tx]) CascadeMany(tx Tx, secondary SecondaryMultimap[PK, E, Tx], parents []PK) ([]E, error) {
	children, err := d.ChildDeleter.CascadeMany(tx, secondary, parents)
	if err != nil {
		return children, err
	}
	if len(children) == 0 {
		return children, nil
	}
	if err := d.downstream.ParentRemovedMany(tx, children); err != nil {
		return children, err
	}
	return children, nil
}
