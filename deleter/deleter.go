// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package deleter implements referential cleanup as a graph of small
// capability objects rather than a class hierarchy: a deleter either
// removes one record from a primary map, cascades a parent key
// through a secondary multimap, or both, and optionally notifies one
// downstream ChildNotifiee before its caller's transaction commits.
//
// Every operation here takes the caller's transaction handle (Tx, an
// opaque type parameter bound by the storage layer to its own
// transaction type) and passes it straight through; nothing in this
// package ever begins or commits one, so a whole parent→child cascade
// runs inside a single transaction the top-level caller owns.
package deleter

// PrimaryMap is the subset of a Storage's primary index a deleter
// needs to remove a single record by key.
type PrimaryMap[K comparable, E any, Tx any] interface {
	Lookup(tx Tx, key K) (E, bool, error)
	Erase(tx Tx, key K) error
}

// SecondaryMultimap is the subset of a ChildStorage's secondary index
// a deleter needs to cascade a parent key to its children.
type SecondaryMultimap[PK comparable, E any, Tx any] interface {
	EqualRange(tx Tx, parent PK) ([]E, error)
	EraseRange(tx Tx, parent PK) error
}

// ChildNotifiee is implemented by a downstream ChildStorage. A
// deleter that removes parent records calls ParentRemoved (or
// ParentRemovedMany for a cascade) synchronously, inside the same
// still-open transaction as the parent removal, so the child cleanup
// commits atomically with it.
type ChildNotifiee[Parent any, Tx any] interface {
	ParentRemoved(tx Tx, parent Parent) error
	ParentRemovedMany(tx Tx, parents []Parent) error
}

// Remover removes a single record by key. LeafDeleter and
// ParentDeleter both satisfy it; a Storage holds one Remover without
// caring which.
type Remover[K comparable, E any, Tx any] interface {
	Remove(tx Tx, primary PrimaryMap[K, E, Tx], key K) (E, bool, error)
}

// Cascader removes every record keyed to one or more parents.
// ChildDeleter and ChildParentDeleter both satisfy it; a ChildStorage
// holds one Cascader without caring which.
type Cascader[PK comparable, E any, Tx any] interface {
	Cascade(tx Tx, secondary SecondaryMultimap[PK, E, Tx], parent PK) ([]E, error)
	CascadeMany(tx Tx, secondary SecondaryMultimap[PK, E, Tx], parents []PK) ([]E, error)
}
