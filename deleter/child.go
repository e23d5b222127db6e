// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package deleter

import "github.com/bitmark-inc/logger"

var log = logger.New("DELETER")

// ChildDeleter removes every record keyed to a parent (or set of
// parents) from a secondary multimap. It is the cascade primitive
// ChildParentDeleter builds on.
type ChildDeleter[PK comparable, E any, Tx any] struct{}

// NewChildDeleter returns a ChildDeleter for the given parent-key and
// record types.
func NewChildDeleter[PK comparable, E any, Tx any]() *ChildDeleter[PK, E, Tx] {
	return &ChildDeleter[PK, E, Tx]{}
}

// Cascade removes every record keyed to parent and returns the
// removed records in the secondary's natural order.
func (d *ChildDeleter[PK, E, Tx]) Cascade(tx Tx, secondary SecondaryMultimap[PK, E, Tx], parent PK) ([]E, error) {
	children, err := secondary.EqualRange(tx, parent)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return children, nil
	}
	if err := secondary.EraseRange(tx, parent); err != nil {
		return nil, err
	}
	log.Debugf("cascaded %d children for parent %v", len(children), parent)
	return children, nil
}

// CascadeMany removes every record keyed to any of parents, in
// iteration order of parents, and returns the concatenated removed
// records.
func (d *ChildDeleter[PK, E, Tx]) CascadeMany(tx Tx, secondary SecondaryMultimap[PK, E, Tx], parents []PK) ([]E, error) {
	var all []E
	for _, parent := range parents {
		children, err := d.Cascade(tx, secondary, parent)
		if err != nil {
			return all, err
		}
		all = append(all, children...)
	}
	return all, nil
}
