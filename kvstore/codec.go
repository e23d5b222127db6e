// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"reflect"
	"sync"

	"prstorage/fault"
	"prstorage/marshal"
)

// codecEntry type-erases a Marshaller[E] so it can live in a single
// process-wide map keyed by the record type it serves. This replaces
// the global static engine-traits registry of the original design
// with a typed registry keyed by reflect.Type, scanned the same way
// the teacher's pool.Initialise uses reflect.TypeOf/ValueOf to wire up
// its fixed set of pools from struct tags, generalized here to an open
// set of record types registered one at a time rather than scanned
// from a single struct.
type codecEntry struct {
	byteSize func(v any) uint32
	write    func(v any, dest []byte)
	read     func(src []byte) any
}

var registry sync.Map // reflect.Type -> *codecEntry

// RegisterCodec installs m as the marshaller for E. Only one
// marshaller may ever be registered for a given E in the lifetime of
// the process; a second attempt fails with ErrAlreadyRegistered.
func RegisterCodec[E any](m marshal.Marshaller[E]) error {
	t := reflect.TypeOf((*E)(nil)).Elem()

	entry := &codecEntry{
		byteSize: func(v any) uint32 { return m.ByteSize(v.(E)) },
		write:    func(v any, dest []byte) { m.Write(v.(E), dest) },
		read:     func(src []byte) any { return m.Read(src) },
	}

	if _, loaded := registry.LoadOrStore(t, entry); loaded {
		return fault.ErrAlreadyRegistered
	}
	return nil
}

func codecFor[E any]() (*codecEntry, bool) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	v, ok := registry.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*codecEntry), true
}

// Encode serializes e using the marshaller registered for E.
func Encode[E any](e E) ([]byte, error) {
	c, ok := codecFor[E]()
	if !ok {
		return nil, fault.ErrNotRegistered
	}
	buf := make([]byte, c.byteSize(e))
	c.write(e, buf)
	return buf, nil
}

// Decode reconstructs a record of type E from data using the
// marshaller registered for E.
func Decode[E any](data []byte) (E, error) {
	c, ok := codecFor[E]()
	if !ok {
		var zero E
		return zero, fault.ErrNotRegistered
	}
	return c.read(data).(E), nil
}
