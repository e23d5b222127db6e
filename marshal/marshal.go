// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package marshal declares the external record<->bytes contract each
// Storage record type must supply; prstorage never ships an
// implementation of it, mirroring the teacher's treatment of
// marshalling as an out-of-package concern supplied by the asset,
// block and transaction record types.
package marshal

// Marshaller converts a record of type E to and from its persisted
// byte form. The byte form must be self-contained: ByteSize reports
// exactly the number of bytes Write produces, and Read must consume
// exactly that many bytes to reconstruct an equal record.
type Marshaller[E any] interface {
	ByteSize(e E) uint32
	Write(e E, dest []byte)
	Read(src []byte) E
}

// KeyCodec converts a record's primary key of type K to and from its
// byte encoding. The byte encoding's lexicographic order must agree
// with K's natural order, since the underlying engine orders keys as
// byte strings.
type KeyCodec[K any] interface {
	EncodeKey(k K) []byte
	DecodeKey(b []byte) K
}
