// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txmanager provides scoped acquisition of a kvstore
// transaction with guaranteed release on every exit path, mirroring
// the teacher's AccessData/DataAccess begin-then-defer-release idiom
// but wrapped so a caller cannot forget to abort a transaction it
// never committed.
package txmanager
