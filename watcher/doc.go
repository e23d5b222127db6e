// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package watcher is the asynchronous change-notification side of a
// Storage: an in-memory event queue drained by one background worker
// per Watcher, with permanent listeners that live for the Watcher's
// whole lifetime and scoped listeners that a caller can tear down
// early via the holder AppendScoped returns. The worker is built on
// the teacher's background package, the same start/stop goroutine
// helper bitmarkd uses for its own long-running services.
package watcher
