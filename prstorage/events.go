package prstorage

import (
	"sync"

	"prstorage/kvstore"
)

// eventBuffer accumulates the watcher notifications a single
// transaction's mutations want to fire, so they reach the watcher only
// once that transaction actually commits (spec: "events are emitted
// AFTER the transaction commits"). A parent→child cascade shares one
// transaction across several Storages; each level prepends its own
// event ahead of whatever its downstream cascade already queued, so
// the final order is parent, then direct children in removal order,
// then deeper descendants — exactly the nesting order the cascade
// itself executes in.
type eventBuffer struct {
	mu  sync.Mutex
	fns []func()
}

var txEvents sync.Map // *kvstore.Transaction -> *eventBuffer

func bufferFor(tx *kvstore.Transaction) *eventBuffer {
	v, _ := txEvents.LoadOrStore(tx, &eventBuffer{})
	return v.(*eventBuffer)
}

func releaseEvents(tx *kvstore.Transaction) {
	txEvents.Delete(tx)
}

func (b *eventBuffer) add(fn func()) {
	b.mu.Lock()
	b.fns = append(b.fns, fn)
	b.mu.Unlock()
}

func (b *eventBuffer) prepend(fns []func()) {
	if len(fns) == 0 {
		return
	}
	b.mu.Lock()
	b.fns = append(append(make([]func(), 0, len(fns)+len(b.fns)), fns...), b.fns...)
	b.mu.Unlock()
}

func (b *eventBuffer) flush() {
	b.mu.Lock()
	fns := b.fns
	b.fns = nil
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
