package prstorage_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prstorage/deleter"
	"prstorage/kvstore"
	"prstorage/prstorage"
	"prstorage/watcher"
)

// Every test below declares its own record types, even where two
// tests would otherwise share an identical shape: kvstore.RegisterCodec
// enforces exactly one registration per Go type for the life of the
// test binary, and a locally-scoped type declared inside one test
// function is distinct from the same-looking declaration inside
// another.

func twoFieldMarshaller[E any](build func(a, b string) E, split func(E) (string, string)) marshallerFunc[E] {
	return marshallerFunc[E]{
		byteSize: func(e E) uint32 {
			a, b := split(e)
			return uint32(1 + len(a) + len(b))
		},
		write: func(e E, dest []byte) {
			a, b := split(e)
			dest[0] = byte(len(a))
			copy(dest[1:], a)
			copy(dest[1+len(a):], b)
		},
		read: func(src []byte) E {
			n := int(src[0])
			return build(string(src[1:1+n]), string(src[1+n:]))
		},
	}
}

func TestChildStorageParentCascadeOneLevel(t *testing.T) {
	type parentRecord struct{ ID, Name string }
	type childRec struct{ ID, ParentID string }

	db := openTestDatabase(t)

	childWatcher := watcher.New[childRec]()
	defer childWatcher.Close()

	var mu sync.Mutex
	var deletedChildIDs []string
	childWatcher.AppendPermanent(watcher.Deleted, func(c childRec) {
		mu.Lock()
		defer mu.Unlock()
		deletedChildIDs = append(deletedChildIDs, c.ID)
	})

	child, err := prstorage.NewChildStorage[string, childRec, string, parentRecord](
		db, []byte("C"), []byte("CS"),
		stringKeyCodec{}, stringKeyCodec{},
		func(c childRec) string { return c.ID },
		func(p parentRecord) string { return p.ID },
		func(c childRec) string { return c.ParentID },
		twoFieldMarshaller(
			func(a, b string) childRec { return childRec{ID: a, ParentID: b} },
			func(c childRec) (string, string) { return c.ID, c.ParentID }),
		nil, nil, childWatcher,
	)
	require.NoError(t, err)

	parent, err := prstorage.NewStorage[string, parentRecord](
		db, []byte("P"), stringKeyCodec{}, func(p parentRecord) string { return p.ID },
		twoFieldMarshaller(
			func(a, b string) parentRecord { return parentRecord{ID: a, Name: b} },
			func(p parentRecord) (string, string) { return p.ID, p.Name }),
		deleter.NewParentDeleter[string, parentRecord, *kvstore.Transaction](child), nil)
	require.NoError(t, err)

	_, err = parent.Add(parentRecord{"p1", "pn1"})
	require.NoError(t, err)
	_, err = parent.Add(parentRecord{"p2", "pn2"})
	require.NoError(t, err)

	_, err = child.Add(childRec{"c1", "p1"})
	require.NoError(t, err)
	_, err = child.Add(childRec{"c1_2", "p1"})
	require.NoError(t, err)
	_, err = child.Add(childRec{"c2", "p2"})
	require.NoError(t, err)

	ok, err := parent.Remove("p1")
	require.NoError(t, err)
	assert.True(t, ok)

	has, err := child.Has("c1")
	require.NoError(t, err)
	assert.False(t, has)
	has, err = child.Has("c1_2")
	require.NoError(t, err)
	assert.False(t, has)
	has, err = child.Has("c2")
	require.NoError(t, err)
	assert.True(t, has)

	require.True(t, eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(deletedChildIDs) == 2
	}))
	mu.Lock()
	assert.ElementsMatch(t, []string{"c1", "c1_2"}, deletedChildIDs)
	mu.Unlock()
}

func TestChildStorageParentCascadeTwoLevels(t *testing.T) {
	type parentRecord struct{ ID, Name string }
	type midRec struct{ ID, ParentID string }
	type leafRec struct{ ID, ParentID string }

	db := openTestDatabase(t)

	leaf, err := prstorage.NewChildStorage[string, leafRec, string, midRec](
		db, []byte("L"), []byte("LS"),
		stringKeyCodec{}, stringKeyCodec{},
		func(r leafRec) string { return r.ID },
		func(m midRec) string { return m.ID },
		func(r leafRec) string { return r.ParentID },
		twoFieldMarshaller(
			func(a, b string) leafRec { return leafRec{ID: a, ParentID: b} },
			func(r leafRec) (string, string) { return r.ID, r.ParentID }),
		nil, nil, nil,
	)
	require.NoError(t, err)

	mid, err := prstorage.NewChildStorage[string, midRec, string, parentRecord](
		db, []byte("M"), []byte("MS"),
		stringKeyCodec{}, stringKeyCodec{},
		func(r midRec) string { return r.ID },
		func(p parentRecord) string { return p.ID },
		func(r midRec) string { return r.ParentID },
		twoFieldMarshaller(
			func(a, b string) midRec { return midRec{ID: a, ParentID: b} },
			func(r midRec) (string, string) { return r.ID, r.ParentID }),
		nil,
		deleter.NewChildParentDeleter[string, midRec, *kvstore.Transaction](leaf),
		nil,
	)
	require.NoError(t, err)

	parent, err := prstorage.NewStorage[string, parentRecord](
		db, []byte("P2"), stringKeyCodec{}, func(p parentRecord) string { return p.ID },
		twoFieldMarshaller(
			func(a, b string) parentRecord { return parentRecord{ID: a, Name: b} },
			func(p parentRecord) (string, string) { return p.ID, p.Name }),
		deleter.NewParentDeleter[string, parentRecord, *kvstore.Transaction](mid),
		nil,
	)
	require.NoError(t, err)

	_, err = parent.Add(parentRecord{"p1", "pn1"})
	require.NoError(t, err)
	_, err = parent.Add(parentRecord{"p2", "pn2"})
	require.NoError(t, err)

	for _, m := range []midRec{{"m1", "p1"}, {"m2", "p1"}, {"m3", "p2"}} {
		_, err := mid.Add(m)
		require.NoError(t, err)
	}
	for _, l := range []leafRec{{"l1", "m1"}, {"l2", "m1"}, {"l3", "m2"}, {"l4", "m3"}} {
		_, err := leaf.Add(l)
		require.NoError(t, err)
	}

	ok, err := parent.Remove("p1")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, id := range []string{"m1", "m2"} {
		has, err := mid.Has(id)
		require.NoError(t, err)
		assert.False(t, has, id)
	}
	has, err := mid.Has("m3")
	require.NoError(t, err)
	assert.True(t, has)

	for _, id := range []string{"l1", "l2", "l3"} {
		has, err := leaf.Has(id)
		require.NoError(t, err)
		assert.False(t, has, id)
	}
	has, err = leaf.Has("l4")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestChildStorageStrictUpdateRelocatesSecondaryEntryOnParentChange(t *testing.T) {
	type parentRecord struct{ ID, Name string }
	type childRec struct{ ID, ParentID string }

	db := openTestDatabase(t)

	child, err := prstorage.NewChildStorage[string, childRec, string, parentRecord](
		db, []byte("C3"), []byte("CS3"),
		stringKeyCodec{}, stringKeyCodec{},
		func(c childRec) string { return c.ID },
		func(p parentRecord) string { return p.ID },
		func(c childRec) string { return c.ParentID },
		twoFieldMarshaller(
			func(a, b string) childRec { return childRec{ID: a, ParentID: b} },
			func(c childRec) (string, string) { return c.ID, c.ParentID }),
		nil, nil, nil,
	)
	require.NoError(t, err)

	parent, err := prstorage.NewStorage[string, parentRecord](
		db, []byte("P3"), stringKeyCodec{}, func(p parentRecord) string { return p.ID },
		twoFieldMarshaller(
			func(a, b string) parentRecord { return parentRecord{ID: a, Name: b} },
			func(p parentRecord) (string, string) { return p.ID, p.Name }),
		deleter.NewParentDeleter[string, parentRecord, *kvstore.Transaction](child), nil)
	require.NoError(t, err)

	_, err = parent.Add(parentRecord{"p1", "pn1"})
	require.NoError(t, err)
	_, err = parent.Add(parentRecord{"p2", "pn2"})
	require.NoError(t, err)
	_, err = child.Add(childRec{"c1", "p1"})
	require.NoError(t, err)

	ok, err := child.StrictUpdate(childRec{"c1", "p2"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = parent.Remove("p1")
	require.NoError(t, err)
	assert.True(t, ok)
	has, err := child.Has("c1")
	require.NoError(t, err)
	assert.True(t, has, "c1 should have followed its relocated secondary entry, not the old one")

	ok, err = parent.Remove("p2")
	require.NoError(t, err)
	assert.True(t, ok)
	has, err = child.Has("c1")
	require.NoError(t, err)
	assert.False(t, has)
}
