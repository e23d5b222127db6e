package txmanager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prstorage/kvstore"
	"prstorage/txmanager"
)

func openTestDatabase(t *testing.T) *kvstore.Database {
	env, err := kvstore.OpenEnvironment(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	db, err := env.Database("test", false)
	require.NoError(t, err)
	return db
}

func TestNewReservesATransaction(t *testing.T) {
	db := openTestDatabase(t)

	mgr, err := txmanager.New(db)
	require.NoError(t, err)
	defer mgr.Release()

	require.NotNil(t, mgr.Tx())
}

func TestNewOnNilDatabaseIsNoOp(t *testing.T) {
	mgr, err := txmanager.New(nil)
	require.NoError(t, err)

	assert.Nil(t, mgr.Tx())
	assert.NoError(t, mgr.Commit())
	mgr.Abort()
	mgr.Release()
}

func TestCommitPersistsAndIsIdempotent(t *testing.T) {
	db := openTestDatabase(t)
	table := db.Table([]byte("P"))

	mgr, err := txmanager.New(db)
	require.NoError(t, err)
	defer mgr.Release()

	table.Put(mgr.Tx(), []byte("k1"), []byte("v1"))
	require.NoError(t, mgr.Commit())
	require.NoError(t, mgr.Commit())

	readTx := db.Begin()
	require.NoError(t, readTx.Begin())
	defer readTx.Abort()
	value, err := table.Get(readTx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
}

func TestReleaseAbortsAnOutstandingTransaction(t *testing.T) {
	db := openTestDatabase(t)
	table := db.Table([]byte("P"))

	mgr, err := txmanager.New(db)
	require.NoError(t, err)
	table.Put(mgr.Tx(), []byte("k1"), []byte("v1"))
	mgr.Release()

	readTx := db.Begin()
	require.NoError(t, readTx.Begin())
	defer readTx.Abort()
	_, err = table.Get(readTx, []byte("k1"))
	assert.Error(t, err)
}

func TestReleaseAfterCommitIsNoOp(t *testing.T) {
	db := openTestDatabase(t)
	table := db.Table([]byte("P"))

	mgr, err := txmanager.New(db)
	require.NoError(t, err)
	table.Put(mgr.Tx(), []byte("k1"), []byte("v1"))
	require.NoError(t, mgr.Commit())
	mgr.Release()

	readTx := db.Begin()
	require.NoError(t, readTx.Begin())
	defer readTx.Abort()
	value, err := table.Get(readTx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
}
