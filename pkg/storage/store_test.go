package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(t *testing.T) Store
}

func newBoltStoreForTesting(t *testing.T) Store {
	s, err := NewBoltDBStore(BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "test_bolt_db")})
	require.NoError(t, err)
	return s
}

func newLevelDBForTesting(t *testing.T) Store {
	s, err := NewLevelDBStore(LevelDBOptions{DataDirectoryPath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func newMemoryStoreForTesting(t *testing.T) Store {
	return NewMemoryStore()
}

func TestStores(t *testing.T) {
	setups := []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"LevelDB", newLevelDBForTesting},
		{"Memory", newMemoryStoreForTesting},
	}
	for _, setup := range setups {
		setup := setup
		t.Run(setup.name, func(t *testing.T) {
			s := setup.create(t)
			t.Cleanup(func() { require.NoError(t, s.Close()) })

			t.Run("PutGet", func(t *testing.T) { testPutGet(t, s) })
			t.Run("PutBatch", func(t *testing.T) { testPutBatch(t, s) })
			t.Run("Seek", func(t *testing.T) { testSeek(t, s) })
		})
	}
}

func testPutGet(t *testing.T, s Store) {
	_, err := s.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Put([]byte("key"), []byte("value")))
	v, err := s.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), v)

	// Overwrite.
	require.NoError(t, s.Put([]byte("key"), []byte("other")))
	v, err = s.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("other"), v)
}

func testPutBatch(t *testing.T, s Store) {
	batch := map[string][]byte{
		"b1": []byte("v1"),
		"b2": []byte("v2"),
	}
	require.NoError(t, s.PutBatch(batch))
	for k, want := range batch {
		v, err := s.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
}

func testSeek(t *testing.T, s Store) {
	for _, kv := range []KeyValue{
		{[]byte("tx:02"), []byte("two")},
		{[]byte("tx:01"), []byte("one")},
		{[]byte("tx:03"), []byte("three")},
		{[]byte("other:01"), []byte("nope")},
	} {
		require.NoError(t, s.Put(kv.Key, kv.Value))
	}

	var got []string
	s.Seek([]byte("tx:"), func(k, v []byte) bool {
		got = append(got, string(v))
		return true
	})
	require.Equal(t, []string{"one", "two", "three"}, got)

	// Early exit.
	got = got[:0]
	s.Seek([]byte("tx:"), func(k, v []byte) bool {
		got = append(got, string(v))
		return false
	})
	require.Equal(t, []string{"one"}, got)
}

func TestNewStoreConfiguration(t *testing.T) {
	s, err := NewStore(DBConfiguration{Type: "inmemory"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewStore(DBConfiguration{Type: "unknowndb"})
	require.Error(t, err)

	cfg := DBConfiguration{Type: "boltdb", BoltDBOptions: BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "db")}}
	require.Equal(t, cfg.BoltDBOptions.FilePath, cfg.Path())
	s, err = NewStore(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
