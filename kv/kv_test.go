package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "kv.db"))
	require.NoError(t, err)
	bd, err := OpenBadger(filepath.Join(dir, "badger"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
		"badger": bd,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "queue")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "queue", []byte(`[1]`)))
			require.NoError(t, s.Put(ctx, "queue", []byte(`[1,2]`)))

			got, err := s.Get(ctx, "queue")
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(got))

			require.NoError(t, s.Delete(ctx, "queue"))
			_, err = s.Get(ctx, "queue")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "missing"))
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("etcd", "")
	assert.Error(t, err)

	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}
