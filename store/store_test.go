package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiflotfy/genpress/descriptor"
)

func sampleEnvelope(origin string, start int64) *descriptor.Envelope {
	return &descriptor.Envelope{
		Origin:     origin,
		Length:     10,
		Codec:      descriptor.CodecFlate,
		Descriptor: descriptor.New(descriptor.Arithmetic{Start: start, Step: 2}, 3),
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "genpress.db")),
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Init(ctx))
			t.Cleanup(func() { _ = CloseIfSupported(s) })

			first := sampleEnvelope("ints", 1)
			second := sampleEnvelope("text", 5)
			id1, err := s.Put(ctx, first)
			require.NoError(t, err)
			id2, err := s.Put(ctx, second)
			require.NoError(t, err)
			assert.NotEqual(t, id1, id2)

			got, ok, err := s.Get(ctx, id1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "ints", got.Origin)
			assert.Equal(t, 10, got.Length)
			if diff := cmp.Diff(first.Descriptor, got.Descriptor, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
			}

			entries, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, id1, entries[0].ID)
			assert.Equal(t, id2, entries[1].ID)
			assert.Equal(t, descriptor.KindArithmetic, entries[1].Kind)
			assert.Equal(t, "text", entries[1].Origin)
			assert.Positive(t, entries[0].Bytes)

			deleted, err := s.Delete(ctx, id1)
			require.NoError(t, err)
			assert.True(t, deleted)
			deleted, err = s.Delete(ctx, id1)
			require.NoError(t, err)
			assert.False(t, deleted)

			_, ok, err = s.Get(ctx, id1)
			require.NoError(t, err)
			assert.False(t, ok)

			entries, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, id2, entries[0].ID)
		})
	}
}

func TestStoreUnknownID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Init(ctx))
			t.Cleanup(func() { _ = CloseIfSupported(s) })

			env, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, env)
		})
	}
}

func TestStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Put(ctx, sampleEnvelope("ints", 0))
			assert.ErrorContains(t, err, "not initialized")
		})
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "genpress.db")

	s := NewSQLiteStore(path)
	require.NoError(t, s.Init(ctx))
	id, err := s.Put(ctx, sampleEnvelope("bytes", 7))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	defer reopened.Close()
	got, ok, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bytes", got.Origin)

	assert.Error(t, NewSQLiteStore("").Init(ctx))
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = NewStore("redis", "")
	assert.ErrorContains(t, err, "unsupported store backend")
}
