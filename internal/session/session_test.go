package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langsite/internal/session"
	"langsite/internal/storage"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("backend down") }
func (failingStore) Remove(context.Context, string) error      { return errors.New("backend down") }

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(storage.NewMemoryStore(0))
	want := session.Session{ID: "42", Name: "Ana", Email: "ana@example.com", Token: "tok"}

	require.NoError(t, store.Save(ctx, want))
	got, found := store.Load(ctx)

	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestStore_LoadAbsent(t *testing.T) {
	_, found := session.NewStore(storage.NewMemoryStore(0)).Load(context.Background())
	assert.False(t, found)
}

func TestStore_CorruptedEntryIsCleared(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{not json"},
		{name: "null", raw: "null"},
		{name: "empty object", raw: "{}"},
		{name: "string", raw: `"x"`},
		{name: "boolean", raw: "true"},
		{name: "array", raw: `[{"id":"1"}]`},
		{name: "name only", raw: `{"name":"Ana"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			port := storage.NewMemoryStore(0)
			require.NoError(t, port.Set(ctx, storage.KeyUser, tt.raw))
			corruptCalls := 0
			store := session.NewStore(port).OnCorrupt(func() { corruptCalls++ })

			_, found := store.Load(ctx)

			assert.False(t, found)
			_, stillThere, _ := port.Get(ctx, storage.KeyUser)
			assert.False(t, stillThere)
			assert.Equal(t, 1, corruptCalls)
		})
	}
}

func TestStore_LoadAcceptsPartialRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want session.Session
	}{
		{name: "id only", raw: `{"id":"7"}`, want: session.Session{ID: "7"}},
		{name: "email only", raw: `{"email":"ana@example.com"}`, want: session.Session{Email: "ana@example.com"}},
		{name: "token only", raw: `{"token":"tok","name":"Ana"}`, want: session.Session{Name: "Ana", Token: "tok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			port := storage.NewMemoryStore(0)
			require.NoError(t, port.Set(ctx, storage.KeyUser, tt.raw))

			got, found := session.NewStore(port).Load(ctx)

			assert.True(t, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(storage.NewMemoryStore(0))
	require.NoError(t, store.Save(ctx, session.Session{ID: "42", Name: "Ana"}))
	_, found := store.Load(ctx)
	require.True(t, found)

	require.NoError(t, store.Clear(ctx))

	_, found = store.Load(ctx)
	assert.False(t, found)
}

func TestStore_BackendFailures(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(failingStore{})

	assert.Error(t, store.Save(ctx, session.Session{Name: "Ana"}))
	assert.Error(t, store.Clear(ctx))
	_, found := store.Load(ctx)
	assert.False(t, found)
}
