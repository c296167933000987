package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langsite/internal/storage"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	store := storage.NewRedisStore(client, "langsite:", 24*time.Hour)

	mock.ExpectSet("langsite:language", "ro", 24*time.Hour).SetVal("OK")
	require.NoError(t, store.Set(ctx, "language", "ro"))

	mock.ExpectGet("langsite:language").SetVal("ro")
	value, found, err := store.Get(ctx, "language")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ro", value)

	mock.ExpectGet("langsite:user").RedisNil()
	_, found, err = store.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectDel("langsite:user").SetVal(1)
	require.NoError(t, store.Remove(ctx, "user"))

	mock.ExpectGet("langsite:language").SetErr(errors.New("connection refused"))
	_, _, err = store.Get(ctx, "language")
	assert.Error(t, err)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, store.Ping(ctx))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	assert.Error(t, store.Ping(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, found, err := store.Get(ctx, "language")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "language", "en"))
	require.NoError(t, store.Set(ctx, "language", "ro"))
	value, found, err := store.Get(ctx, "language")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ro", value)

	require.NoError(t, store.Remove(ctx, "language"))
	_, found, err = store.Get(ctx, "language")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(ctx))
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := storage.OpenSQLite("  ")
	assert.Error(t, err)
}
