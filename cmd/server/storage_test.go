package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langsite/config"
)

func TestOpenStorage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("cookie", func(t *testing.T) {
		backend, err := openStorage(ctx, config.StorageConfig{Backend: "cookie"})
		require.NoError(t, err)
		assert.NotNil(t, backend.provider)
		assert.Nil(t, backend.sizer)
		assert.Empty(t, backend.probes)
		assert.NoError(t, backend.Close())
	})

	t.Run("memory", func(t *testing.T) {
		backend, err := openStorage(ctx, config.StorageConfig{Backend: "memory"})
		require.NoError(t, err)
		assert.NotNil(t, backend.sizer)
		assert.Equal(t, 0, backend.sizer.Len())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.db")
		backend, err := openStorage(ctx, config.StorageConfig{Backend: "sqlite", SQLitePath: path})
		require.NoError(t, err)
		require.Contains(t, backend.probes, "sqlite")
		assert.NoError(t, backend.probes["sqlite"](ctx))
		assert.NoError(t, backend.Close())
		assert.Error(t, backend.probes["sqlite"](ctx))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStorage(ctx, config.StorageConfig{Backend: "etcd"})
		assert.Error(t, err)
	})
}
