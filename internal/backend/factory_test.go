package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketspend/internal/cache"
	"pocketspend/internal/config"
	"pocketspend/internal/persist"
	remotemem "pocketspend/internal/remote/memory"
	"pocketspend/internal/remote/rest"
	sheetmem "pocketspend/internal/sheets/memory"
)

func TestCreateStorage(t *testing.T) {
	ctx := context.Background()
	manager := cache.NewManager(nil)
	f := NewFactory(nil, manager)

	t.Run("sqlite with cache", func(t *testing.T) {
		s, err := f.CreateStorage(ctx, Config{
			Storage:     SQLiteStorage,
			StoragePath: filepath.Join(t.TempDir(), "local.db"),
			CacheSize:   4,
			CacheTTL:    time.Minute,
		})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &persist.CachedStorage{}, s)

		require.NoError(t, s.SetItem(ctx, persist.AuthKey, []byte(`{"state":{},"version":0}`)))
		got, ok, err := s.GetItem(ctx, persist.AuthKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"state":{},"version":0}`, string(got))
	})

	t.Run("memory without cache", func(t *testing.T) {
		s, err := f.CreateStorage(ctx, Config{Storage: MemoryStorage})
		require.NoError(t, err)
		assert.IsType(t, &persist.MemoryStorage{}, s)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := f.CreateStorage(ctx, Config{Storage: "redis"})
		assert.Error(t, err)
	})
}

func TestCreateRemote(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil, nil)

	api, err := f.CreateRemote(ctx, Config{
		Remote:      RESTRemote,
		UsersURL:    "http://localhost:8081/api/v1/users",
		ExpensesURL: "http://localhost:8081/api/v1/expenses",
	})
	require.NoError(t, err)
	assert.IsType(t, &rest.Client{}, api)

	api, err = f.CreateRemote(ctx, Config{Remote: MemoryRemote, SeedDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &remotemem.Remote{}, api)

	_, err = f.CreateRemote(ctx, Config{Remote: RESTRemote, UsersURL: "::bad", ExpensesURL: "x"})
	assert.Error(t, err)
}

func TestCreateMirrorDefaultsToMemory(t *testing.T) {
	m, err := NewFactory(nil, nil).CreateMirror(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &sheetmem.Mirror{}, m)
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		StorageBackend:   "memory",
		RemoteBackend:    "memory",
		StorageCacheSize: 8,
		StorageCacheTTL:  time.Minute,
		SeedDir:          "./data",
	}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, MemoryStorage, cfg.Storage)
	assert.Equal(t, MemoryRemote, cfg.Remote)
	assert.Equal(t, 8, cfg.CacheSize)

	app.StorageBackend = "sqlite"
	_, err = FromAppConfig(app)
	assert.EqualError(t, err, "storage path is required for sqlite storage")
}
