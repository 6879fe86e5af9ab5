package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nvalerio/accountd/internal/models"
)

func openCacheTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CacheEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestDatabaseStoreSetGet(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Minute))

	value, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v1"), value)

	_, found, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDatabaseStoreExpiry(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ephemeral", []byte("v"), -time.Second))

	_, found, err := store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	require.False(t, found, "expired keys behave like absent keys")
}

func TestDatabaseStoreSetWithoutTTLPersists(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "pinned", []byte("v"), 0))

	value, found, err := store.Get(ctx, "pinned")
	require.NoError(t, err)
	require.True(t, found, "a zero TTL stores the key without expiry")
	require.Equal(t, []byte("v"), value)
}

func TestDatabaseStoreGetDeleteConsumesOnce(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", []byte("account-1"), time.Minute))

	value, found, err := store.GetDelete(ctx, "token")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("account-1"), value)

	_, found, err = store.GetDelete(ctx, "token")
	require.NoError(t, err)
	require.False(t, found, "a consumed key must not be observable again")
}

func TestDatabaseStoreGetDeleteExpired(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stale", []byte("v"), -time.Second))

	_, found, err := store.GetDelete(ctx, "stale")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Greater(t, ttl, time.Duration(0))

	count, _, err = store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestDatabaseStoreDelete(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "gone", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "gone", "never-existed"))

	_, found, err := store.Get(ctx, "gone")
	require.NoError(t, err)
	require.False(t, found)
}
