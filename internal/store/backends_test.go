package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"

	"seswa/internal/config"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte(`[1]`)))
	require.NoError(t, kv.Set(ctx, "k", []byte(`[1,2]`)))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestGormKV(t *testing.T) {
	dsn := fmt.Sprintf("file:store_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)

	kv := NewGormKV(db)
	require.NoError(t, kv.Migrate())
	exerciseKV(t, kv)

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "old", []byte(`[]`)))
	require.NoError(t, db.Model(&StateEntry{}).Where("state_key = ?", "old").
		Update("updated_at", time.Now().Add(-48*time.Hour)).Error)
	require.NoError(t, kv.Set(ctx, "fresh", []byte(`[]`)))

	n, err := kv.PurgeOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = kv.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = kv.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseKV(t, NewRedisKV(client))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = DialRedis(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := []struct {
		cfg  config.Config
		want any
	}{
		{config.Config{StoreBackend: config.StoreMemory}, &MemoryKV{}},
		{config.Config{StoreBackend: config.StoreDatabase, DatabaseURL: "file:open_backend?mode=memory&cache=shared"}, &GormKV{}},
		{config.Config{StoreBackend: config.StoreRedis, RedisURL: "redis://" + mr.Addr() + "/0"}, &RedisKV{}},
	}
	for _, tc := range cases {
		t.Run(tc.cfg.StoreBackend, func(t *testing.T) {
			b, err := OpenBackend(ctx, &tc.cfg, zap.NewNop())
			require.NoError(t, err)
			defer b.Close()

			assert.IsType(t, tc.want, b.KV)
			assert.Equal(t, tc.cfg.StoreBackend, b.Name)
			exerciseKV(t, b.KV)
		})
	}

	_, err := OpenBackend(ctx, &config.Config{StoreBackend: "etcd"}, zap.NewNop())
	assert.Error(t, err)
}
