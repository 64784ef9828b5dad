package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, zerolog.Nop())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rs := testRedisStore(t)

	require.NoError(t, rs.Save(ctx, "global", []byte(`{"code":"GLOBAL"}`)))
	require.NoError(t, rs.Save(ctx, "ROOM2", []byte(`{"code":"ROOM2"}`)))

	loaded, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.JSONEq(t, `{"code":"GLOBAL"}`, string(loaded["GLOBAL"]))
	assert.JSONEq(t, `{"code":"ROOM2"}`, string(loaded["ROOM2"]))
}

func TestRedisStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	rs := testRedisStore(t)

	require.NoError(t, rs.Save(ctx, "GLOBAL", []byte(`{"v":1}`)))
	require.NoError(t, rs.Save(ctx, "GLOBAL", []byte(`{"v":2}`)))

	loaded, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(loaded["GLOBAL"]))
}

func TestRedisStoreLoadAllEmpty(t *testing.T) {
	rs := testRedisStore(t)

	loaded, err := rs.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
