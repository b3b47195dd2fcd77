package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(0)
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", sample{Name: "a", Count: 2}, time.Minute))

	var got sample
	found, err := mc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "a", Count: 2}, got)

	require.NoError(t, mc.Set(ctx, "short", sample{}, -time.Second))
	found, err = mc.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_InvalidateByPrefix(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(0)
	defer mc.Close()

	userID := uuid.New()
	other := uuid.New()
	require.NoError(t, mc.Set(ctx, BookingsKey(userID, "client", ""), []int{1}, time.Minute))
	require.NoError(t, mc.Set(ctx, BookingsKey(userID, "provider", "pending"), []int{2}, time.Minute))
	require.NoError(t, mc.Set(ctx, BookingsKey(other, "client", ""), []int{3}, time.Minute))

	require.NoError(t, mc.InvalidateByPrefix(ctx, BookingsPrefix(userID)))

	var dest []int
	found, _ := mc.Get(ctx, BookingsKey(userID, "client", ""), &dest)
	assert.False(t, found)
	found, _ = mc.Get(ctx, BookingsKey(other, "client", ""), &dest)
	assert.True(t, found)
}

func TestRedisCache_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	rc := NewRedisCacheWithClient(client)

	mock.ExpectGet("missing").RedisNil()

	var dest sample
	found, err := rc.Get(context.Background(), "missing", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_SetAndGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	rc := NewRedisCacheWithClient(client)

	payload := `{"name":"b","count":1}`
	mock.ExpectSet("k", []byte(payload), time.Minute).SetVal("OK")
	mock.ExpectGet("k").SetVal(payload)

	require.NoError(t, rc.Set(context.Background(), "k", sample{Name: "b", Count: 1}, time.Minute))

	var got sample
	found, err := rc.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_InvalidateByPrefix(t *testing.T) {
	client, mock := redismock.NewClientMock()
	rc := NewRedisCacheWithClient(client)

	mock.ExpectScan(0, "bookings:u:*", 100).SetVal([]string{"bookings:u:client:all"}, 7)
	mock.ExpectDel("bookings:u:client:all").SetVal(1)
	mock.ExpectScan(7, "bookings:u:*", 100).SetVal([]string{}, 0)

	require.NoError(t, rc.InvalidateByPrefix(context.Background(), "bookings:u:"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
