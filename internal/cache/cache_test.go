package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{ID: 1, Title: "Inception"}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, MovieKey(1), &first, time.Minute, fetch(&first)))
	assert.Equal(t, "Inception", first.Title)
	assert.True(t, mr.Exists("movie:1"))

	var second payload
	require.NoError(t, Aside(ctx, MovieKey(1), &second, time.Minute, fetch(&second)))
	assert.Equal(t, "Inception", second.Title)
	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Minute, mr.TTL("movie:1"))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)
	boom := errors.New("not found")

	var dest payload
	err := Aside(context.Background(), MovieKey(2), &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("movie:2"))
}

func TestAside_CorruptEntryRefetched(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set("movie:3", "{not json"))

	var dest payload
	err := Aside(context.Background(), MovieKey(3), &dest, time.Minute, func() error {
		dest = payload{ID: 3, Title: "Memento"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Memento", dest.Title)
	got, _ := mr.Get("movie:3")
	assert.JSONEq(t, `{"id":3,"title":"Memento"}`, got)
}

func TestAside_WithoutRedisCallsFetch(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest payload
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), UserKey(1), &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownDegradesToFetch(t *testing.T) {
	mr := useMiniredis(t)
	mr.Close()

	var dest payload
	err := Aside(context.Background(), UserKey(4), &dest, time.Minute, func() error {
		dest.ID = 4
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(4), dest.ID)
}

func TestInvalidate(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set("user:1", "x"))
	require.NoError(t, mr.Set("movie:1", "y"))

	InvalidateUser(context.Background(), 1)
	InvalidateMovie(context.Background(), 1)

	assert.False(t, mr.Exists("user:1"))
	assert.False(t, mr.Exists("movie:1"))
}

func TestInitRedisUnreachable(t *testing.T) {
	t.Cleanup(func() { SetClient(nil) })
	assert.Nil(t, InitRedis("redis://%zz"))
	assert.Nil(t, GetClient())
}

func TestInitRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { SetClient(nil) })
	c := InitRedis(mr.Addr())
	require.NotNil(t, c)
	assert.Same(t, c, GetClient())
}
