package reportcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedis(RedisOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
		TTL: ttl,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCaches(t *testing.T) {
	caches := map[string]func(t *testing.T) Cache{
		"memory": func(t *testing.T) Cache { return NewMemory() },
		"zero memory": func(t *testing.T) Cache {
			return &Memory{}
		},
		"redis": func(t *testing.T) Cache {
			c, _ := setupRedis(t, 0)
			return c
		},
	}

	for name, mk := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := mk(t)

			_, ok, err := c.Get(ctx, "alice")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, "alice", "记忆已更新"))
			require.NoError(t, c.Set(ctx, "bob", "other"))

			got, ok, err := c.Get(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "记忆已更新", got)

			require.NoError(t, c.Set(ctx, "alice", "second"))
			got, _, _ = c.Get(ctx, "alice")
			assert.Equal(t, "second", got)
		})
	}
}

func TestRedisKeyAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t, time.Minute)

	require.NoError(t, c.Set(ctx, "alice", "r"))

	val, err := mr.Get(KeyPrefix + "alice")
	require.NoError(t, err)
	assert.Equal(t, "r", val)
	assert.Equal(t, time.Minute, mr.TTL(KeyPrefix+"alice"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := c.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisFailures(t *testing.T) {
	_, err := NewRedis(RedisOptions{URL: "not a url"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedis(RedisOptions{URL: "redis://" + addr, ConnectTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i%4)
			_ = m.Set(ctx, id, fmt.Sprint(i))
			_, _, _ = m.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		_, ok, _ := m.Get(ctx, fmt.Sprintf("user-%d", i))
		assert.True(t, ok)
	}
}
