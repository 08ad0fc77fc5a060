package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsewatch/internal/config"
)

type driverUnderTest struct {
	name    string
	cache   Cache
	advance func(time.Duration)
}

func testDrivers(t *testing.T) []driverUnderTest {
	t.Helper()

	mem := NewMemory()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	mem.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	mr := miniredis.RunT(t)
	rc, err := NewRedis(config.RedisConfig{Addr: mr.Addr(), DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return []driverUnderTest{
		{
			name:  "memory",
			cache: mem,
			advance: func(d time.Duration) {
				mu.Lock()
				clock = clock.Add(d)
				mu.Unlock()
			},
		},
		{
			name:    "redis",
			cache:   rc,
			advance: mr.FastForward,
		},
	}
}

func TestCacheDrivers(t *testing.T) {
	ctx := context.Background()

	for _, d := range testDrivers(t) {
		d := d
		t.Run(d.name, func(t *testing.T) {
			c := d.cache
			require.NoError(t, c.Ping(ctx))

			t.Run("Get on absent key misses", func(t *testing.T) {
				_, err := c.Get(ctx, "absent")
				assert.ErrorIs(t, err, ErrMiss)
			})

			t.Run("Set then Get round trips", func(t *testing.T) {
				require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Minute))
				got, err := c.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, []byte("v1"), got)

				require.NoError(t, c.Set(ctx, "k", []byte("v2"), time.Minute))
				got, err = c.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), got)
			})

			t.Run("Entries expire after ttl", func(t *testing.T) {
				require.NoError(t, c.Set(ctx, "short", []byte("x"), 5*time.Second))
				d.advance(4 * time.Second)
				_, err := c.Get(ctx, "short")
				require.NoError(t, err)

				d.advance(2 * time.Second)
				_, err = c.Get(ctx, "short")
				assert.ErrorIs(t, err, ErrMiss)
			})

			t.Run("Delete removes and tolerates absent keys", func(t *testing.T) {
				require.NoError(t, c.Set(ctx, "gone", []byte("x"), time.Minute))
				require.NoError(t, c.Delete(ctx, "gone"))
				_, err := c.Get(ctx, "gone")
				assert.ErrorIs(t, err, ErrMiss)

				assert.NoError(t, c.Delete(ctx, "never-existed"))
			})

			t.Run("SetNX only wins once until expiry", func(t *testing.T) {
				ok, err := c.SetNX(ctx, "lock", []byte("1"), 10*time.Second)
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = c.SetNX(ctx, "lock", []byte("2"), 10*time.Second)
				require.NoError(t, err)
				assert.False(t, ok)

				d.advance(11 * time.Second)
				ok, err = c.SetNX(ctx, "lock", []byte("3"), 10*time.Second)
				require.NoError(t, err)
				assert.True(t, ok)

				require.NoError(t, c.Delete(ctx, "lock"))
				ok, err = c.SetNX(ctx, "lock", []byte("4"), 10*time.Second)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("CompareAndDelete only removes a matching value", func(t *testing.T) {
				ok, err := c.SetNX(ctx, "owned", []byte("token-a"), time.Minute)
				require.NoError(t, err)
				require.True(t, ok)

				deleted, err := c.CompareAndDelete(ctx, "owned", []byte("token-b"))
				require.NoError(t, err)
				assert.False(t, deleted)
				got, err := c.Get(ctx, "owned")
				require.NoError(t, err)
				assert.Equal(t, []byte("token-a"), got)

				deleted, err = c.CompareAndDelete(ctx, "owned", []byte("token-a"))
				require.NoError(t, err)
				assert.True(t, deleted)
				_, err = c.Get(ctx, "owned")
				assert.ErrorIs(t, err, ErrMiss)

				deleted, err = c.CompareAndDelete(ctx, "owned", []byte("token-a"))
				require.NoError(t, err)
				assert.False(t, deleted)
			})

			t.Run("Incr counts from zero and never expires", func(t *testing.T) {
				n, err := c.Incr(ctx, "counter")
				require.NoError(t, err)
				assert.EqualValues(t, 1, n)

				n, err = c.Incr(ctx, "counter")
				require.NoError(t, err)
				assert.EqualValues(t, 2, n)

				d.advance(48 * time.Hour)
				got, err := c.Get(ctx, "counter")
				require.NoError(t, err)
				assert.Equal(t, []byte("2"), got)
			})
		})
	}
}

func TestMemorySetNXIsExclusiveUnderContention(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.SetNX(ctx, "inflight", []byte("1"), time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestMemoryIncrRejectsNonInteger(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), time.Minute))
	_, err := c.Incr(ctx, "k")
	assert.ErrorContains(t, err, "not an integer")
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestNew(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		c, err := New(config.CacheConfig{Driver: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, c)
	})

	t.Run("None never stores", func(t *testing.T) {
		c, err := New(config.CacheConfig{Driver: "none"})
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		_, err = c.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrMiss)

		ok, err := c.SetNX(ctx, "k", []byte("v"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := c.Incr(ctx, "gen")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Redis unreachable fails", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := New(config.CacheConfig{Driver: "redis", Redis: config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}})
		assert.Error(t, err)
	})

	t.Run("Unknown driver fails", func(t *testing.T) {
		_, err := New(config.CacheConfig{Driver: "memcached"})
		assert.ErrorContains(t, err, "unsupported cache driver")
	})
}
