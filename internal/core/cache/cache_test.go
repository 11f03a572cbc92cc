package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var c *Cache
	assert.Nil(t, New("", "", 0))

	calls := 0
	got, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) ([]string, error) {
		calls++
		return []string{"Louvor"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Louvor"}, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
	assert.NoError(t, c.Close())
}

// redis 不可达时退化为直接回源，并发请求被 singleflight 合并
func TestUnreachableRedisFallsBackToLoader(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(`["a"]`), nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := c.GetOrLoad(context.Background(), "list:songs", time.Minute, load)
			assert.NoError(t, err)
			results[i] = b
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, b := range results {
		assert.Equal(t, `["a"]`, string(b))
	}
	assert.LessOrEqual(t, calls.Load(), int32(4))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestLoaderErrorPropagates(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	boom := errors.New("boom")
	_, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestListCachedUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"Louvor", "Infantil"}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "list:/ministries", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Louvor", "Infantil"}, got)
	assert.True(t, mr.Exists("list:/ministries"))
	assert.Equal(t, time.Minute, mr.TTL("list:/ministries"))

	// 命中缓存，不回源
	got, err = GetOrLoadJSON(c, ctx, "list:/ministries", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Louvor", "Infantil"}, got)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, "list:/ministries", "list:/functions"))
	assert.False(t, mr.Exists("list:/ministries"))

	_, err = GetOrLoadJSON(c, ctx, "list:/ministries", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// 过期后回源
	mr.FastForward(2 * time.Minute)
	_, err = GetOrLoadJSON(c, ctx, "list:/ministries", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
