package analysis

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

func newTestCache(ttl time.Duration, maxEntries int) *Cache {
	return NewCache(config.CacheConfig{
		TTL:        config.Duration(ttl),
		MaxEntries: maxEntries,
	})
}

func TestCache_HitAvoidsSecondInvocation(t *testing.T) {
	cache := newTestCache(time.Minute, 16)
	key := Signature(OpStudyGuide, "user1", "prompt")

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	first, err := cache.Do(OpStudyGuide, key, fn)
	require.NoError(t, err)
	second, err := cache.Do(OpStudyGuide, key, fn)
	require.NoError(t, err)

	assert.Equal(t, "result", first)
	assert.Equal(t, "result", second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_DifferentKeysInvokeAgain(t *testing.T) {
	cache := newTestCache(time.Minute, 16)

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	_, err := cache.Do(OpStudyGuide, Signature(OpStudyGuide, "user1", "prompt A"), fn)
	require.NoError(t, err)
	_, err = cache.Do(OpStudyGuide, Signature(OpStudyGuide, "user1", "prompt B"), fn)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_ExpiredEntryInvokesAgain(t *testing.T) {
	cache := newTestCache(10*time.Millisecond, 16)
	key := Signature(OpQuiz, "user1", "prompt")

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	_, err := cache.Do(OpQuiz, key, fn)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.Do(OpQuiz, key, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	cache := newTestCache(time.Minute, 16)
	key := Signature(OpChat, "user1", "prompt")

	var calls int32
	failing := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, assert.AnError
	}

	_, err := cache.Do(OpChat, key, failing)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Do(OpChat, key, func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_CapacityEviction(t *testing.T) {
	cache := newTestCache(time.Minute, 2)

	for _, key := range []string{"a", "b", "c"} {
		_, err := cache.Do(OpStudyGuide, key, func() (any, error) { return key, nil })
		require.NoError(t, err)
		// Insertion times must differ for oldest-first eviction.
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, 2, cache.Len())
}

func TestCache_ConcurrentIdenticalCallsCollapse(t *testing.T) {
	cache := newTestCache(time.Minute, 16)
	key := Signature(OpStudyGuide, "user1", "prompt")

	var calls int32
	slow := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "result", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := cache.Do(OpStudyGuide, key, slow)
			assert.NoError(t, err)
			assert.Equal(t, "result", value)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSignature_DistinguishesPartBoundaries(t *testing.T) {
	assert.NotEqual(t,
		Signature(OpStudyGuide, "ab", "c"),
		Signature(OpStudyGuide, "a", "bc"))
	assert.Equal(t,
		Signature(OpStudyGuide, "a", "b"),
		Signature(OpStudyGuide, " a ", "b"))
}
