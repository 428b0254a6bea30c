package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, capacity int, opts ...Option[string, int]) *Cache[string, int] {
	t.Helper()
	c, err := New[string, int](capacity, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New[string, int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestPut_OverflowEvictsOldest(t *testing.T) {
	const capacity = 3
	c := newTestCache(t, capacity)

	for i := 0; i <= capacity; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}

	assert.Equal(t, capacity, c.Len())
	assert.Equal(t, []string{"k1", "k2", "k3"}, c.Keys())
	assert.False(t, c.Contains("k0"))
}

func TestAccess_ProtectsOldest(t *testing.T) {
	c := newTestCache(t, 3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.True(t, c.Access("a", nil))
	c.Put("d", 4)

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.Equal(t, []string{"c", "a", "d"}, c.Keys())
}

func TestPeekAndMutate_DoNotRefresh(t *testing.T) {
	c := newTestCache(t, 2)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, c.Mutate("a", func(v *int) { *v = 10 }))
	assert.False(t, c.Mutate("zz", func(*int) { t.Fatal("called on miss") }))

	c.Put("c", 3)
	assert.False(t, c.Contains("a"), "peeked entry is still the oldest")
	_, ok = c.Peek("a")
	assert.False(t, ok)
}

func TestGet_RefreshesAndReturnsMutations(t *testing.T) {
	c := newTestCache(t, 2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Mutate("a", func(v *int) { *v++ })

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	c.Put("c", 3)
	assert.Equal(t, []string{"a", "c"}, c.Keys())

	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestPut_ExistingKeyReplacesWithoutEviction(t *testing.T) {
	evicted := 0
	c := newTestCache(t, 2, WithEvictHook(func(string, int) { evicted++ }))
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 100)

	assert.Equal(t, 0, evicted)
	assert.Equal(t, []string{"b", "a"}, c.Keys())
	v, _ := c.Peek("a")
	assert.Equal(t, 100, v)
}

func TestGetOrCreate(t *testing.T) {
	c := newTestCache(t, 2)
	calls := 0
	factory := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrCreate("a", factory)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrCreate("a", factory)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls, "hit does not call the factory")
}

func TestGetOrCreate_FailingFactoryInsertsNothing(t *testing.T) {
	c := newTestCache(t, 1)
	c.Put("keep", 1)

	boom := errors.New("boom")
	_, err := c.GetOrCreate("new", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains("keep"), "no eviction for a failed create")
}

func TestGetOrCreate_EvictsWhenFull(t *testing.T) {
	var evictedKeys []string
	c := newTestCache(t, 2, WithEvictHook(func(k string, _ int) {
		evictedKeys = append(evictedKeys, k)
	}))
	c.Put("a", 1)
	c.Put("b", 2)

	_, err := c.GetOrCreate("c", func() (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, evictedKeys)

	assert.True(t, c.Remove("b"))
	assert.False(t, c.Remove("b"))
	assert.Equal(t, []string{"a"}, evictedKeys, "Remove is not an eviction")
}

func TestCap(t *testing.T) {
	c := newTestCache(t, 7)
	assert.Equal(t, 7, c.Cap())
}

func TestConcurrentAccess(t *testing.T) {
	const (
		capacity = 16
		workers  = 8
		ops      = 500
	)
	c := newTestCache(t, capacity)
	var created atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				key := fmt.Sprintf("k%d", (i*7+w)%40)
				switch i % 5 {
				case 0:
					c.Put(key, i)
				case 1:
					c.Get(key)
				case 2:
					c.Peek(key)
				case 3:
					_, _ = c.GetOrCreate(key, func() (int, error) {
						created.Add(1)
						return i, nil
					})
				case 4:
					c.Mutate(key, func(v *int) { *v++ })
				}
				assert.LessOrEqual(t, c.Len(), capacity)
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), capacity)
	assert.Len(t, c.Keys(), c.Len())
	assert.Positive(t, created.Load())
}
