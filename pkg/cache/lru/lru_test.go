package lru

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestLRU_Basic(t *testing.T) {
	c := New[string, int](&Config{MaxSize: 10, DefaultTTL: time.Minute})
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRU_EvictOldest(t *testing.T) {
	var evicted []string
	c := New[string, int](&Config{MaxSize: 2, DefaultTTL: time.Minute},
		WithOnEvict(func(k string, _ int) { evicted = append(evicted, k) }))
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_TTL(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := New[string, int](&Config{MaxSize: 10, DefaultTTL: time.Second}, WithClock[string, int](clk.now))
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	clk.advance(2 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.RemoveExpired()
	assert.Equal(t, 0, c.Len())
}

func TestLRU_GetOrCreate(t *testing.T) {
	c := New[string, int](&Config{MaxSize: 10, DefaultTTL: time.Minute, CleanupInterval: time.Millisecond})

	calls := 0
	create := func() int { calls++; return 7 }
	assert.Equal(t, 7, c.GetOrCreate("k", create))
	assert.Equal(t, 7, c.GetOrCreate("k", create))
	assert.Equal(t, 1, calls)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
