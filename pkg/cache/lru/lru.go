// Package lru 带过期时间的内存 LRU 缓存
package lru

import (
	"container/list"
	"sync"
	"time"
)

// Config LRU 配置
type Config struct {
	MaxSize    int
	DefaultTTL time.Duration
	// CleanupInterval 为 0 时不启动后台清理，过期条目在访问时惰性删除
	CleanupInterval time.Duration
}

// LRU 并发安全的 LRU 缓存
type LRU[K comparable, V any] struct {
	config *Config
	ll     *list.List
	items  map[K]*list.Element
	mu     sync.Mutex

	now       func() time.Time
	onEvict   func(key K, value V)
	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Option LRU 选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调，回调在持锁状态下执行
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) { c.onEvict = fn }
}

// WithClock 替换时间源
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LRU[K, V]) { c.now = now }
}

// New 创建 LRU 缓存
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) *LRU[K, V] {
	c := &LRU[K, V]{
		config: cfg,
		ll:     list.New(),
		items:  make(map[K]*list.Element),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.CleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop()
	}
	return c
}

func (c *LRU[K, V]) cleanupLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stopCh:
			return
		}
	}
}

// RemoveExpired 移除所有过期条目
func (c *LRU[K, V]) RemoveExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for e := c.ll.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*entry[K, V]).expiresAt) {
			c.removeElement(e)
		}
		e = prev
	}
}

// Get 获取值
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if c.now().Before(ent.expiresAt) {
			c.ll.MoveToFront(elem)
			return ent.value, true
		}
		c.removeElement(elem)
	}
	var zero V
	return zero, false
}

// Set 使用默认 TTL 设置值
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// GetOrCreate 原子获取或创建
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if c.now().Before(ent.expiresAt) {
			c.ll.MoveToFront(elem)
			return ent.value
		}
		c.removeElement(elem)
	}

	value := create()
	c.set(key, value)
	return value
}

func (c *LRU[K, V]) set(key K, value V) {
	expiresAt := c.now().Add(c.config.DefaultTTL)
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value, ent.expiresAt = value, expiresAt
		c.ll.MoveToFront(elem)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.config.MaxSize > 0 && c.ll.Len() > c.config.MaxSize {
		c.removeElement(c.ll.Back())
	}
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len 当前条目数（含未清理的过期条目）
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close 停止后台清理
func (c *LRU[K, V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()
	})
	return nil
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.ll.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
