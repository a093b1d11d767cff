// Package clock 可注入时钟
package clock

import (
	"sync"
	"time"
)

// Clock 当前时间来源
type Clock interface {
	Now() time.Time
}

// Func 函数适配为 Clock
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// System 系统时钟（UTC，毫秒精度，与持久化精度一致）
func System() Clock {
	return Func(func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) })
}

// Manual 手动推进的时钟，用于测试
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual 创建手动时钟
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC().Truncate(time.Millisecond)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance 推进时间
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set 设置时间
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC().Truncate(time.Millisecond)
	m.mu.Unlock()
}
