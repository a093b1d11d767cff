// Package eventstest 记录事件的测试发布器
package eventstest

import (
	"context"
	"sync"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
)

// Memory 记录事件的内存发布器；Err 非空时发布失败
type Memory struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

var _ events.Publisher = (*Memory)(nil)

func (m *Memory) Publish(_ context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events 已记录事件的副本
func (m *Memory) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType 按类型过滤
func (m *Memory) OfType(t events.Type) []events.Event {
	var out []events.Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
