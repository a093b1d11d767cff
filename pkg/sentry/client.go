// Package sentry 错误上报，基于 sentry-go 的独立 Hub
package sentry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// Client Sentry 客户端
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	eventsTotal    atomic.Uint64
	eventsCaptured atomic.Uint64
	eventsDropped  atomic.Uint64
}

// Stats 上报统计
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
	EventsDropped  uint64
}

// Option 客户端选项
type Option func(*sentry.ClientOptions)

// WithBeforeSend 设置发送前回调，返回 nil 时丢弃事件
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) { o.BeforeSend = fn }
}

// New 创建 Sentry 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	co := cfg.toClientOptions()
	for _, opt := range opts {
		opt(&co)
	}
	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range cfg.Tags {
			scope.SetTag(k, v)
		}
	})

	return &Client{hub: hub, config: cfg}, nil
}

// hubFor 优先使用请求上下文中的 Hub
func (c *Client) hubFor(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if h := sentry.GetHubFromContext(ctx); h != nil {
			return h
		}
	}
	return c.hub
}

func (c *Client) count(id *sentry.EventID) *sentry.EventID {
	c.eventsTotal.Add(1)
	if id != nil && *id != "" {
		c.eventsCaptured.Add(1)
	} else {
		c.eventsDropped.Add(1)
	}
	return id
}

// CaptureException 捕获错误
func (c *Client) CaptureException(err error) *sentry.EventID {
	if c.closed.Load() || err == nil {
		return nil
	}
	return c.count(c.hub.CaptureException(err))
}

// Report 上报错误，tags 以键值对形式附加到本次事件
func (c *Client) Report(ctx context.Context, err error, tags map[string]string) {
	if c.closed.Load() || err == nil {
		return
	}
	hub := c.hubFor(ctx)
	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		id = hub.CaptureException(err)
	})
	c.count(id)
}

// RecoverWithContext 上报 panic，不重新抛出
func (c *Client) RecoverWithContext(ctx context.Context, recovered any) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}
	return c.count(c.hubFor(ctx).RecoverWithContext(ctx, recovered))
}

// Hub 底层 Hub
func (c *Client) Hub() *sentry.Hub {
	return c.hub
}

// Flush 等待事件上报完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 刷新并关闭客户端
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	timeout := c.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c.hub.Flush(timeout)
	return nil
}

// Stats 上报统计
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.eventsTotal.Load(),
		EventsCaptured: c.eventsCaptured.Load(),
		EventsDropped:  c.eventsDropped.Load(),
	}
}
