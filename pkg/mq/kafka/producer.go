package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageWriter kafka.Writer 的最小接口，测试中可替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者
type Producer struct {
	config      *Config
	logger      logger.Logger
	writer      MessageWriter
	middlewares []ProducerMiddleware

	stats  ProducerStats
	closed atomic.Bool
}

// Option 生产者选项
type Option func(*Producer)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(p *Producer) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMiddleware 添加生产者中间件，按添加顺序由外向内执行
func WithMiddleware(mw ...ProducerMiddleware) Option {
	return func(p *Producer) {
		p.middlewares = append(p.middlewares, mw...)
	}
}

// WithWriter 替换底层写入器
func WithWriter(w MessageWriter) Option {
	return func(p *Producer) { p.writer = w }
}

// NewProducer 创建生产者
func NewProducer(cfg *Config, opts ...Option) (*Producer, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	p := &Producer{
		config: newCfg,
		logger: logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.writer == nil {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(newCfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              newCfg.Producer.BatchSize,
			BatchTimeout:           newCfg.Producer.BatchTimeout,
			MaxAttempts:            newCfg.Producer.MaxRetries + 1,
			WriteTimeout:           newCfg.Producer.WriteTimeout,
			ReadTimeout:            newCfg.Producer.ReadTimeout,
			RequiredAcks:           kafka.RequiredAcks(newCfg.Producer.RequiredAcks),
			Async:                  newCfg.Producer.Async,
			Compression:            parseCompression(newCfg.Producer.Compression),
			AllowAutoTopicCreation: true,
		}
		if newCfg.TLS != nil || newCfg.SASL != nil {
			transport, err := newTransport(newCfg)
			if err != nil {
				return nil, fmt.Errorf("failed to build kafka transport: %w", err)
			}
			w.Transport = transport
		}
		p.writer = w
	}

	return p, nil
}

// Publish 发布单条消息
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Topic == "" {
		msg.Topic = p.config.Topic
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	atomic.AddInt64(&p.stats.MessagesProduced, 1)

	publish := PublishFunc(p.doPublish)
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		mw, next := p.middlewares[i], publish
		publish = func(ctx context.Context, msg *Message) error {
			return mw(ctx, msg, next)
		}
	}

	if err := publish(ctx, msg); err != nil {
		atomic.AddInt64(&p.stats.MessagesFailed, 1)
		return err
	}
	atomic.AddInt64(&p.stats.MessagesSucceeded, 1)
	return nil
}

func (p *Producer) doPublish(ctx context.Context, msg *Message) error {
	km := kafka.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  msg.Timestamp,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.writer.WriteMessages(ctx, km)
}

// Stats 返回统计信息
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesProduced:  atomic.LoadInt64(&p.stats.MessagesProduced),
		MessagesSucceeded: atomic.LoadInt64(&p.stats.MessagesSucceeded),
		MessagesFailed:    atomic.LoadInt64(&p.stats.MessagesFailed),
	}
}

// Close 关闭生产者，异步模式下会刷出缓冲中的消息
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debug("producer closing", "topic", p.config.Topic)
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
