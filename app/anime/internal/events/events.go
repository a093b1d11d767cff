// Package events 已提交的领域事件发布
//
// 发布发生在事务提交之后，尽力而为：失败只记录日志与指标，不回滚已提交的所有权变更。
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/mq/kafka"
	"github.com/MAKORA-ltd/anime-play/pkg/pool/bytebuff"
	"github.com/google/uuid"
)

// Type 事件类型
type Type string

const (
	CharacterCaptured Type = "character.captured"
	EncounterEscaped  Type = "encounter.escaped"
	EncounterReleased Type = "encounter.released"
	CharacterGifted   Type = "character.gifted"
	TradeProposed     Type = "trade.proposed"
	TradeResolved     Type = "trade.resolved"
	DailyClaimed      Type = "daily.claimed"
	CharacterAdded    Type = "catalog.character_added"
)

// Event 领域事件
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	UserID     int64          `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New 创建事件
func New(t Type, userID int64, at time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		OccurredAt: at,
		Data:       data,
	}
}

// Publisher 事件发布器
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type noop struct{}

// NewNoop 未启用消息队列时使用
func NewNoop() Publisher { return noop{} }

func (noop) Publish(context.Context, Event) error { return nil }
func (noop) Close() error                         { return nil }

// KafkaPublisher 基于 kafka 生产者的发布器，按用户 ID 分区保证单用户事件有序
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   logger.Logger
}

// NewKafkaPublisher 创建发布器
func NewKafkaPublisher(p *kafka.Producer, l logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: p, logger: l.Named("events.kafka")}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := encode(e)
	if err != nil {
		return err
	}
	return k.producer.Publish(ctx, &kafka.Message{
		Key:       []byte(strconv.FormatInt(e.UserID, 10)),
		Value:     value,
		Timestamp: e.OccurredAt,
		Headers: map[string]string{
			"event_type": string(e.Type),
			"event_id":   e.ID,
		},
	})
}

// encode 在池化缓冲中编码，返回独立的副本
func encode(e Event) ([]byte, error) {
	buf := bytebuff.Get()
	defer bytebuff.Put(buf)

	if err := json.NewEncoder(buf).Encode(e); err != nil {
		return nil, err
	}
	b := buf.B
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	return append([]byte(nil), b...), nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
