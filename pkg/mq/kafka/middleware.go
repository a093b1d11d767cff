package kafka

import (
	"context"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/checksum"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
)

// LoggingMiddleware 生产者日志中间件
func LoggingMiddleware(log logger.Logger) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			log.WarnContext(ctx, "message publish failed",
				"topic", msg.Topic,
				"key", string(msg.Key),
				"duration", time.Since(start),
				"error", err,
			)
			return err
		}
		log.DebugContext(ctx, "message published",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"duration", time.Since(start),
		)
		return nil
	}
}

// TracingMiddleware 生产者追踪中间件，将追踪上下文写入消息头
func TracingMiddleware(tracerName string) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "kafka.publish",
			otel.WithSpanKind(otel.SpanKindProducer),
			otel.WithAttributes(
				otel.String("messaging.system", "kafka"),
				otel.String("messaging.destination", msg.Topic),
			),
		)
		defer span.End()

		if msg.Headers == nil {
			msg.Headers = make(map[string]string)
		}
		otel.GetTextMapPropagator().Inject(ctx, otel.MapCarrier(msg.Headers))

		err := next(ctx, msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otel.CodeError, err.Error())
		}
		return err
	}
}

// 校验和消息头
const (
	HeaderChecksum    = "checksum"
	HeaderChecksumAlg = "checksum_alg"
)

// ChecksumMiddleware 为消息体计算校验和并写入消息头，消费端据此校验
func ChecksumMiddleware(h checksum.Hasher) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		if msg.Headers == nil {
			msg.Headers = make(map[string]string)
		}
		msg.Headers[HeaderChecksum] = checksum.Hex(h, msg.Value)
		msg.Headers[HeaderChecksumAlg] = h.Name()
		return next(ctx, msg)
	}
}
