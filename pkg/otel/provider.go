package otel

import (
	"context"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider 追踪提供者
// 未启用时不安装全局 provider，otel 默认的 noop 实现生效
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
}

// New 创建追踪提供者并安装为全局 provider
func New(cfg *Config) (*TracerProvider, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		newCfg.Enabled = cfg.Enabled
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	p := &TracerProvider{config: newCfg}
	if !newCfg.Enabled {
		return p, nil
	}

	exporter, err := createExporter(context.Background(), newCfg)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return p, nil
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(newCfg.ServiceName)}
	for k, v := range newCfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	p.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(newCfg.BatchTimeout)),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(newCfg.SampleRatio))),
	)

	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

// Tracer 获取指定名称的 Tracer
func (p *TracerProvider) Tracer(name string) trace.Tracer {
	if p.provider == nil {
		return otel.GetTracerProvider().Tracer(name)
	}
	return p.provider.Tracer(name)
}

// IsEnabled 是否启用
func (p *TracerProvider) IsEnabled() bool {
	return p.provider != nil
}

// Close 刷出剩余 span 并关闭
func (p *TracerProvider) Close() error {
	if p.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.provider.Shutdown(ctx)
}
