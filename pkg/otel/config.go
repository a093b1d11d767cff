package otel

import "time"

// Config TracerProvider 配置
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`

	// Endpoint OTLP HTTP 默认 localhost:4318，gRPC 默认 localhost:4317
	Endpoint     string       `mapstructure:"endpoint"`
	ExporterType ExporterType `mapstructure:"exporter_type"`
	Insecure     bool         `mapstructure:"insecure"`

	// SampleRatio 采样比率，1 表示全部采样
	SampleRatio float64 `mapstructure:"sample_ratio"`

	BatchTimeout    time.Duration     `mapstructure:"batch_timeout"`
	ShutdownTimeout time.Duration     `mapstructure:"shutdown_timeout"`
	Attributes      map[string]string `mapstructure:"attributes"`
}

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"
	ExporterTypeStdout   ExporterType = "stdout"
	ExporterTypeNoop     ExporterType = "noop"
)

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		ServiceName:     "animeplay",
		Endpoint:        "localhost:4318",
		ExporterType:    ExporterTypeOTLPHTTP,
		Insecure:        true,
		SampleRatio:     1.0,
		BatchTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return ErrInvalidSamplerRatio
	}
	return nil
}
