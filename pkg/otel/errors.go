package otel

import "errors"

var (
	ErrInvalidServiceName  = errors.New("otel: invalid service name")
	ErrInvalidSamplerRatio = errors.New("otel: sampler ratio must be between 0 and 1")
	ErrExporterFailed      = errors.New("otel: failed to create exporter")
)
