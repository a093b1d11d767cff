package logger

import "context"

var _ Logger = (*NoopLogger)(nil)

// NoopLogger 空日志记录器，测试及未配置日志时使用
type NoopLogger struct{}

// NewNoop 创建空日志记录器
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(string, ...any) {}
func (l *NoopLogger) Info(string, ...any) {}
func (l *NoopLogger) Warn(string, ...any) {}
func (l *NoopLogger) Error(string, ...any) {}
func (l *NoopLogger) DebugContext(context.Context, string, ...any) {}
func (l *NoopLogger) InfoContext(context.Context, string, ...any) {}
func (l *NoopLogger) WarnContext(context.Context, string, ...any) {}
func (l *NoopLogger) ErrorContext(context.Context, string, ...any) {}
func (l *NoopLogger) Named(string) Logger { return l }
func (l *NoopLogger) WithFields(...any) Logger { return l }
func (l *NoopLogger) Sync() error { return nil }
