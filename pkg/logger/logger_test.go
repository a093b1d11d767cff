package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_MergesDefaults(t *testing.T) {
	l, err := New(&Config{Level: DebugLevel})
	require.NoError(t, err)

	assert.Equal(t, DebugLevel, l.config.Level)
	assert.True(t, l.config.EnableConsole)
	assert.Equal(t, ConsoleFormat, l.config.Format)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		err  error
	}{
		{
			name: "file without path",
			cfg:  &Config{EnableFile: true},
			err:  ErrInvalidOutputPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{EnableFile: true, OutputPath: path, Format: JSONFormat})
	require.NoError(t, err)

	l.Info("hello", "k", "v")
	require.NoError(t, l.Sync())
	assert.FileExists(t, path)
}

func TestSetLevel(t *testing.T) {
	l, err := New(&Config{})
	require.NoError(t, err)

	require.NoError(t, l.SetLevel(ErrorLevel))
	assert.False(t, l.level.Enabled(zap.InfoLevel))
	assert.Equal(t, ErrorLevel, l.Level())

	assert.ErrorIs(t, l.SetLevel("trace"), ErrUnknownLevel)
}

func TestToZapFields(t *testing.T) {
	fields := toZapFields([]any{"a", 1, "b", "two"})
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)

	fields = toZapFields([]any{zap.String("x", "y")})
	require.Len(t, fields, 1)
	assert.Equal(t, "x", fields[0].Key)

	fields = toZapFields([]any{"dangling"})
	require.Len(t, fields, 1)
	assert.Equal(t, "!BADKEY", fields[0].Key)
}

func TestDefaultContextExtractor(t *testing.T) {
	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), 42)
	fields := DefaultContextExtractor(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "request_id", fields[0].Key)
	assert.Equal(t, "uid", fields[1].Key)

	assert.Empty(t, DefaultContextExtractor(context.Background()))
}

func TestNamedAndWithFields(t *testing.T) {
	l, err := New(&Config{})
	require.NoError(t, err)

	named := l.Named("dao.stats")
	assert.NotSame(t, l, named)
	assert.Same(t, l, l.WithFields())
	assert.NotNil(t, named.WithFields("k", "v"))
}
