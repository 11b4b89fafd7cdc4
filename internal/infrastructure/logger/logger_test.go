package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("creates console logger with defaults", func(t *testing.T) {
		log, err := New(nil)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("writes json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		log, err := New(&Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)

		log.Debug("hello", zap.String("k", "v"))
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"k":"v"`)
	})

	t.Run("fails when file cannot be opened", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		assert.Error(t, err)
	})

	t.Run("tees into extra cores", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		log, err := New(&Config{Level: "info", Format: "json", Output: "stderr", Tee: []zapcore.Core{core}})
		require.NoError(t, err)

		log.Info("teed")

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "teed", recorded.All()[0].Message)
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestContextHelpers(t *testing.T) {
	t.Run("FromContext falls back to nop", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("WithRequestID tags logger and context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx, log := WithRequestID(context.Background(), zap.New(core), "req-1")
		ctx = WithContext(ctx, log)

		FromContext(ctx).Info("scoped")

		assert.Equal(t, "req-1", GetRequestID(ctx))
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "req-1", recorded.All()[0].ContextMap()["request_id"])
	})

	t.Run("TraceFields is empty without span", func(t *testing.T) {
		assert.Empty(t, TraceFields(context.Background()))
	})
}
