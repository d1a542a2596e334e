package logging

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Helper to create a logger that writes to a buffer for verification
func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(LogConfig{Level: "info", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)
	require.NotNil(t, l)
	l.Info("ready", String("component", "engine"))
	require.NoError(t, Sync(l))
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_InvalidOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/x/y.log"}})
	assert.Error(t, err)
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("d")
		l.Info("i")
		l.Warn("w")
		l.Error("e", Err(errors.New("boom")))
		l.With(String("k", "v")).Named("x").Info("still nothing")
	})
	assert.NoError(t, Sync(l))
}

func TestZapLogger_LevelsWrite(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")
	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t)
	l.With(Handler("relative_clause")).Named("slotmap").Info("contribution")
	out := buf.String()
	assert.Contains(t, out, `"handler":"relative_clause"`)
	assert.Contains(t, out, `"logger":"slotmap"`)
}

func TestToZapFields_Types(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)
	l.Info("fields",
		String("s", "x"),
		Int("i", 3),
		Int64("i64", 4),
		Float64("f", 0.5),
		Bool("b", true),
		Duration("d", time.Second),
		Ints("tokens", []int{1, 2, 3}),
		Strings("slots", []string{"S", "V"}),
		Sentence("The car is red."),
		Err(errors.New("boom")),
		Any("any", map[string]int{"a": 1}),
	)
	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "x", ctx["s"])
	assert.Equal(t, int64(3), ctx["i"])
	assert.Equal(t, true, ctx["b"])
	assert.Equal(t, "The car is red.", ctx[KeySentence])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, []interface{}{1, 2, 3}, ctx["tokens"])
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

//Personal.AI order the ending
