package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLogger_EmitsFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Info("claim scored",
		String("claimId", "c-1"),
		Int("score", 45),
		Float64("probability", 0.42),
		Bool("degraded", false),
		Duration("took", 15*time.Millisecond),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "claim scored", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "c-1", fields["claimId"])
	assert.Equal(t, int64(45), fields["score"])
	assert.Equal(t, 0.42, fields["probability"])
	assert.Equal(t, false, fields["degraded"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, logs := newObservedLogger(zapcore.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")
	log.Error("also visible")

	assert.Equal(t, 2, logs.Len())
}

func TestLogger_WithAttachesToChildren(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	child := log.With(String("component", "sweeper"))
	child.Info("tick")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sweeper", entries[0].ContextMap()["component"])
}

func TestLogger_Named(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Named("scoring").Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scoring", entries[0].LoggerName)
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
	assert.Equal(t, "error", Err(nil).Key)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestDefaultLogger_SwapAndRestore(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	nop := NewNopLogger()
	SetDefault(nop)
	assert.Equal(t, nop, Default())

	// nil is ignored.
	SetDefault(nil)
	assert.Equal(t, nop, Default())
}
