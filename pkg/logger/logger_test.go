package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(Replace(zap.NewNop()))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, ParseLevel(" debug "))
	require.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	require.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
	require.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestInitAppliesLevelAndEncoder(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("debug", Options{Service: "resumex"}))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("warn", Options{Development: true}))
	require.False(t, Logger().Core().Enabled(zap.InfoLevel))
	require.True(t, Logger().Core().Enabled(zap.WarnLevel))
}

func TestSetLevelAdjustsRunningLogger(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("info"))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))

	SetLevel("debug")
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	SetLevel("error")
	require.False(t, Logger().Core().Enabled(zap.WarnLevel))
}

func TestWithModuleAttachesModuleField(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	resetGlobal(t)
	Replace(zap.New(core))

	WithModule("auth").Info("signup")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "auth", entries[0].ContextMap()["module"])
}

func TestReplaceRestoresPreviousLogger(t *testing.T) {
	resetGlobal(t)
	core, recorded := observer.New(zap.DebugLevel)
	restore := Replace(zap.New(core))

	Logger().Debug("captured")
	restore()
	Logger().Debug("dropped")

	require.Equal(t, 1, recorded.Len())
	require.Equal(t, "captured", recorded.All()[0].Message)
}
