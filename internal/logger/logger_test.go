package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestInitLoggerWithLevel(t *testing.T) {
	log, err := InitLoggerWithLevel("warn")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.False(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))

	// re-initialization adjusts the level of the existing logger
	log, err = InitLoggerWithLevel("debug")
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	SyncLogger()
}
