package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", "production", zapcore.AddSync(&buf))

	log.Debug("hidden")
	log.Info("meal plan built", zap.Int("slots", 2))
	require.NoError(t, log.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), buf.String())
	assert.Equal(t, "meal plan built", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "recommender", line["service"])
	assert.Equal(t, "production", line["env"])
	assert.EqualValues(t, 2, line["slots"])
}

func TestDevelopmentLoggerIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", "development", zapcore.AddSync(&buf))

	log.Debug("candidates failed dietary gate")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "candidates failed dietary gate")
	assert.Contains(t, out, "DEBUG")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
