package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestNewDefaultWriter(t *testing.T) {
	log := New(nil, "info")
	assert.NotNil(t, log)
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	sub := log.Sub("gateway")
	sub.Info().Msg("from subsystem")

	out := buf.String()
	assert.Contains(t, out, "gateway")
	assert.Contains(t, out, "from subsystem")
}

func TestSubChain(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Sub("agent").Sub("merger").Info().Msg("nested")
	assert.Contains(t, buf.String(), "merger")
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Trace().Msg("trace msg")
	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	log.Warn().Msg("warn msg")
	log.Error().Msg("error msg")

	out := buf.String()
	assert.NotContains(t, out, "trace msg")
	assert.NotContains(t, out, "debug msg")
	assert.NotContains(t, out, "info msg")
	assert.Contains(t, out, "warn msg")
	assert.Contains(t, out, "error msg")
}

func TestTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "trace")

	log.Trace().Str("session", "abc").Msg("frame received")
	assert.Contains(t, buf.String(), "frame received")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel}, // case-sensitive, falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	zl := log.Zerolog()
	zl.Info().Msg("direct")
	assert.Contains(t, buf.String(), "direct")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Error().Msg("should not appear")
	assert.Empty(t, buf.String())
}
