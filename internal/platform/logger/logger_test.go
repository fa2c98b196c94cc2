package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "debug level", level: "debug"},
		{name: "info level", level: "info"},
		{name: "warn level", level: "warn"},
		{name: "error level", level: "error"},
		{name: "uppercase level accepted", level: "INFO"},
		{name: "invalid level rejected", level: "verbose", wantErr: true},
		{name: "empty level rejected", level: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Setup(LoggerConfig{Level: tt.level})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = parseLevel("fatal")
	require.Error(t, err)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger, "FromContext must never return nil")
}

func TestWithContextRoundTrip(t *testing.T) {
	buf, testLogger := NewTestLogger(t)

	ctx := WithContext(context.Background(), testLogger.With("request_id", "r1"))
	FromContext(ctx).Info("processing request")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "processing request", entries[0]["msg"])
	assert.Equal(t, "r1", entries[0]["request_id"])
}
