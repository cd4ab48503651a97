package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/devlxc/internal/config"
)

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{LogLevel: "info", LogFormat: "json", ClusterName: "tier"}, &buf)

	logger.Info().Str("server", "be1").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dev-lxc", entry["service"])
	assert.Equal(t, "tier", entry["cluster"])
	assert.Equal(t, "be1", entry["server"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_OmitsEmptyCluster(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{LogFormat: "json"}, &buf)

	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "cluster")
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"}, &bytes.Buffer{})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{LogFormat: "console"}, &buf)

	logger.Warn().Msg("no pem files")

	assert.Contains(t, buf.String(), "no pem files")
	assert.Contains(t, buf.String(), "WRN")
}
