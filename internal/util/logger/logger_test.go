package logger

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return buf
}

func TestLogger_WritesSubsystem(t *testing.T) {
	buf := captureOutput(t)

	log := Logger("test/write")
	log.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "subsystem=test/write")
}

func TestLogger_Cached(t *testing.T) {
	assert.Same(t, Logger("test/cached"), Logger("test/cached"))
}

func TestSetLevel(t *testing.T) {
	buf := captureOutput(t)

	log := Logger("test/level")
	SetLevel("test/level", slog.LevelError)
	log.Warn("suppressed")
	assert.Empty(t, buf.String())

	SetLevel("test/level", slog.LevelDebug)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevelSpec(t *testing.T) {
	cfg := &Config{SubsystemLevels: make(map[string]slog.Level)}
	parseLevelSpec(cfg, "core/connectivity=debug, protocol/pubsub=warn ,error,bogus=nope")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("core/connectivity"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("protocol/pubsub"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("other"))
	_, ok := cfg.SubsystemLevels["bogus"]
	assert.False(t, ok)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")
	resetConfig()
	t.Cleanup(resetConfig)

	cfg := CurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, slog.LevelDebug, cfg.DefaultLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
}

func TestConfigure_AdjustsExistingLoggers(t *testing.T) {
	resetConfig()
	t.Cleanup(resetConfig)
	buf := captureOutput(t)

	log := Logger("test/configure")
	Configure("test/configure=error", "")

	log.Info("hidden")
	assert.Empty(t, buf.String())

	Configure("test/configure=info", "")
	log.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	buf := captureOutput(t)
	Discard().Error("nothing")
	assert.Empty(t, buf.String())
}
