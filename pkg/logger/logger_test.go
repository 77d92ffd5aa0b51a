package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesAtOrAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.Colorize = false
	cfg.Level = WARN

	log := New(cfg)
	log.Infof("should not appear")
	log.Warnf("disk usage at %d%%", 91)
	require.NoError(t, log.Sync())

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "disk usage at 91%")
}

func TestLoggerJSONEncoding(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.JSON = true
	cfg.Level = DEBUG

	log := New(cfg)
	log.Debugf("ingesting %s", "clip.wav")
	require.NoError(t, log.Sync())

	require.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
	require.Contains(t, buf.String(), `"msg":"ingesting clip.wav"`)
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.JSON = true

	log := New(cfg).With("run_id", "abc123")
	log.Infof("starting ingest")
	require.NoError(t, log.Sync())

	require.Contains(t, buf.String(), `"run_id":"abc123"`)
}
