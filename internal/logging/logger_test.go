package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestVerboseLoggerEmitsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	logger.Debug("running command", zap.Strings("argv", []string{"gem", "build"}))
	_ = logger.Sync()

	assert.Contains(t, buf.String(), "running command")
	assert.Contains(t, buf.String(), "gemhelper")
}

func TestQuietLoggerDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("running command")
	logger.Info("task finished")
	logger.Warn("push skipped")
	_ = logger.Sync()

	assert.NotContains(t, buf.String(), "running command")
	assert.NotContains(t, buf.String(), "task finished")
	assert.Contains(t, buf.String(), "push skipped")
}
