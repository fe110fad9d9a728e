package runlog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesLogDirAndFile(t *testing.T) {
	home := t.TempDir()

	logger, closeFn, err := New(home, 42, slog.LevelInfo)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	logger.Info("run started")

	_, err = os.Stat(filepath.Join(home, "logs", "process_id 42.log"))
	assert.NoError(t, err)
}

func TestFanoutHandlerFileSinkGetsRecordsBelowConsoleLevel(t *testing.T) {
	home := t.TempDir()

	logger, closeFn, err := New(home, 7, slog.LevelWarn)
	require.NoError(t, err)

	logger.Debug("debug only goes to file")
	logger.Error("error goes everywhere")

	require.NoError(t, closeFn())

	content, err := os.ReadFile(filepath.Join(home, "logs", "process_id 7.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug only goes to file")
	assert.Contains(t, string(content), "error goes everywhere")
}
