package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDevelopment(t *testing.T) {
	t.Parallel()

	logger, err := New(true, "")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("dev logger works")
}

func TestNewProductionWithFileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tracker.log")
	logger, err := New(false, path)
	require.NoError(t, err)
	logger.Info("file sink works")
	require.NoError(t, logger.Sync())
	require.FileExists(t, path)
}
