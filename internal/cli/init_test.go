package cli

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_TEST_FROM_FILE=hello\nFINTRACK_TEST_PRESET=file\n"), 0o600))

	t.Setenv("FINTRACK_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("FINTRACK_TEST_FROM_FILE"))
	t.Setenv("FINTRACK_TEST_PRESET", "env")

	require.NoError(t, LoadEnvFile(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "hello", os.Getenv("FINTRACK_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("FINTRACK_TEST_PRESET"))
}

func TestLoadEnvFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK-BAD-KEY=1\n"), 0o600))
	assert.Error(t, LoadEnvFile(path))
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", log.ComponentApp)
	assert.Equal(t, log.ComponentApp, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), -4))

	logger = SetupLogger("chatty", log.ComponentWorker)
	assert.False(t, logger.Enabled(context.Background(), -4))
}

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	cleaned := make(chan struct{})
	ctx, done := gracefulShutdown(log.Discard(), time.Second, func(context.Context) { close(cleaned) }, syscall.SIGUSR1)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Error(t, ctx.Err())
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup was not called")
	}
}

func TestGracefulShutdownTimesOut(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	_, done := gracefulShutdown(log.Discard(), 50*time.Millisecond, func(context.Context) { <-block }, syscall.SIGUSR2)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout did not release shutdown")
	}
}
