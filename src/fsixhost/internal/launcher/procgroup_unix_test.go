//go:build unix

package launcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/executor"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

func TestInstallCancelStopsDescendants(t *testing.T) {
	dir := t.TempDir()
	dotnet := filepath.Join(dir, "dotnet")
	// The background sleep keeps the captured stdout and stderr open after the script itself is killed.
	require.NoError(t, os.WriteFile(dotnet, []byte("#!/bin/sh\nsleep 30 &\nsleep 30\n"), 0o755))

	l, err := NewWithConfig(Config{Dotnet: dotnet}, zap.NewNop().Sugar(), fs.New(), executor.NewExecutor(), tally.NoopScope)
	require.NoError(t, err)
	impl := l.(*launcher)
	impl.lockPath = filepath.Join(dir, _installLockName)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = impl.install(ctx, entity.InstallLocal, dir)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, _waitDelay, "install waited on the orphaned child")
}
