package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"
)

const (
	_toolName        = "fsix-daemon"
	_packageName     = "FsiX.Daemon"
	_manifestToolKey = `tools.fsix\.daemon`
	_lockRetryDelay  = 250 * time.Millisecond
)

var _manifestPaths = []string{
	"dotnet-tools.json",
	filepath.Join(".config", "dotnet-tools.json"),
}

type spawnSpec struct {
	path string
	args []string
}

// resolve turns a command setting into the argv to spawn.
func (l *launcher) resolve(ctx context.Context, req Request, command string) (*spawnSpec, error) {
	if command != CommandDefault {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty fsix command")
		}
		return &spawnSpec{path: fields[0], args: appendArgs(fields[1:], req.Args)}, nil
	}

	spec, err := l.resolveTool(req)
	if err != nil || spec != nil {
		return spec, err
	}

	if req.Prompter == nil {
		return nil, errors.ErrUserDeclinedInstall
	}
	choice, err := req.Prompter.PromptInstall(ctx, req.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("prompting for install: %w", err)
	}
	if choice == entity.InstallDeclined {
		return nil, errors.ErrUserDeclinedInstall
	}

	if err := l.install(ctx, choice, req.WorkDir); err != nil {
		return nil, err
	}

	spec, err = l.resolveTool(req)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("%s not found after install", _toolName)
	}
	return spec, nil
}

// resolveTool finds an installed daemon, preferring the global tool over a local manifest.
// It returns nil without error when neither is present.
func (l *launcher) resolveTool(req Request) (*spawnSpec, error) {
	toolsDir := l.cfg.ToolsDir
	if toolsDir == "" {
		home, err := l.fs.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		toolsDir = filepath.Join(home, ".dotnet", "tools")
	}

	global := filepath.Join(toolsDir, _toolName)
	if runtime.GOOS == "windows" {
		global += ".exe"
	}
	if ok, err := l.fs.FileExists(global); err != nil {
		return nil, fmt.Errorf("checking global tool: %w", err)
	} else if ok {
		return &spawnSpec{path: global, args: appendArgs(nil, req.Args)}, nil
	}

	if req.WorkDir == "" {
		return nil, nil
	}
	for _, rel := range _manifestPaths {
		if l.manifestHasTool(filepath.Join(req.WorkDir, rel)) {
			return &spawnSpec{
				path: l.cfg.Dotnet,
				args: appendArgs([]string{"tool", "run", _toolName}, req.Args),
			}, nil
		}
	}
	return nil, nil
}

func (l *launcher) manifestHasTool(path string) bool {
	ok, err := l.fs.FileExists(path)
	if err != nil || !ok {
		return false
	}
	data, err := l.fs.ReadFile(path)
	if err != nil {
		l.logger.Warnw("reading tool manifest", "path", path, "error", err)
		return false
	}
	return gjson.ValidBytes(data) && gjson.GetBytes(data, _manifestToolKey).Exists()
}

// install runs dotnet tool install while holding a machine-wide file lock.
func (l *launcher) install(ctx context.Context, choice entity.InstallChoice, workDir string) error {
	lock := flock.New(l.lockPath)
	locked, err := lock.TryLockContext(ctx, _lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquiring install lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquiring install lock %s", l.lockPath)
	}
	defer lock.Unlock()

	args := []string{"tool", "install"}
	if choice == entity.InstallGlobal {
		args = append(args, "-g")
	}
	args = append(args, _packageName)

	cmd := exec.CommandContext(ctx, l.cfg.Dotnet, args...)
	if choice == entity.InstallLocal {
		cmd.Dir = workDir
	}
	// dotnet leaves build servers behind that inherit the output pipes.
	killGroupOnCancel(cmd)
	cmd.WaitDelay = _waitDelay

	l.stats.Counter("installs").Inc(1)
	_, stderr, code, err := l.executor.Run(cmd)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("installing %s (exit code %d): %w: %s", _packageName, code, err, strings.TrimSpace(stderr))
	}
	l.logger.Infow("fsix daemon installed", "global", choice == entity.InstallGlobal, "workDir", workDir)
	return nil
}

func appendArgs(base []string, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
