// Package launcher spawns fsix-daemon processes and hands back a duplex transport to talk JSON-RPC over.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/executor"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=launchermock/launcher_mock.go -package=launchermock . Launcher,Prompter

const (
	_configKey = "fsix.launcher"

	// CommandDefault resolves the daemon from the installed dotnet tools.
	CommandDefault = "default"

	_defaultHandshakeTimeout = 60
	_defaultMaxLineBytes     = 4096
	_defaultDotnet           = "dotnet"
	_waitDelay               = 2 * time.Second
	_installLockName         = "fsix-install.lock"
)

// TransportKind selects how the host talks to a spawned daemon.
type TransportKind string

const (
	// TransportStdio uses the child's stdin and stdout.
	TransportStdio TransportKind = "stdio"
	// TransportSocket reads a listening address from the child's stdout and dials it.
	TransportSocket TransportKind = "socket"
)

func (k TransportKind) valid() bool {
	return k == TransportStdio || k == TransportSocket
}

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Prompter asks the user whether the daemon should be installed.
type Prompter interface {
	PromptInstall(ctx context.Context, workDir string) (entity.InstallChoice, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, workDir string) (entity.InstallChoice, error)

// PromptInstall calls f.
func (f PrompterFunc) PromptInstall(ctx context.Context, workDir string) (entity.InstallChoice, error) {
	return f(ctx, workDir)
}

// Launcher starts daemon processes.
type Launcher interface {
	Launch(ctx context.Context, req Request) (*Transport, error)
}

// Request describes a single daemon launch.
type Request struct {
	// Args are appended to the resolved command.
	Args    []string
	WorkDir string
	// Command overrides the workspace and configured command when set.
	Command string
	// Transport overrides the workspace and configured transport when set.
	Transport TransportKind
	// Stderr receives the child's stderr, and in socket mode everything on stdout after the address line.
	Stderr io.Writer
	// Prompter is asked before installing the daemon. A nil Prompter declines.
	Prompter Prompter
}

// Transport is a live byte stream to a started daemon.
type Transport struct {
	Conn    io.ReadWriteCloser
	Process Process
}

// Config is the fsix.launcher config section.
type Config struct {
	Command                 string        `yaml:"command"`
	Transport               TransportKind `yaml:"transport"`
	HandshakeTimeoutSeconds int           `yaml:"handshakeTimeoutSeconds"`
	MaxHandshakeLineBytes   int           `yaml:"maxHandshakeLineBytes"`
	ToolsDir                string        `yaml:"toolsDir"`
	Dotnet                  string        `yaml:"dotnet"`
}

// Params are the dependencies of the fx provided Launcher.
type Params struct {
	fx.In

	Config   config.Provider
	Logger   *zap.SugaredLogger
	FS       fs.HostFS
	Executor executor.Executor
	Stats    tally.Scope
}

type launcher struct {
	cfg      Config
	logger   *zap.SugaredLogger
	fs       fs.HostFS
	executor executor.Executor
	stats    tally.Scope
	lockPath string
}

// New creates a Launcher from the fsix.launcher config section.
func New(p Params) (Launcher, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}
	return NewWithConfig(cfg, p.Logger, p.FS, p.Executor, p.Stats.SubScope("launcher"))
}

// NewWithConfig creates a Launcher without fx. Zero config values take their defaults.
func NewWithConfig(cfg Config, logger *zap.SugaredLogger, fs fs.HostFS, exec executor.Executor, stats tally.Scope) (Launcher, error) {
	if cfg.Command == "" {
		cfg.Command = CommandDefault
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportSocket
	}
	if !cfg.Transport.valid() {
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if cfg.HandshakeTimeoutSeconds <= 0 {
		cfg.HandshakeTimeoutSeconds = _defaultHandshakeTimeout
	}
	if cfg.MaxHandshakeLineBytes <= 0 {
		cfg.MaxHandshakeLineBytes = _defaultMaxLineBytes
	}
	if cfg.Dotnet == "" {
		cfg.Dotnet = _defaultDotnet
	}
	if stats == nil {
		stats = tally.NoopScope
	}

	return &launcher{
		cfg:      cfg,
		logger:   logger,
		fs:       fs,
		executor: exec,
		stats:    stats,
		lockPath: filepath.Join(os.TempDir(), _installLockName),
	}, nil
}

func (l *launcher) Launch(ctx context.Context, req Request) (*Transport, error) {
	t, err := l.launch(ctx, req)
	if err != nil {
		l.stats.Counter("launch_errors").Inc(1)
		return nil, err
	}
	l.stats.Counter("launches").Inc(1)
	return t, nil
}

func (l *launcher) launch(ctx context.Context, req Request) (*Transport, error) {
	settings := l.workspaceSettings(req.WorkDir)
	command := firstNonEmpty(req.Command, settings.Command, l.cfg.Command)
	kind := TransportKind(firstNonEmpty(string(req.Transport), string(settings.Transport), string(l.cfg.Transport)))
	if !kind.valid() {
		return nil, fmt.Errorf("unknown transport %q", kind)
	}

	spec, err := l.resolve(ctx, req, command)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.path, spec.args...)
	cmd.Dir = req.WorkDir
	cmd.Stderr = req.Stderr
	cmd.WaitDelay = _waitDelay

	var t *Transport
	switch kind {
	case TransportStdio:
		t, err = l.startStdio(cmd)
	default:
		t, err = l.startSocket(ctx, cmd, req.Stderr)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Infow("fsix daemon started",
		"pid", t.Process.Pid(),
		"transport", kind,
		"workDir", req.WorkDir,
	)
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
