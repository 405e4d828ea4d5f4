package executor

import (
	"bytes"
	"os/exec"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=executormock/executor_mock.go -package=executormock . Executor

// Module provides a module to inject using fx.
var Module = fx.Provide(func(logger *zap.SugaredLogger) Executor {
	return NewExecutor(WithLogger(logger))
})

// Executor wraps "os/exec" so every child process the host runs is logged, and so tests can substitute it.
type Executor interface {
	// Run executes cmd to completion, capturing its output.
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
	// Start starts cmd without waiting for it. The caller owns the process and must Wait on it.
	Start(cmd *exec.Cmd) error
}

type executorImp struct {
	logger    *zap.SugaredLogger
	runFunc   func(cmd *exec.Cmd) error
	startFunc func(cmd *exec.Cmd) error
}

// Option defines options to customize executorImp's behavior
type Option func(*executorImp)

// WithLogger overrides the default noop logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(executor *executorImp) {
		executor.logger = logger
	}
}

// WithRunFunc overrides how Run executes commands.
func WithRunFunc(runFunc func(cmd *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.runFunc = runFunc
	}
}

// WithStartFunc overrides how Start launches commands.
func WithStartFunc(startFunc func(cmd *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.startFunc = startFunc
	}
}

// NewExecutor creates an Executor backed by os/exec.
func NewExecutor(opts ...Option) Executor {
	executor := &executorImp{
		logger:    zap.NewNop().Sugar(),
		runFunc:   func(cmd *exec.Cmd) error { return cmd.Run() },
		startFunc: func(cmd *exec.Cmd) error { return cmd.Start() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Run logs the command, runs it, and returns its captured output and exit code.
// The exit code is -1 if the process never started or was killed by a signal.
func (l *executorImp) Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error) {
	l.logCommand("run", cmd)

	var stdoutB, stderrB bytes.Buffer
	cmd.Stdout = &stdoutB
	cmd.Stderr = &stderrB
	err = l.runFunc(cmd)

	exitCode = -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return stdoutB.String(), stderrB.String(), exitCode, err
}

// Start logs the command and starts it.
func (l *executorImp) Start(cmd *exec.Cmd) error {
	l.logCommand("start", cmd)
	if err := l.startFunc(cmd); err != nil {
		return err
	}
	if cmd.Process != nil {
		l.logger.Debugw("process started", "path", cmd.Path, "pid", cmd.Process.Pid)
	}
	return nil
}

func (l *executorImp) logCommand(mode string, cmd *exec.Cmd) {
	args := []string{}
	if len(cmd.Args) > 1 {
		// First arg is always the command itself
		args = cmd.Args[1:]
	}
	l.logger.Infow("Exec",
		"mode", mode,
		"path", cmd.Path,
		"dir", cmd.Dir,
		"args", args,
	)
}
