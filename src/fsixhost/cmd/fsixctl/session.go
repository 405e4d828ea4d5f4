package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	fsixdaemon "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/fsix-daemon"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/executor"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// connectFunc starts a daemon session for a command. Tests substitute it.
type connectFunc func(ctx context.Context, s settings, in io.Reader, errOut io.Writer) (entity.Session, error)

// connectDaemon launches the daemon described by s and completes its handshake.
func connectDaemon(ctx context.Context, s settings, in io.Reader, errOut io.Writer) (entity.Session, error) {
	logger := newLogger(errOut)
	hostFS := fs.New()

	l, err := launcher.NewWithConfig(launcher.Config{}, logger, hostFS, executor.NewExecutor(executor.WithLogger(logger)), tally.NoopScope)
	if err != nil {
		return nil, err
	}
	connector := fsixdaemon.New(fsixdaemon.Params{
		Launcher: l,
		Logger:   logger,
		Stats:    tally.NoopScope,
	})

	return connector.Connect(ctx, fsixdaemon.ConnectParams{
		Args:      mapper.InitLineToArgs(s.Init),
		WorkDir:   s.WorkDir,
		Command:   s.Command,
		Transport: launcher.TransportKind(s.Transport),
		Prompter:  newTerminalPrompter(in, errOut),
		OnLog: func(n entity.LogNotification) {
			fmt.Fprintf(errOut, "[%s] %s\n", n.Level, n.Message)
		},
		Stderr: errOut,
	})
}

// newLogger writes warnings and errors to errOut in console format.
func newLogger(errOut io.Writer) *zap.SugaredLogger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(errOut), zapcore.WarnLevel)
	return zap.New(core).Sugar()
}

// evalAndPrint evaluates code and renders the response. A failed evaluation is returned as an error after its output is printed.
func evalAndPrint(ctx context.Context, session entity.Session, code string, hotReload *bool, out, errOut io.Writer) error {
	result, err := session.Eval(ctx, code, mapper.MergeEvalArgs(nil, nil, hotReload))
	if err != nil {
		return err
	}

	resp := mapper.EvalResultToResponse(result)
	printOutput(resp.Output, out, errOut)
	if !resp.Success {
		if resp.Error != nil {
			return resp.Error
		}
		return fmt.Errorf("evaluation failed")
	}
	if resp.Value != "" {
		fmt.Fprintln(out, resp.Value)
	}
	return nil
}

func printOutput(lines []entity.OutputLine, out, errOut io.Writer) {
	for _, line := range lines {
		if line.Stream == entity.OutputStderr {
			fmt.Fprintln(errOut, line.Text)
			continue
		}
		fmt.Fprintln(out, line.Text)
	}
}
