// Package fsixdaemon connects to fsix-daemon processes and exposes them as entity.Session values.
package fsixdaemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=fsixdaemonmock/fsix_daemon_mock.go -package=fsixdaemonmock . Connector
//go:generate mockgen -destination=fsixdaemonmock/session_mock.go -package=fsixdaemonmock github.com/fsixnotebook/fsix-host/src/fsixhost/entity Session

// _exitGrace is how long a dead channel waits for the process exit that usually caused it.
const _exitGrace = 200 * time.Millisecond

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// LogHandler receives the daemon's logging notifications, including those sent before the handshake completes.
type LogHandler func(entity.LogNotification)

// ConnectParams describe one daemon to start.
type ConnectParams struct {
	Args      []string
	WorkDir   string
	Command   string
	Transport launcher.TransportKind
	Prompter  launcher.Prompter
	OnLog     LogHandler
	Stderr    io.Writer
}

// Connector starts a daemon and completes its initialization handshake.
type Connector interface {
	// Connect returns a running Session, errors.ErrUserDeclinedInstall, or an *errors.InitFailure.
	// A failed handshake leaves nothing behind: the partially built session is disposed before returning.
	Connect(ctx context.Context, p ConnectParams) (entity.Session, error)
}

// Params are the dependencies of the Connector.
type Params struct {
	fx.In

	Launcher launcher.Launcher
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
}

type connector struct {
	launcher launcher.Launcher
	logger   *zap.SugaredLogger
	stats    tally.Scope
}

// New creates a Connector.
func New(p Params) Connector {
	return &connector{
		launcher: p.Launcher,
		logger:   p.Logger,
		stats:    p.Stats.SubScope("rpc"),
	}
}

func (c *connector) Connect(ctx context.Context, p ConnectParams) (entity.Session, error) {
	tr, err := c.launcher.Launch(ctx, launcher.Request{
		Args:      p.Args,
		WorkDir:   p.WorkDir,
		Command:   p.Command,
		Transport: p.Transport,
		Stderr:    p.Stderr,
		Prompter:  p.Prompter,
	})
	if err != nil {
		if errors.IsDeclined(err) {
			return nil, err
		}
		c.stats.Counter("handshake_failures").Inc(1)
		var exited *errors.ProcessExitedError
		if stderrors.As(err, &exited) {
			return nil, &errors.InitFailure{Reason: errors.InitFailureProcessExited, Code: exited.Code}
		}
		return nil, &errors.InitFailure{Reason: errors.InitFailureOther, Err: err}
	}

	s := newSession(tr, c.logger, c.stats)
	initialized := make(chan entity.InitializedParams, 1)

	s.channel.OnNotification(entity.MethodLogging, func(ctx context.Context, raw json.RawMessage) {
		var n entity.LogNotification
		if err := json.Unmarshal(raw, &n); err != nil {
			c.logger.Warnw("malformed logging notification", "error", err)
			return
		}
		if p.OnLog != nil {
			p.OnLog(n)
		}
	})
	s.channel.OnNotification(entity.MethodInitialized, func(ctx context.Context, raw json.RawMessage) {
		var ip entity.InitializedParams
		if err := json.Unmarshal(raw, &ip); err != nil {
			ip = entity.InitializedParams{Case: entity.ResultCaseError, Error: &entity.RemoteException{
				ClassName: "MalformedNotification",
				Message:   err.Error(),
			}}
		}
		select {
		case initialized <- ip:
		default:
			c.logger.Warn("ignoring repeated initialized notification")
		}
	})
	s.start()

	failure := c.handshake(ctx, s, initialized)
	if failure != nil {
		c.stats.Counter("handshake_failures").Inc(1)
		if err := s.Dispose(); err != nil {
			c.logger.Debugw("disposing failed fsix session", "error", err)
		}
		return nil, failure
	}

	c.stats.Counter("handshakes").Inc(1)
	c.logger.Infow("fsix session initialized", "pid", tr.Process.Pid(), "workDir", p.WorkDir)
	return s, nil
}

// handshake waits for the first of the initialized notification, channel death, process exit or ctx.
func (c *connector) handshake(ctx context.Context, s *session, initialized <-chan entity.InitializedParams) *errors.InitFailure {
	select {
	case ip := <-initialized:
		if ip.Case == entity.ResultCaseOk {
			return nil
		}
		return &errors.InitFailure{
			Reason:    errors.InitFailureRemoteException,
			Exception: mapper.RemoteExceptionToError(ip.Error),
		}
	case <-s.process.Done():
		return &errors.InitFailure{Reason: errors.InitFailureProcessExited, Code: s.process.ExitCode()}
	case <-s.channel.Done():
		select {
		case <-s.process.Done():
			return &errors.InitFailure{Reason: errors.InitFailureProcessExited, Code: s.process.ExitCode()}
		case <-time.After(_exitGrace):
		}
		return &errors.InitFailure{Reason: errors.InitFailureOther, Err: s.channel.Err()}
	case <-ctx.Done():
		return &errors.InitFailure{Reason: errors.InitFailureOther, Err: ctx.Err()}
	}
}
