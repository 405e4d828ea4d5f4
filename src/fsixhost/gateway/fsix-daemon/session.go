package fsixdaemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/rpcchannel"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// _drainGrace lets the read loop consume what the daemon wrote before it exited.
	_drainGrace  = 100 * time.Millisecond
	_reapTimeout = 5 * time.Second
)

// session is an entity.Session backed by one daemon process.
type session struct {
	channel *rpcchannel.Channel
	process launcher.Process
	logger  *zap.SugaredLogger
	stats   tally.Scope

	running  atomic.Bool
	dead     chan struct{}
	deadOnce sync.Once

	stop        chan struct{}
	wg          sync.WaitGroup
	disposeOnce sync.Once
	disposeErr  error
}

var _ entity.Session = (*session)(nil)

func newSession(tr *launcher.Transport, logger *zap.SugaredLogger, stats tally.Scope) *session {
	s := &session{
		channel: rpcchannel.New(tr.Conn, rpcchannel.WithLogger(logger), rpcchannel.WithStats(stats)),
		process: tr.Process,
		logger:  logger.With("pid", tr.Process.Pid()),
		stats:   stats,
		dead:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	s.running.Store(true)
	return s
}

// start begins reading from the daemon and watching for its death. Handlers must be registered first.
func (s *session) start() {
	s.channel.Listen(context.Background())
	s.wg.Add(1)
	go s.watch()
}

func (s *session) watch() {
	defer s.wg.Done()

	select {
	case <-s.channel.Done():
		s.logger.Infow("fsix transport closed", "error", s.channel.Err())
	case <-s.process.Done():
		s.logger.Infow("fsix process exited", "code", s.process.ExitCode())
		select {
		case <-s.channel.Done():
		case <-time.After(_drainGrace):
			s.channel.Abort(&errors.ProcessExitedError{Code: s.process.ExitCode()})
		}
	case <-s.stop:
	}
	s.markDead()
}

func (s *session) markDead() {
	s.deadOnce.Do(func() {
		s.running.Store(false)
		close(s.dead)
		s.stats.Counter("session_deaths").Inc(1)
	})
}

func (s *session) Eval(ctx context.Context, code string, args map[string]interface{}) (*entity.EvalResult, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	var res entity.EvalResult
	if err := s.call(ctx, entity.MethodEval, &entity.EvalRequest{Code: code, Args: args}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *session) Autocomplete(ctx context.Context, text string, caret int, word string) ([]entity.CompletionItem, error) {
	items := []entity.CompletionItem{}
	if err := s.call(ctx, entity.MethodAutocomplete, []interface{}{text, caret, word}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.CompletionItem{}
	}
	return items, nil
}

func (s *session) Diagnostics(ctx context.Context, text string) ([]entity.Diagnostic, error) {
	diags := []entity.Diagnostic{}
	if err := s.call(ctx, entity.MethodDiagnostics, []interface{}{text}, &diags); err != nil {
		return nil, err
	}
	if diags == nil {
		diags = []entity.Diagnostic{}
	}
	return diags, nil
}

func (s *session) IsRunning() bool {
	return s.running.Load()
}

func (s *session) Done() <-chan struct{} {
	return s.dead
}

// Dispose closes the transport, kills the process and waits for it to be reaped.
func (s *session) Dispose() error {
	s.disposeOnce.Do(func() {
		close(s.stop)
		s.markDead()

		err := s.channel.Close()
		err = multierr.Append(err, s.process.Kill())
		select {
		case <-s.process.Done():
		case <-time.After(_reapTimeout):
			err = multierr.Append(err, fmt.Errorf("fsix process %d did not exit", s.process.Pid()))
		}
		s.wg.Wait()
		s.disposeErr = err
	})
	return s.disposeErr
}

func (s *session) call(ctx context.Context, method string, params, result interface{}) error {
	if !s.IsRunning() {
		return errors.ErrSessionNotRunning
	}
	err := s.channel.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && stderrors.Is(err, ctxErr) {
		return err
	}
	return translate(err)
}

// translate turns a JSON-RPC error whose data is a daemon exception into a RemoteError.
func translate(err error) error {
	var rpcErr *jsonrpc2.Error
	if !stderrors.As(err, &rpcErr) || rpcErr.Data == nil {
		return err
	}
	var exc entity.RemoteException
	if jsonErr := json.Unmarshal(*rpcErr.Data, &exc); jsonErr != nil || (exc.ClassName == "" && exc.Message == "") {
		return err
	}
	return mapper.RemoteExceptionToError(&exc)
}
