package fsixdaemon

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/factory"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func newTestConnector(l *fakeLauncher) (*connector, tally.TestScope) {
	scope := tally.NewTestScope("", nil)
	return New(Params{Launcher: l, Logger: zap.NewNop().Sugar(), Stats: scope}).(*connector), scope
}

// connect runs Connect against the fake launcher, letting serve drive the daemon side.
func connect(t *testing.T, ctx context.Context, serve func(d *fakeDaemon), p ConnectParams) (entity.Session, error) {
	l := newFakeLauncher()
	c, _ := newTestConnector(l)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d := <-l.launched
		serve(d)
	}()
	s, err := c.Connect(ctx, p)
	wg.Wait()
	return s, err
}

func TestConnect(t *testing.T) {
	var logs []entity.LogNotification
	var mu sync.Mutex

	s, err := connect(t, context.Background(), func(d *fakeDaemon) {
		d.notify(t, entity.MethodLogging, entity.LogNotification{Level: entity.LogLevelInfo, Message: "Loading App.fsproj"})
		d.initialize(t)
	}, ConnectParams{OnLog: func(n entity.LogNotification) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, n)
	}})
	require.NoError(t, err)
	defer s.Dispose()

	assert.True(t, s.IsRunning())
	mu.Lock()
	assert.Equal(t, []entity.LogNotification{{Level: entity.LogLevelInfo, Message: "Loading App.fsproj"}}, logs)
	mu.Unlock()
}

func TestConnectFailures(t *testing.T) {
	t.Run("remote exception", func(t *testing.T) {
		exc := factory.RemoteException(2)
		_, err := connect(t, context.Background(), func(d *fakeDaemon) {
			d.notify(t, entity.MethodInitialized, entity.InitializedParams{Case: entity.ResultCaseError, Error: exc})
		}, ConnectParams{})

		var failure *errors.InitFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, errors.InitFailureRemoteException, failure.Reason)
		require.NotNil(t, failure.Exception)
		assert.Equal(t, exc.Message, failure.Exception.Message)
		assert.Equal(t, 2, failure.Exception.Depth())
	})

	t.Run("process exits", func(t *testing.T) {
		_, err := connect(t, context.Background(), func(d *fakeDaemon) {
			d.process.exit(1)
		}, ConnectParams{})

		var failure *errors.InitFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, errors.InitFailureProcessExited, failure.Reason)
		assert.Equal(t, 1, failure.Code)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := connect(t, ctx, func(d *fakeDaemon) {}, ConnectParams{})

		var failure *errors.InitFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, errors.InitFailureOther, failure.Reason)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("launch declined", func(t *testing.T) {
		l := newFakeLauncher()
		l.err = errors.ErrUserDeclinedInstall
		c, _ := newTestConnector(l)
		_, err := c.Connect(context.Background(), ConnectParams{})
		assert.ErrorIs(t, err, errors.ErrUserDeclinedInstall)
		var failure *errors.InitFailure
		assert.False(t, stderrors.As(err, &failure))
	})

	t.Run("launch exits early", func(t *testing.T) {
		l := newFakeLauncher()
		l.err = &errors.ProcessExitedError{Code: 3}
		c, scope := newTestConnector(l)
		_, err := c.Connect(context.Background(), ConnectParams{})
		var failure *errors.InitFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, errors.InitFailureProcessExited, failure.Reason)
		assert.Equal(t, 3, failure.Code)
		assert.Equal(t, int64(1), scope.Snapshot().Counters()["rpc.handshake_failures+"].Value())
	})

	t.Run("launch fails", func(t *testing.T) {
		l := newFakeLauncher()
		l.err = stderrors.New("exec: \"fsix-daemon\": executable file not found in $PATH")
		c, _ := newTestConnector(l)
		_, err := c.Connect(context.Background(), ConnectParams{})
		var failure *errors.InitFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, errors.InitFailureOther, failure.Reason)
		assert.Contains(t, err.Error(), "executable file not found")
	})
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
