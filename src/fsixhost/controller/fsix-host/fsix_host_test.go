package fsixhost

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/controller/diagnostics/diagnosticsmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/factory"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/fsix-daemon/fsixdaemonmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/ide-client/ideclientmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs/fsmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/serverinfofile/serverinfofilemock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/workspace-utils/workspaceutilsmock"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/client"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func stringPtr(s string) *string {
	return &s
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeShutdowner struct {
	once   sync.Once
	called chan struct{}
}

func newFakeShutdowner() *fakeShutdowner {
	return &fakeShutdowner{called: make(chan struct{})}
}

func (f *fakeShutdowner) Shutdown(...fx.ShutdownOption) error {
	f.once.Do(func() { close(f.called) })
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	ctx         context.Context
	client      *entity.Client
	c           *controller
	clients     client.Repository
	sessions    session.Registry
	connector   *fsixdaemonmock.MockConnector
	gateway     *ideclientmock.MockGateway
	diagnostics *diagnosticsmock.MockController
	workspace   *workspaceutilsmock.MockWorkspaceUtils
	shutdowner  *fakeShutdowner
	stats       tally.TestScope
	output      *syncBuffer
	logs        *observer.ObservedLogs
	ctrl        *gomock.Controller
}

func newTestEnv(t *testing.T) *testEnv {
	ctrl := gomock.NewController(t)
	core, logs := observer.New(zap.InfoLevel)
	stats := tally.NewTestScope("", nil)

	env := &testEnv{
		client:      &entity.Client{UUID: factory.UUID(), WorkDir: "/home/user/notebooks"},
		clients:     client.New(tally.NoopScope),
		sessions:    session.New(tally.NoopScope),
		connector:   fsixdaemonmock.NewMockConnector(ctrl),
		gateway:     ideclientmock.NewMockGateway(ctrl),
		diagnostics: diagnosticsmock.NewMockController(ctrl),
		workspace:   workspaceutilsmock.NewMockWorkspaceUtils(ctrl),
		shutdowner:  newFakeShutdowner(),
		stats:       stats,
		output:      &syncBuffer{},
		logs:        logs,
		ctrl:        ctrl,
	}
	env.ctx = context.WithValue(context.Background(), entity.ClientContextKey, env.client.UUID)
	require.NoError(t, env.clients.Set(env.ctx, env.client))

	env.c = &controller{
		clients:        env.clients,
		sessions:       env.sessions,
		connector:      env.connector,
		diagnostics:    env.diagnostics,
		ideGateway:     env.gateway,
		workspaceUtils: env.workspace,
		logger:         zap.New(core).Sugar(),
		stats:          stats.SubScope("host"),
		output:         env.output,
		shutdowner:     env.shutdowner,
		idleTimeout:    time.Hour,
		documents:      make(map[documentKey]document),
		initLines:      make(map[entity.Identity]string),
		stop:           make(chan struct{}),
	}
	env.gateway.EXPECT().InstallPrompter(gomock.Any()).Return(launcher.PrompterFunc(
		func(ctx context.Context, workDir string) (entity.InstallChoice, error) {
			return entity.InstallDeclined, nil
		})).AnyTimes()
	env.gateway.EXPECT().DaemonOutput(gomock.Any(), gomock.Any()).Return(io.Discard).AnyTimes()

	t.Cleanup(func() {
		assert.NoError(t, env.c.onStop(context.Background()))
	})
	return env
}

// allowLogs accepts any number of window/logMessage notifications.
func (e *testEnv) allowLogs() {
	e.gateway.EXPECT().LogMessage(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

// newSession returns a mock session that is running until done is closed.
func (e *testEnv) newSession() (*fsixdaemonmock.MockSession, chan struct{}) {
	s := fsixdaemonmock.NewMockSession(e.ctrl)
	done := make(chan struct{})
	s.EXPECT().IsRunning().DoAndReturn(func() bool {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}).AnyTimes()
	s.EXPECT().Done().Return((<-chan struct{})(done)).AnyTimes()
	return s, done
}

func (e *testEnv) counter(name string) int64 {
	c, ok := e.stats.Snapshot().Counters()["host."+name+"+"]
	if !ok {
		return 0
	}
	return c.Value()
}

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider, err := config.NewStaticProvider(map[string]interface{}{"idleTimeoutMinutes": 60})
		require.NoError(t, err)

		fsMock := fsmock.NewMockHostFS(ctrl)
		fsMock.EXPECT().MkdirAll(gomock.Any()).Return(nil)
		fsMock.EXPECT().TempFile(gomock.Any(), gomock.Any()).DoAndReturn(func(dir, pattern string) (*os.File, error) {
			return os.CreateTemp(t.TempDir(), pattern)
		})
		fsMock.EXPECT().Remove(gomock.Any()).DoAndReturn(os.Remove)
		infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
		infoFile.EXPECT().UpdateField("output:fsix", gomock.Any()).Return(nil)

		lc := fxtest.NewLifecycle(t)
		c, err := New(Params{
			Shutdowner:     newFakeShutdowner(),
			Lifecycle:      lc,
			Clients:        client.New(tally.NoopScope),
			Sessions:       session.New(tally.NoopScope),
			Logger:         zap.NewNop().Sugar(),
			Stats:          tally.NoopScope,
			Config:         provider,
			FS:             fsMock,
			ServerInfoFile: infoFile,
		})
		require.NoError(t, err)
		assert.Equal(t, time.Hour, c.(*controller).idleTimeout)

		lc.RequireStart()
		lc.RequireStop()
	})

	t.Run("output file unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider, err := config.NewStaticProvider(map[string]interface{}{"idleTimeoutMinutes": 1})
		require.NoError(t, err)

		fsMock := fsmock.NewMockHostFS(ctrl)
		fsMock.EXPECT().MkdirAll(gomock.Any()).Return(os.ErrPermission)

		lc := fxtest.NewLifecycle(t)
		c, err := New(Params{
			Shutdowner:     newFakeShutdowner(),
			Lifecycle:      lc,
			Clients:        client.New(tally.NoopScope),
			Sessions:       session.New(tally.NoopScope),
			Logger:         zap.NewNop().Sugar(),
			Stats:          tally.NoopScope,
			Config:         provider,
			FS:             fsMock,
			ServerInfoFile: serverinfofilemock.NewMockServerInfoFile(ctrl),
		})
		require.NoError(t, err)
		assert.NotNil(t, c.(*controller).output)

		lc.RequireStart()
		lc.RequireStop()
	})

	t.Run("missing idle timeout", func(t *testing.T) {
		provider, err := config.NewStaticProvider(map[string]interface{}{})
		require.NoError(t, err)

		_, err = New(Params{
			Lifecycle: fxtest.NewLifecycle(t),
			Logger:    zap.NewNop().Sugar(),
			Stats:     tally.NoopScope,
			Config:    provider,
		})
		assert.Error(t, err)
	})
}

func TestOnStopDisposesSessions(t *testing.T) {
	env := newTestEnv(t)
	s, _ := env.newSession()
	s.EXPECT().Dispose().Return(nil)

	require.NoError(t, env.c.install(env.ctx, &entity.SessionEntry{
		Identity: "/home/user/notebooks/a.fsixnb",
		Session:  s,
		Client:   env.client.UUID,
	}))

	require.NoError(t, env.c.onStop(context.Background()))
	count, err := env.sessions.SessionCount(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	t.Run("install after stop", func(t *testing.T) {
		late, _ := env.newSession()
		late.EXPECT().Dispose().Return(nil)
		err := env.c.install(env.ctx, &entity.SessionEntry{Identity: "late", Session: late})
		assert.Error(t, err)
	})
}
