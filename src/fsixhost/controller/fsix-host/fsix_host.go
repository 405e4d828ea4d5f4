// Package fsixhost implements the fsix-host business logic.
package fsixhost

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/controller/diagnostics"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	fsixdaemon "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/fsix-daemon"
	ideclient "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/ide-client"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/fs"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/logfilewriter"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/serverinfofile"
	workspaceutils "github.com/fsixnotebook/fsix-host/src/fsixhost/internal/workspace-utils"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/client"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/session"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -destination=fsixhostmock/fsix_host_mock.go -package=fsixhostmock . Controller

const (
	// Configuration keys
	_idleTimeoutMinutesKey = "idleTimeoutMinutes"

	_outputName = "fsix"
	_serverName = "FsiX Host"
)

// Controller orchestrates the business logic for each request.
type Controller interface {
	// LSP Methods defined per protocol.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	// Document related methods.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error

	// Session related methods.
	StartSession(ctx context.Context, params *entity.StartSessionParams) (*entity.StartSessionResult, error)
	Eval(ctx context.Context, params *entity.EvalParams) (*entity.EvalResponse, error)
	Autocomplete(ctx context.Context, params *entity.AutocompleteParams) ([]entity.CompletionItem, error)
	Diagnostics(ctx context.Context, params *entity.DiagnosticsParams) ([]entity.Diagnostic, error)
	CloseSession(ctx context.Context, params *entity.CloseSessionParams) error
	SessionStatus(ctx context.Context, params *entity.SessionStatusParams) (*entity.SessionStatusResult, error)
	ListProjects(ctx context.Context, params *entity.ListProjectsParams) (*entity.ListProjectsResult, error)

	// Custom methods for use within this service.
	RequestFullShutdown(ctx context.Context) error
	InitClient(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error)
	EndClient(ctx context.Context, id uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Shutdowner     fx.Shutdowner
	Lifecycle      fx.Lifecycle
	Clients        client.Repository
	Sessions       session.Registry
	Connector      fsixdaemon.Connector
	Diagnostics    diagnostics.Controller
	IdeGateway     ideclient.Gateway
	WorkspaceUtils workspaceutils.WorkspaceUtils
	Logger         *zap.SugaredLogger
	Stats          tally.Scope
	Config         config.Provider
	FS             fs.HostFS
	ServerInfoFile serverinfofile.ServerInfoFile
}

type documentKey struct {
	client uuid.UUID
	doc    uri.URI
}

type controller struct {
	clients        client.Repository
	sessions       session.Registry
	connector      fsixdaemon.Connector
	diagnostics    diagnostics.Controller
	ideGateway     ideclient.Gateway
	workspaceUtils workspaceutils.WorkspaceUtils
	logger         *zap.SugaredLogger
	stats          tally.Scope
	output         io.Writer

	shutdowner   fx.Shutdowner
	fullShutdown bool
	idleTimer    *time.Timer
	idleTimerMu  sync.Mutex
	idleTimeout  time.Duration

	documents   map[documentKey]document
	documentsMu sync.Mutex

	// initLines remembers the last init line per identity, so a dead session can be rebuilt the same way.
	initLines   map[entity.Identity]string
	initLinesMu sync.Mutex

	connects singleflight.Group

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New constructs a new top-level controller for the service.
func New(p Params) (Controller, error) {
	ctx := context.Background()

	var timeoutMinutesRaw int64
	if err := p.Config.Get(_idleTimeoutMinutesKey).Populate(&timeoutMinutesRaw); err != nil || timeoutMinutesRaw == 0 {
		return nil, fmt.Errorf("unable to get idle timeout from config: %w", err)
	}

	output, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
		FS:             p.FS,
		Lifecycle:      p.Lifecycle,
		ServerInfoFile: p.ServerInfoFile,
	}, _outputName)
	if err != nil {
		p.Logger.Warnf("setting up %s output: %s", _outputName, err)
		output = io.Discard
	}

	c := &controller{
		clients:        p.Clients,
		sessions:       p.Sessions,
		connector:      p.Connector,
		diagnostics:    p.Diagnostics,
		ideGateway:     p.IdeGateway,
		workspaceUtils: p.WorkspaceUtils,
		logger:         p.Logger,
		stats:          p.Stats.SubScope("host"),
		output:         output,
		shutdowner:     p.Shutdowner,
		idleTimeout:    time.Duration(timeoutMinutesRaw) * time.Minute,
		documents:      make(map[documentKey]document),
		initLines:      make(map[entity.Identity]string),
		stop:           make(chan struct{}),
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: c.onStop,
	})
	c.refreshIdleTimer(ctx)

	return c, nil
}

// onStop disposes every registered session and waits for the session watchers to exit.
func (c *controller) onStop(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.stop)
	c.mu.Unlock()

	entries, err := c.sessions.All(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	var result error
	for _, entry := range entries {
		if _, err := c.sessions.Evict(ctx, entry.Identity); err != nil {
			result = multierr.Append(result, err)
		}
		result = multierr.Append(result, c.dispose(entry))
	}

	c.wg.Wait()
	return result
}
