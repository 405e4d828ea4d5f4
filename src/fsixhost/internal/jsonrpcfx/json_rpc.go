package jsonrpcfx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/serverinfofile"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=jsonrpcfxmock/json_rpc_mock.go -package=jsonrpcfxmock . JSONRPCModule
//go:generate mockgen -destination=json_rpc_mock_test.go -package=jsonrpcfx . Router,ConnectionManager

const (
	_configKeyAddress = "jsonrpc.address"
	_outputKey        = "lsp-address"
)

// Module is an fx module to handle JSON-RPC requests.
var Module = fx.Provide(New)

// JSONRPCModule represents a module to manage JSON-RPC requests.
type JSONRPCModule interface {
	OnStart(ctx context.Context) error
	ServeStream(ctx context.Context, conn jsonrpc2.Conn) error
	RegisterConnectionManager(connectionManager ConnectionManager) error
}

// Router serves as the interface through which handling of requests will be implemented.
type Router interface {
	HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error
	UUID() uuid.UUID
}

// ConnectionManager will manage each active connection and its corresponding Router throughout the lifecycle of a connection.
type ConnectionManager interface {
	NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router Router, err error)
	RemoveConnection(ctx context.Context, id uuid.UUID)
}

type module struct {
	Address string `json:"address"`

	connectionMgr  ConnectionManager
	ln             net.Listener
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile

	cancel context.CancelFunc
	done   chan struct{}
}

// Params define values to be used by JsonRpcHandler.
type Params struct {
	fx.In

	Config         config.Provider
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
}

// New creates a new server to handle JSON-RPC requests on the given port and host.
func New(p Params) (JSONRPCModule, error) {
	if p.Lifecycle == nil || p.Config == nil {
		return nil, errors.New("required parameters are missing")
	}

	m := module{
		logger:         p.Logger,
		serverInfoFile: p.ServerInfoFile,
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})

	return &m, nil
}

// OnStart will open the listener, publish its address, and then begin handling incoming connections.
func (m *module) OnStart(ctx context.Context) error {
	if err := m.setup(); err != nil {
		return err
	}

	// Editors discover the host through this field, so a port of 0 is resolved first.
	addr := m.ln.Addr().String()
	if err := m.serverInfoFile.UpdateField(_outputKey, addr); err != nil {
		m.ln.Close()
		return fmt.Errorf("publishing address: %w", err)
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.start(serveCtx)

	m.logger.Warnw("started JSON-RPC inbound", zap.String("address", addr))
	return nil
}

// OnStop closes the listener and waits for the accept loop to return.
func (m *module) OnStop(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	err := m.ln.Close()

	select {
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// ServeStream is called when a new connection is initiated. Requests received via the connection will be routed to the handler, and answered via the connection's replier.
func (m *module) ServeStream(ctx context.Context, conn jsonrpc2.Conn) error {
	if m.connectionMgr == nil {
		m.logger.Errorf("cannot serve connection, no connection manager set")
		return errors.New("cannot serve connection, no connection manager set")
	}

	// Start handling the connection.
	handler, err := m.connectionMgr.NewConnection(ctx, &conn)
	if err != nil {
		return err
	}
	m.logger.Infow("client connected", zap.Stringer("uuid", handler.UUID()))
	conn.Go(ctx, protocol.CancelHandler(handler.HandleReq))

	// Block until the editor goes away or the server stops.
	select {
	case <-conn.Done():
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
	}

	// Cleanup after connection.
	m.connectionMgr.RemoveConnection(context.WithoutCancel(ctx), handler.UUID())
	m.logger.Infow("client disconnected", zap.Stringer("uuid", handler.UUID()))

	return conn.Err()
}

// RegisterConnectionManager sets the connection manager, which keeps track of current active connections and provides a Router implementation.
func (m *module) RegisterConnectionManager(connectionMgr ConnectionManager) error {
	if m.connectionMgr != nil {
		return errors.New("cannot register a duplicate connection manager")
	}
	m.connectionMgr = connectionMgr
	return nil
}

// setup should be called after creation of a new handler to set initial values.
func (m *module) setup() error {
	if m.Address == "" {
		return errors.New("setup called before address is set")
	}

	addr, err := net.ResolveTCPAddr("tcp", m.Address)
	if err != nil {
		return err
	}

	m.ln, err = net.ListenTCP("tcp", addr)
	return err
}

// start accepts connections until the listener is closed, then waits for open connections to finish.
func (m *module) start(ctx context.Context) {
	defer close(m.done)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		netConn, err := m.ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Errorw("JSON-RPC inbound stopped", zap.Error(err))
			}
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			stream := jsonrpc2.NewStream(netConn)
			if err := m.ServeStream(ctx, jsonrpc2.NewConn(stream)); err != nil && ctx.Err() == nil {
				m.logger.Debugw("connection closed with error", zap.Error(err))
			}
			stream.Close()
		}()
	}
}

// processConfig will parse the configuration for any values required by this module.
func (m *module) processConfig(cfg config.Provider) error {
	val := cfg.Get(_configKeyAddress)
	if err := val.Populate(&m.Address); err != nil {
		// incorrectly formatted config
		return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}

	if m.Address == "" {
		// yaml is missing either the key or value
		return fmt.Errorf("missing field %q in config", _configKeyAddress)
	}

	return nil
}
