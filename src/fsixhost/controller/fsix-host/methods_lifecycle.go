package fsixhost

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"
)

// Initialize will store information about a new connection and perform any setup needed.
func (c *controller) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	result := &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name: _serverName,
		},
	}

	cl, err := c.clients.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting client from context: %w", err)
	}

	if params.ClientInfo != nil && !entity.ClientName(params.ClientInfo.Name).IsVSCodeBased() {
		c.logger.Infow("client does not use interactive window URIs, REPL identities will not resolve", "client", params.ClientInfo.Name)
	}

	folders := params.WorkspaceFolders
	if len(folders) == 0 && params.RootURI != "" {
		folders = []protocol.WorkspaceFolder{{URI: string(params.RootURI)}}
	}

	cl.InitializeParams = params
	if cl.WorkDir, err = c.workspaceUtils.GetWorkDir(ctx, folders); err != nil {
		c.logger.Warnf("getting working directory: %s", err)
	}

	if err := c.clients.Set(ctx, cl); err != nil {
		return nil, fmt.Errorf("setting updated client state: %w", err)
	}
	return result, nil
}

// Initialized handles any actions that need to occur immediately after initialization.
func (c *controller) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	cl, err := c.clients.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting client from context: %w", err)
	}

	message := "Connection to FsiX Host is now initialized."
	if cl.WorkDir == "" {
		message = "Connection to FsiX Host is now initialized. No working directory was found, so daemons start in the host's directory."
	}
	return c.ideGateway.LogMessage(ctx, &protocol.LogMessageParams{
		Message: message,
		Type:    protocol.MessageTypeInfo,
	})
}

// Shutdown is sent just before Exit to indicate that the client will exit.
func (c *controller) Shutdown(ctx context.Context) error {
	id, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return err
	}
	return c.diagnostics.EndClient(ctx, id)
}

// Exit will be used to either clean up from an individual connection, or shutdown the whole server.
func (c *controller) Exit(ctx context.Context) error {
	if c.isFullShutdown() {
		// Zero out the timer to trigger immediate shutdown.
		c.idleTimerMu.Lock()
		c.idleTimer.Reset(0)
		c.idleTimerMu.Unlock()
		return nil
	}

	id, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return fmt.Errorf("error during client exit: %w", err)
	}
	return c.EndClient(ctx, id)
}

// RequestFullShutdown will set the controller to treat subsequent Exit requests as requests to exit the entire process.
func (c *controller) RequestFullShutdown(ctx context.Context) error {
	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()
	c.fullShutdown = true
	return nil
}

func (c *controller) isFullShutdown() bool {
	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()
	return c.fullShutdown
}

// InitClient creates a new empty client and returns its UUID.
func (c *controller) InitClient(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error) {
	defer c.refreshIdleTimer(ctx)

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	if err := c.ideGateway.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}

	if err := c.clients.Set(ctx, mapper.UUIDToClient(id, conn)); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// EndClient disposes everything the client owned, during or after its last JSON-RPC request.
func (c *controller) EndClient(ctx context.Context, id uuid.UUID) error {
	defer c.refreshIdleTimer(ctx)

	if err := c.diagnostics.EndClient(ctx, id); err != nil {
		c.logger.Error(err)
	}

	if err := c.ideGateway.DeregisterClient(ctx, id); err != nil {
		c.logger.Error(err)
	}

	var result error
	entries, err := c.sessions.GetAllFromClient(ctx, id)
	if err != nil {
		result = multierr.Append(result, err)
	}
	for _, entry := range entries {
		evicted, err := c.sessions.EvictSession(ctx, entry.Identity, entry.Session)
		if err != nil {
			result = multierr.Append(result, err)
			continue
		}
		if evicted {
			c.logger.Infow("disposing session of disconnected client", "identity", entry.Identity, "client", id)
			result = multierr.Append(result, c.dispose(entry))
		}
	}

	c.documentsMu.Lock()
	for key := range c.documents {
		if key.client == id {
			delete(c.documents, key)
		}
	}
	c.documentsMu.Unlock()

	return multierr.Append(result, c.clients.Delete(ctx, id))
}

// refreshIdleTimer ensures that the service shuts down after a defined inactivity period with no connections.
func (c *controller) refreshIdleTimer(ctx context.Context) error {
	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	// First call initializes new timer and leaves it running prior to first connection.
	if c.idleTimer == nil {
		c.idleTimer = time.NewTimer(c.idleTimeout)
		go func(timer *time.Timer) {
			select {
			case <-timer.C:
				c.logger.Info("Shutdown signal received.")
				if err := c.shutdowner.Shutdown(); err != nil {
					os.Exit(1)
				}
			case <-c.stop:
				timer.Stop()
			}
		}(c.idleTimer)
		return nil
	}

	// Subsequent calls stop the timer and reset it only if no connections are active.
	currentClients, err := c.clients.ClientCount(ctx)
	if err != nil {
		return fmt.Errorf("error resetting timeout: %w", err)
	}

	c.idleTimer.Stop()
	if currentClients == 0 {
		c.idleTimer.Reset(c.idleTimeout)
	}
	return nil
}
