// Package fsixhost implements the JSON-RPC handlers served to editors.
package fsixhost

import (
	"context"
	"fmt"
	"sync/atomic"

	controller "github.com/fsixnotebook/fsix-host/src/fsixhost/controller/fsix-host"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/jsonrpcfx"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
)

// Handler tracks the editor connections served by this process.
type Handler interface {
	jsonrpcfx.ConnectionManager
	// ActiveConnections returns the number of connected editors.
	ActiveConnections() int64
}

// New constructs a Handler and registers it as the JSON-RPC connection manager.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope) (Handler, error) {
	c := &jsonRPCConnectionManager{
		ctrl:  ctrl,
		stats: stats.SubScope("json_rpc"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(c); err != nil {
		return nil, err
	}
	return c, nil
}

type jsonRPCConnectionManager struct {
	ctrl   controller.Controller
	stats  tally.Scope
	active atomic.Int64
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitClient(ctx, conn)
	if err != nil {
		c.stats.Counter("connection_errors").Inc(1)
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	c.stats.Gauge("connections").Update(float64(c.active.Add(1)))
	return &jsonRPCRouter{
		fsixhost: c.ctrl,
		uuid:     id,
		stats:    c.stats,
	}, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	// Sessions are released even if no exit call was received.
	ctx = context.WithValue(ctx, entity.ClientContextKey, id)
	c.ctrl.EndClient(ctx, id)
	c.stats.Gauge("connections").Update(float64(c.active.Add(-1)))
}

func (c *jsonRPCConnectionManager) ActiveConnections() int64 {
	return c.active.Load()
}
