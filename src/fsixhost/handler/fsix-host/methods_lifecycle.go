package fsixhost

import (
	"context"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"go.lsp.dev/jsonrpc2"
)

// Initialize extracts protocol.InitializeParams from the request and calls initialization logic for a new editor connection.
func (r *jsonRPCRouter) Initialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToInitializeParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.Initialize(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}

	return reply(ctx, result, nil)
}

// Initialized is sent after the client received the result of the initialize request but before the client sends any other request or notification.
func (r *jsonRPCRouter) Initialized(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToInitializedParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.fsixhost.Initialized(ctx, params)
	return reply(ctx, nil, err)
}

// Shutdown releases everything owned by the calling editor, but does not exit.
func (r *jsonRPCRouter) Shutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	err := r.fsixhost.Shutdown(ctx)
	return reply(ctx, nil, err)
}

// Exit asks the host to exit its process.
// The host is shared between editors, so the process only exits when RequestFullShutdown was sent first.
func (r *jsonRPCRouter) Exit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	// Reply before the controller starts shutting down.
	reply(ctx, nil, nil)
	return r.fsixhost.Exit(ctx)
}

// RequestFullShutdown marks the next exit call as a full shutdown of the host.
func (r *jsonRPCRouter) RequestFullShutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	err := r.fsixhost.RequestFullShutdown(ctx)
	return reply(ctx, nil, err)
}
