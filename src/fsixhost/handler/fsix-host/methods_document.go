package fsixhost

import (
	"context"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"go.lsp.dev/jsonrpc2"
)

// DidOpen starts tracking a cell's text.
func (r *jsonRPCRouter) DidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidOpenTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.fsixhost.DidOpen(ctx, params)
	return reply(ctx, nil, err)
}

// DidChange replaces a cell's tracked text.
func (r *jsonRPCRouter) DidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidChangeTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.fsixhost.DidChange(ctx, params)
	return reply(ctx, nil, err)
}

// DidClose stops tracking a cell.
func (r *jsonRPCRouter) DidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidCloseTextDocumentParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.fsixhost.DidClose(ctx, params)
	return reply(ctx, nil, err)
}
