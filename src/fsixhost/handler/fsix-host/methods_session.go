package fsixhost

import (
	"context"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"go.lsp.dev/jsonrpc2"
)

// StartSession runs the init cell of a notebook or REPL.
func (r *jsonRPCRouter) StartSession(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToStartSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.StartSession(ctx, params)
	if err != nil {
		return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
	}

	return reply(ctx, result, nil)
}

// Eval evaluates a cell, starting a session first when needed.
func (r *jsonRPCRouter) Eval(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToEvalParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.Eval(ctx, params)
	if err != nil {
		return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
	}

	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) Autocomplete(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToAutocompleteParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.Autocomplete(ctx, params)
	if err != nil {
		return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
	}

	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) Diagnostics(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDiagnosticsParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.Diagnostics(ctx, params)
	if err != nil {
		return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
	}

	return reply(ctx, result, nil)
}

// CloseSession terminates the session owned by a closing notebook.
func (r *jsonRPCRouter) CloseSession(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToCloseSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.fsixhost.CloseSession(ctx, params)
	return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
}

func (r *jsonRPCRouter) SessionStatus(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToSessionStatusParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.SessionStatus(ctx, params)
	if err != nil {
		return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
	}

	return reply(ctx, result, nil)
}

// ListProjects lists the solutions and projects that can be loaded into a session.
func (r *jsonRPCRouter) ListProjects(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToListProjectsParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.fsixhost.ListProjects(ctx, params)
	if err != nil {
		return reply(ctx, nil, mapper.ErrorToJSONRPCError(err))
	}

	return reply(ctx, result, nil)
}
