package fsixhost

import (
	"context"
	"sync"

	controller "github.com/fsixnotebook/fsix-host/src/fsixhost/controller/fsix-host"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Requests that may wait on the daemon or on the editor run on their own goroutine while the connection keeps reading.
var _concurrentMethods = map[string]struct{}{
	entity.MethodStartSession: {},
	entity.MethodEvalCell:     {},
}

type jsonRPCRouter struct {
	fsixhost controller.Controller
	uuid     uuid.UUID
	stats    tally.Scope
	inflight sync.WaitGroup
}

// HandleReq handles routing for a single request.
// Notifications and most requests are handled in arrival order; requests in _concurrentMethods reply asynchronously.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = context.WithValue(ctx, entity.ClientContextKey, r.uuid)
	handle := jsonrpc2.ReplyHandler(r.route)

	if _, ok := _concurrentMethods[req.Method()]; !ok {
		return handle(ctx, reply, req)
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		_ = handle(ctx, reply, req)
	}()
	return nil
}

// Wait blocks until every asynchronously handled request has replied.
func (r *jsonRPCRouter) Wait() {
	r.inflight.Wait()
}

func (r *jsonRPCRouter) route(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	// Lifecycle related methods.
	case protocol.MethodInitialize:
		return r.Initialize(ctx, reply, req)

	case protocol.MethodInitialized:
		return r.Initialized(ctx, reply, req)

	case protocol.MethodShutdown:
		return r.Shutdown(ctx, reply, req)

	case protocol.MethodExit:
		return r.Exit(ctx, reply, req)

	case entity.MethodRequestFullShutdown:
		return r.RequestFullShutdown(ctx, reply, req)

	// Document related methods.
	case protocol.MethodTextDocumentDidOpen:
		return r.DidOpen(ctx, reply, req)

	case protocol.MethodTextDocumentDidChange:
		return r.DidChange(ctx, reply, req)

	case protocol.MethodTextDocumentDidClose:
		return r.DidClose(ctx, reply, req)

	// Session related methods.
	case entity.MethodStartSession:
		return r.StartSession(ctx, reply, req)

	case entity.MethodEvalCell:
		return r.Eval(ctx, reply, req)

	case entity.MethodCompletions:
		return r.Autocomplete(ctx, reply, req)

	case entity.MethodDocumentDiagnostics:
		return r.Diagnostics(ctx, reply, req)

	case entity.MethodCloseSession:
		return r.CloseSession(ctx, reply, req)

	case entity.MethodSessionStatus:
		return r.SessionStatus(ctx, reply, req)

	case entity.MethodListProjects:
		return r.ListProjects(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}
