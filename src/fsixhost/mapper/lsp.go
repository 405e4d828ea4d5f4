package mapper

import (
	"encoding/json"
	"fmt"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// decodeParams unmarshals the params of req into a new T. Malformed params are reported as jsonrpc2.ErrParse.
func decodeParams[T any](req jsonrpc2.Request) (*T, error) {
	params := new(T)
	if err := json.Unmarshal(req.Params(), params); err != nil {
		return nil, fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
	}
	return params, nil
}

// RequestToInitializeParams decodes the params of an initialize request.
func RequestToInitializeParams(req jsonrpc2.Request) (*protocol.InitializeParams, error) {
	return decodeParams[protocol.InitializeParams](req)
}

func RequestToInitializedParams(req jsonrpc2.Request) (*protocol.InitializedParams, error) {
	return decodeParams[protocol.InitializedParams](req)
}

func RequestToDidOpenTextDocumentParams(req jsonrpc2.Request) (*protocol.DidOpenTextDocumentParams, error) {
	return decodeParams[protocol.DidOpenTextDocumentParams](req)
}

func RequestToDidChangeTextDocumentParams(req jsonrpc2.Request) (*protocol.DidChangeTextDocumentParams, error) {
	return decodeParams[protocol.DidChangeTextDocumentParams](req)
}

func RequestToDidCloseTextDocumentParams(req jsonrpc2.Request) (*protocol.DidCloseTextDocumentParams, error) {
	return decodeParams[protocol.DidCloseTextDocumentParams](req)
}

// ContentChangesToText returns the document text after a full-sync change notification.
// The host advertises full sync, so the last change carries the whole document.
func ContentChangesToText(changes []protocol.TextDocumentContentChangeEvent) (string, error) {
	if len(changes) == 0 {
		return "", fmt.Errorf("no content changes")
	}
	return changes[len(changes)-1].Text, nil
}
