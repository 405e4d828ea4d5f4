package fsixhost

import (
	"context"
	"fmt"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

type document struct {
	text    string
	version int32
}

// DidOpen starts tracking a cell and schedules its diagnostics.
func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return c.updateDocument(ctx, params.TextDocument.URI, params.TextDocument.Version, params.TextDocument.Text)
}

// DidChange replaces the tracked text of a cell and reschedules its diagnostics.
func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	text, err := mapper.ContentChangesToText(params.ContentChanges)
	if err != nil {
		return err
	}
	return c.updateDocument(ctx, params.TextDocument.URI, params.TextDocument.Version, text)
}

// DidClose stops tracking a cell and clears its published diagnostics.
func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	key, err := c.documentKey(ctx, params.TextDocument.URI)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	_, ok := c.documents[key]
	delete(c.documents, key)
	c.documentsMu.Unlock()
	if !ok {
		return &errors.DocumentNotFoundError{Document: params.TextDocument}
	}

	return c.diagnostics.Clear(ctx, params.TextDocument.URI)
}

func (c *controller) updateDocument(ctx context.Context, docURI uri.URI, version int32, text string) error {
	key, err := c.documentKey(ctx, docURI)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	if current, ok := c.documents[key]; ok && version < current.version {
		c.documentsMu.Unlock()
		return &errors.DocumentOutdatedError{URI: docURI, CurrentVersion: current.version, OutdatedVersion: version}
	}
	c.documents[key] = document{text: text, version: version}
	c.documentsMu.Unlock()

	if err := c.diagnostics.Schedule(ctx, docURI, text); err != nil {
		return fmt.Errorf("scheduling diagnostics: %w", err)
	}
	return nil
}

// documentText returns text if it is non-nil, and the tracked text of the document otherwise.
func (c *controller) documentText(ctx context.Context, docURI uri.URI, text *string) (string, error) {
	if text != nil {
		return *text, nil
	}

	key, err := c.documentKey(ctx, docURI)
	if err != nil {
		return "", err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	doc, ok := c.documents[key]
	if !ok {
		return "", &errors.DocumentNotFoundError{Document: protocol.TextDocumentIdentifier{URI: docURI}}
	}
	return doc.text, nil
}

func (c *controller) documentKey(ctx context.Context, docURI uri.URI) (documentKey, error) {
	id, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return documentKey{}, err
	}
	return documentKey{client: id, doc: docURI}, nil
}
