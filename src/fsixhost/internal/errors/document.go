package errors

import (
	"fmt"

	"go.lsp.dev/protocol"
)

// DocumentNotFoundError indicates that a document is not open in the host.
type DocumentNotFoundError struct {
	Document protocol.TextDocumentIdentifier
}

// Error is an implementation of the error interface.
func (n *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", n.Document.URI)
}

// DocumentOutdatedError indicates that a change arrived for an older version than the one already held.
type DocumentOutdatedError struct {
	URI             protocol.DocumentURI
	CurrentVersion  int32
	OutdatedVersion int32
}

// Error is an implementation of the error interface.
func (n *DocumentOutdatedError) Error() string {
	return fmt.Sprintf("document %q version is outdated.  Current version: %v, Outdated version: %v", n.URI, n.CurrentVersion, n.OutdatedVersion)
}
