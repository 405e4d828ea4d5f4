package model

import (
	"time"

	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Client is the repository layer model for an individual editor connection.
type Client struct {
	UUID             uuid.UUID
	InitializeParams *protocol.InitializeParams
	Conn             *jsonrpc2.Conn
	WorkDir          string
}

// SessionEntry is the repository layer model for a registered fsix session.
// Session holds the live handle and is stored as-is.
type SessionEntry struct {
	Identity  string
	Session   interface{}
	Client    uuid.UUID
	InitLine  string
	WorkDir   string
	StartedAt time.Time
}
