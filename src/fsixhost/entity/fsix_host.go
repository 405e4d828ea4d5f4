// Package entity contains the domain types for the fsix-host service.
package entity

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

type keyType string

// ClientContextKey indicates the key to be used to identify the editor client UUID in the context.
const ClientContextKey keyType = "ClientUUID"

// Client entity representing a single editor connection to the host.
type Client struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	InitializeParams *protocol.InitializeParams `json:"-" zap:"-"`
	Conn             *jsonrpc2.Conn             `json:"-" zap:"-"`
	WorkDir          string                     `json:"workDir" zap:"workDir"`
}

// ClientName identifies the name that will be set in the initialization parameters for a given client.
type ClientName string

const (
	// ClientNameVSCode is the name of the VSCode client.
	ClientNameVSCode ClientName = "Visual Studio Code"
	// ClientNameCursor is the name of the Cursor client.
	ClientNameCursor ClientName = "Cursor"
)

// IsVSCodeBased returns true if the client is a VS Code based client.
// Only those clients use the interactive window URI schemes that identity derivation understands.
func (c ClientName) IsVSCodeBased() bool {
	return c == ClientNameVSCode || c == ClientNameCursor
}

// InstallChoice is the user's answer to the daemon install prompt.
type InstallChoice int

const (
	// InstallDeclined means the daemon will not be installed.
	InstallDeclined InstallChoice = iota
	// InstallGlobal installs the daemon as a global dotnet tool.
	InstallGlobal
	// InstallLocal installs the daemon into the local tool manifest of the working directory.
	InstallLocal
)
