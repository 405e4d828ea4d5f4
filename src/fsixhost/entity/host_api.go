package entity

import (
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Custom methods served to editors, in addition to the LSP lifecycle and text sync methods.
const (
	MethodStartSession        = "fsix/startSession"
	MethodEvalCell            = "fsix/eval"
	MethodCompletions         = "fsix/autocomplete"
	MethodDocumentDiagnostics = "fsix/diagnostics"
	MethodCloseSession        = "fsix/closeSession"
	MethodSessionStatus       = "fsix/sessionStatus"
	MethodListProjects        = "fsix/listProjects"
	// MethodRequestFullShutdown directs the host to shut down on the next JSON-RPC 'exit' method call.
	MethodRequestFullShutdown = "fsix/requestFullShutdown"
)

// JSON-RPC error codes used in replies to editors.
const (
	CodeRemoteException   jsonrpc2.Code = -32001
	CodeSessionNotRunning jsonrpc2.Code = -32002
	CodeInitFailed        jsonrpc2.Code = -32003
	CodeIdentity          jsonrpc2.Code = -32004
)

// HotReloadArg is the eval argument key toggling hot reload in the daemon.
const HotReloadArg = "hotReload"

// OutputStream names the stream an output line belongs to.
type OutputStream string

const (
	OutputStdout OutputStream = "stdout"
	OutputStderr OutputStream = "stderr"
)

// OutputLine is one line of text to be rendered under a cell.
type OutputLine struct {
	Stream OutputStream `json:"stream"`
	Text   string       `json:"text"`
}

// StartSessionParams runs the init cell of a notebook or REPL.
type StartSessionParams struct {
	URI      uri.URI `json:"uri"`
	InitLine string  `json:"initLine"`
}

// InitFailureInfo is the wire form of a failed handshake.
type InitFailureInfo struct {
	Reason    errors.InitFailureReason `json:"reason"`
	Code      int                      `json:"code,omitempty"`
	Exception *errors.RemoteError      `json:"exception,omitempty"`
	Message   string                   `json:"message"`
}

// StartSessionResult reports the outcome of an init cell.
type StartSessionResult struct {
	Identity Identity         `json:"identity"`
	Started  bool             `json:"started"`
	Declined bool             `json:"declined,omitempty"`
	Output   []OutputLine     `json:"output"`
	Failure  *InitFailureInfo `json:"failure,omitempty"`
}

// EvalParams evaluates a regular cell.
type EvalParams struct {
	URI      uri.URI                `json:"uri"`
	Code     string                 `json:"code"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Args     map[string]interface{} `json:"args,omitempty"`
	// HotReload overrides the hotReload argument when set.
	HotReload *bool `json:"hotReload,omitempty"`
	// InitLine is used to start a session if none is running for the document.
	InitLine string `json:"initLine,omitempty"`
}

// EvalResponse is the rendered result of an evaluation.
type EvalResponse struct {
	Success       bool                `json:"success"`
	Value         string              `json:"value,omitempty"`
	Error         *errors.RemoteError `json:"error,omitempty"`
	EvaluatedCode string              `json:"evaluatedCode"`
	Output        []OutputLine        `json:"output"`
	Diagnostics   []Diagnostic        `json:"diagnostics"`
	Reloaded      []string            `json:"reloadedMethods,omitempty"`
}

// AutocompleteParams requests completions. Either Caret and Word, or Position, must be set.
// A nil Text means the tracked text of the document. An empty Text is an empty document.
type AutocompleteParams struct {
	URI      uri.URI            `json:"uri"`
	Text     *string            `json:"text,omitempty"`
	Caret    int                `json:"caret"`
	Word     string             `json:"word"`
	Position *protocol.Position `json:"position,omitempty"`
}

// DiagnosticsParams requests whole-document diagnostics. Text follows the AutocompleteParams rules.
type DiagnosticsParams struct {
	URI  uri.URI `json:"uri"`
	Text *string `json:"text,omitempty"`
}

// CloseSessionParams is sent when the owning notebook closes.
type CloseSessionParams struct {
	URI uri.URI `json:"uri"`
}

// SessionStatusParams asks for the state of a document's session.
type SessionStatusParams struct {
	URI uri.URI `json:"uri"`
}

// SessionStatusResult describes a document's session.
type SessionStatusResult struct {
	Identity Identity `json:"identity"`
	Running  bool     `json:"running"`
	InitLine string   `json:"initLine,omitempty"`
}

// ListProjectsParams asks for loadable projects under Root, or the client's work dir.
type ListProjectsParams struct {
	Root string `json:"root,omitempty"`
}

// Project is a candidate to load into the daemon.
type Project struct {
	Path     string `json:"path"`
	InitLine string `json:"initLine"`
}

// ListProjectsResult lists candidates, always ending with the no-project option.
type ListProjectsResult struct {
	Projects []Project `json:"projects"`
}
