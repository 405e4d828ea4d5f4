// Package ideclient sends notifications and calls from the host to connected editors.
package ideclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=ideclientmock/ide_client_mock.go -package=ideclientmock . Gateway

const (
	_errSendToEditor = "sending to editor: %w"

	_hintDelay   = 5 * time.Second
	_hintTimeout = 2 * time.Minute

	// _maxOutputLine is the longest daemon output line buffered before it is forwarded in pieces.
	_maxOutputLine = 4096

	_titleInstallHint          = "FsiX: Input Needed"
	_messageInstallHint        = "Choose how to install the FsiX daemon."
	_messageInstallHintWaiting = "Still waiting for an answer. Open the notification center if the prompt is hidden."

	_messageInstallPrompt = "The FsiX daemon (fsix-daemon) was not found for %s. Install the FsiX.Daemon dotnet tool?"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Gateway routes outbound traffic to the editor that owns the client UUID in ctx.
type Gateway interface {
	// RegisterClient starts routing to conn. Called once per initialized editor connection.
	RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error
	// DeregisterClient stops routing to a closed connection.
	DeregisterClient(ctx context.Context, id uuid.UUID) error

	LogMessage(ctx context.Context, params *protocol.LogMessageParams) error
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
	// ShowMessageRequest asks the editor a question. A progress hint is shown while the answer is pending.
	ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error)

	// InstallPrompter asks the editor of ctx whether the daemon should be installed.
	InstallPrompter(ctx context.Context) launcher.Prompter
	// DaemonOutput returns a writer that forwards each line written to it to the editor log, tagged with the session identity.
	// Lines are dropped once the editor is gone.
	DaemonOutput(ctx context.Context, id entity.Identity) io.Writer
}

type gateway struct {
	mu      sync.Mutex
	editors map[uuid.UUID]protocol.Client
	logger  *zap.Logger
}

// New returns a Gateway with no registered editors.
func New(logger *zap.Logger) Gateway {
	return &gateway{
		editors: make(map[uuid.UUID]protocol.Client),
		logger:  logger,
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error {
	if conn == nil {
		return fmt.Errorf("registering client %q: nil connection", id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.editors[id] = protocol.ClientDispatcher(*conn, g.logger)
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.editors, id)
	return nil
}

func (g *gateway) LogMessage(ctx context.Context, params *protocol.LogMessageParams) error {
	editor, err := g.editorFor(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToEditor, err)
	}
	return editor.LogMessage(ctx, params)
}

func (g *gateway) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	editor, err := g.editorFor(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToEditor, err)
	}
	return editor.PublishDiagnostics(ctx, params)
}

func (g *gateway) ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	editor, err := g.editorFor(ctx)
	if err != nil {
		return nil, fmt.Errorf(_errSendToEditor, err)
	}

	// Editors hide non-error prompts while notifications are silenced.
	if params.Type > protocol.MessageTypeError {
		endHint, err := startPendingHint(ctx, editor)
		if err != nil {
			return nil, fmt.Errorf(_errSendToEditor, err)
		}
		defer endHint()
	}

	return editor.ShowMessageRequest(ctx, params)
}

func (g *gateway) InstallPrompter(ctx context.Context) launcher.Prompter {
	return launcher.PrompterFunc(func(promptCtx context.Context, workDir string) (entity.InstallChoice, error) {
		action, err := g.ShowMessageRequest(promptCtx, &protocol.ShowMessageRequestParams{
			Type:    protocol.MessageTypeInfo,
			Message: fmt.Sprintf(_messageInstallPrompt, workDir),
			Actions: mapper.InstallChoiceToActions(),
		})
		if err != nil {
			return entity.InstallDeclined, err
		}
		return mapper.ActionToInstallChoice(action), nil
	})
}

func (g *gateway) DaemonOutput(ctx context.Context, id entity.Identity) io.Writer {
	return &daemonOutputWriter{
		ctx:     ctx,
		gateway: g,
		prefix:  fmt.Sprintf("[%s] ", id),
	}
}

func (g *gateway) editorFor(ctx context.Context) (protocol.Client, error) {
	id, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	editor, ok := g.editors[id]
	if !ok {
		return nil, &errors.ClientNotFoundError{UUID: id}
	}
	return editor, nil
}

// startPendingHint opens a work done progress on the editor and returns the func that ends it.
// The hint message is refreshed after _hintDelay and the progress ends on its own after _hintTimeout.
func startPendingHint(ctx context.Context, editor protocol.Client) (end func(), err error) {
	tokenID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	token := *protocol.NewProgressToken(tokenID.String())

	if err := editor.WorkDoneProgressCreate(ctx, &protocol.WorkDoneProgressCreateParams{Token: token}); err != nil {
		return nil, fmt.Errorf("creating input hint: %w", err)
	}
	if err := editor.Progress(ctx, &protocol.ProgressParams{
		Token: token,
		Value: &protocol.WorkDoneProgressBegin{
			Kind:        protocol.WorkDoneProgressKindBegin,
			Title:       _titleInstallHint,
			Message:     _messageInstallHint,
			Cancellable: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("starting input hint: %w", err)
	}

	refresh := time.AfterFunc(_hintDelay, func() {
		editor.Progress(ctx, &protocol.ProgressParams{
			Token: token,
			Value: &protocol.WorkDoneProgressReport{
				Kind:    protocol.WorkDoneProgressKindReport,
				Message: _messageInstallHintWaiting,
			},
		})
	})

	finish := func() {
		editor.Progress(ctx, &protocol.ProgressParams{
			Token: token,
			Value: &protocol.WorkDoneProgressEnd{Kind: protocol.WorkDoneProgressKindEnd},
		})
	}
	expire := time.AfterFunc(_hintTimeout, finish)

	return func() {
		refresh.Stop()
		if expire.Stop() {
			finish()
		}
	}, nil
}

// daemonOutputWriter buffers partial lines between writes. Lines longer than _maxOutputLine are forwarded in pieces.
type daemonOutputWriter struct {
	ctx     context.Context
	gateway *gateway
	prefix  string

	mu      sync.Mutex
	partial []byte
}

// Write always consumes all of p. Delivery errors are logged and dropped.
func (w *daemonOutputWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(w.partial[:i], "\r"))
		w.partial = w.partial[i+1:]
		w.send(line)
	}
	for len(w.partial) >= _maxOutputLine {
		n := _maxOutputLine
		for n > 0 && n < len(w.partial) && !utf8.RuneStart(w.partial[n]) {
			n--
		}
		if n == 0 {
			n = _maxOutputLine
		}
		w.send(string(w.partial[:n]))
		w.partial = w.partial[n:]
	}
	return len(p), nil
}

func (w *daemonOutputWriter) send(line string) {
	if line == "" {
		return
	}
	if err := w.gateway.LogMessage(w.ctx, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeLog,
		Message: w.prefix + line,
	}); err != nil {
		w.gateway.logger.Debug("dropping daemon output", zap.String("prefix", w.prefix), zap.Error(err))
	}
}
