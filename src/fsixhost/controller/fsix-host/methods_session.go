package fsixhost

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	fsixdaemon "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/fsix-daemon"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"
)

const _doneMessage = "Done!"

// StartSession runs an init cell: it always performs a fresh handshake and replaces any session of the identity.
func (c *controller) StartSession(ctx context.Context, params *entity.StartSessionParams) (*entity.StartSessionResult, error) {
	id, err := mapper.DocumentURIToIdentity(params.URI)
	if err != nil {
		return nil, err
	}
	cl, err := c.clients.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting client from context: %w", err)
	}

	initLine := c.initLineFor(id, params.InitLine)
	result := &entity.StartSessionResult{Identity: id}

	echo := &outputEcho{}
	s, err := c.connect(ctx, cl, id, initLine, echo)
	result.Output = echo.close()
	if err != nil {
		if errors.IsDeclined(err) {
			result.Declined = true
			return result, nil
		}
		var failure *errors.InitFailure
		if stderrors.As(err, &failure) {
			result.Failure = mapper.InitFailureToInfo(failure)
			result.Output = append(result.Output, entity.OutputLine{Stream: entity.OutputStderr, Text: failure.Error()})
			return result, nil
		}
		return nil, err
	}

	if err := c.install(ctx, &entity.SessionEntry{
		Identity:  id,
		Session:   s,
		Client:    cl.UUID,
		InitLine:  initLine,
		WorkDir:   cl.WorkDir,
		StartedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	result.Started = true
	result.Output = append(result.Output, entity.OutputLine{Stream: entity.OutputStdout, Text: _doneMessage})
	return result, nil
}

// Eval evaluates a cell, reconnecting first if the identity has no running session.
func (c *controller) Eval(ctx context.Context, params *entity.EvalParams) (*entity.EvalResponse, error) {
	id, err := mapper.DocumentURIToIdentity(params.URI)
	if err != nil {
		return nil, err
	}

	s, err := c.ensureSession(ctx, id, params.InitLine)
	if err != nil {
		return nil, err
	}

	c.stats.Counter("evals").Inc(1)
	result, err := s.Eval(ctx, params.Code, mapper.MergeEvalArgs(params.Metadata, params.Args, params.HotReload))
	if err != nil {
		c.evictIfDead(ctx, id, s, err)
		return nil, err
	}
	return mapper.EvalResultToResponse(result), nil
}

// Autocomplete returns completions from the running session, or none if the identity has no running session.
func (c *controller) Autocomplete(ctx context.Context, params *entity.AutocompleteParams) ([]entity.CompletionItem, error) {
	id, err := mapper.DocumentURIToIdentity(params.URI)
	if err != nil {
		return nil, err
	}
	text, err := c.documentText(ctx, params.URI, params.Text)
	if err != nil {
		return nil, err
	}

	caret, word := params.Caret, params.Word
	if params.Position != nil {
		caret, word = mapper.PositionToCaret(text, *params.Position)
	}

	entry, err := c.sessions.Lookup(ctx, id)
	if err != nil || !entry.IsRunning() {
		return []entity.CompletionItem{}, nil
	}

	items, err := entry.Session.Autocomplete(ctx, text, caret, word)
	if err != nil {
		c.evictIfDead(ctx, id, entry.Session, err)
		return nil, err
	}
	if items == nil {
		items = []entity.CompletionItem{}
	}
	return items, nil
}

// Diagnostics returns the raw daemon diagnostics of a document, or none if the identity has no running session.
func (c *controller) Diagnostics(ctx context.Context, params *entity.DiagnosticsParams) ([]entity.Diagnostic, error) {
	id, err := mapper.DocumentURIToIdentity(params.URI)
	if err != nil {
		return nil, err
	}
	text, err := c.documentText(ctx, params.URI, params.Text)
	if err != nil {
		return nil, err
	}

	entry, err := c.sessions.Lookup(ctx, id)
	if err != nil || !entry.IsRunning() {
		return []entity.Diagnostic{}, nil
	}

	result, err := entry.Session.Diagnostics(ctx, text)
	if err != nil {
		c.evictIfDead(ctx, id, entry.Session, err)
		return nil, err
	}
	if result == nil {
		result = []entity.Diagnostic{}
	}
	return result, nil
}

// CloseSession evicts and disposes the session of a closed document.
func (c *controller) CloseSession(ctx context.Context, params *entity.CloseSessionParams) error {
	id, err := mapper.DocumentURIToIdentity(params.URI)
	if err != nil {
		return err
	}

	c.initLinesMu.Lock()
	delete(c.initLines, id)
	c.initLinesMu.Unlock()

	entry, err := c.sessions.Evict(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	c.logger.Infow("closing session", "identity", id)
	return c.dispose(entry)
}

// SessionStatus reports the state of a document's session without starting one.
func (c *controller) SessionStatus(ctx context.Context, params *entity.SessionStatusParams) (*entity.SessionStatusResult, error) {
	id, err := mapper.DocumentURIToIdentity(params.URI)
	if err != nil {
		return nil, err
	}

	result := &entity.SessionStatusResult{Identity: id}
	if entry, err := c.sessions.Lookup(ctx, id); err == nil {
		result.Running = entry.IsRunning()
		result.InitLine = entry.InitLine
	} else {
		c.initLinesMu.Lock()
		result.InitLine = c.initLines[id]
		c.initLinesMu.Unlock()
	}
	return result, nil
}

// ListProjects returns the loadable projects under the given root, or under the client's working directory.
func (c *controller) ListProjects(ctx context.Context, params *entity.ListProjectsParams) (*entity.ListProjectsResult, error) {
	root := params.Root
	if root == "" {
		cl, err := c.clients.GetFromContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting client from context: %w", err)
		}
		root = cl.WorkDir
	}

	projects, err := c.workspaceUtils.FindProjects(ctx, root)
	if err != nil {
		return nil, err
	}
	return &entity.ListProjectsResult{Projects: projects}, nil
}

// ensureSession returns the running session of an identity, connecting a new one if needed.
// Concurrent callers for one identity share a single handshake.
func (c *controller) ensureSession(ctx context.Context, id entity.Identity, initLine string) (entity.Session, error) {
	if entry, err := c.sessions.Lookup(ctx, id); err == nil && entry.IsRunning() {
		return entry.Session, nil
	}

	cl, err := c.clients.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting client from context: %w", err)
	}

	v, err, shared := c.connects.Do(string(id), func() (interface{}, error) {
		if entry, err := c.sessions.Lookup(ctx, id); err == nil && entry.IsRunning() {
			return entry.Session, nil
		}

		line := c.initLineFor(id, initLine)
		s, err := c.connect(ctx, cl, id, line, nil)
		if err != nil {
			return nil, err
		}
		if err := c.install(ctx, &entity.SessionEntry{
			Identity:  id,
			Session:   s,
			Client:    cl.UUID,
			InitLine:  line,
			WorkDir:   cl.WorkDir,
			StartedAt: time.Now(),
		}); err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debugw("joined in-flight session start", "identity", id)
	}
	return v.(entity.Session), nil
}

// connect performs a handshake. Failures are reported to the client's log surface before returning.
func (c *controller) connect(ctx context.Context, cl *entity.Client, id entity.Identity, initLine string, echo *outputEcho) (entity.Session, error) {
	clientCtx := context.WithValue(context.Background(), entity.ClientContextKey, cl.UUID)

	c.logger.Infow("starting fsix session", "identity", id, "initLine", initLine, "workDir", cl.WorkDir)
	s, err := c.connector.Connect(ctx, fsixdaemon.ConnectParams{
		Args:     mapper.InitLineToArgs(initLine),
		WorkDir:  cl.WorkDir,
		Prompter: c.ideGateway.InstallPrompter(ctx),
		OnLog:    c.logHandler(clientCtx, id, echo),
		Stderr:   io.MultiWriter(c.output, c.ideGateway.DaemonOutput(clientCtx, id)),
	})
	if err == nil {
		c.stats.Counter("sessions_started").Inc(1)
		return s, nil
	}

	if errors.IsDeclined(err) {
		c.stats.Counter("install_declined").Inc(1)
		c.logger.Infow("daemon install declined", "identity", id)
		return nil, err
	}

	c.stats.Counter("init_failures").Inc(1)
	message := fmt.Sprintf("Starting FsiX for %s failed: %s", id, err)
	var failure *errors.InitFailure
	if stderrors.As(err, &failure) && failure.Exception != nil {
		message = fmt.Sprintf("Starting FsiX for %s failed:\n%s", id, failure.Exception.Describe())
	}
	c.logger.Warnw("fsix initialization failed", "identity", id, "error", err)
	fmt.Fprintln(c.output, message)
	if logErr := c.ideGateway.LogMessage(clientCtx, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeError,
		Message: message,
	}); logErr != nil {
		c.logger.Debugw("reporting initialization failure", "error", logErr)
	}
	return nil, err
}

// install registers a handshake-completed session, disposes the one it supersedes and watches it for death.
func (c *controller) install(ctx context.Context, entry *entity.SessionEntry) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return multierr.Append(errors.ErrSessionNotRunning, entry.Session.Dispose())
	}
	c.wg.Add(1)
	c.mu.Unlock()

	prev, err := c.sessions.Assign(ctx, entry)
	if err != nil {
		c.wg.Done()
		return multierr.Append(err, entry.Session.Dispose())
	}
	if prev != nil && prev.Session != entry.Session {
		c.logger.Infow("replacing session", "identity", entry.Identity)
		if err := c.dispose(prev); err != nil {
			c.logger.Warnw("disposing replaced session", "identity", entry.Identity, "error", err)
		}
	}

	c.initLinesMu.Lock()
	c.initLines[entry.Identity] = entry.InitLine
	c.initLinesMu.Unlock()

	go c.watch(entry)
	return nil
}

// watch evicts and disposes a session once it dies, unless it was replaced or evicted first.
func (c *controller) watch(entry *entity.SessionEntry) {
	defer c.wg.Done()

	select {
	case <-entry.Session.Done():
	case <-c.stop:
		return
	}

	ctx := context.Background()
	evicted, err := c.sessions.EvictSession(ctx, entry.Identity, entry.Session)
	if err != nil {
		c.logger.Warnw("evicting dead session", "identity", entry.Identity, "error", err)
		return
	}
	if !evicted {
		return
	}

	c.stats.Counter("session_deaths").Inc(1)
	c.logger.Infow("fsix session died", "identity", entry.Identity)
	if err := c.dispose(entry); err != nil {
		c.logger.Debugw("disposing dead session", "identity", entry.Identity, "error", err)
	}
}

func (c *controller) evictIfDead(ctx context.Context, id entity.Identity, s entity.Session, err error) {
	if !errors.IsSessionDead(err) {
		return
	}
	if evicted, _ := c.sessions.EvictSession(ctx, id, s); evicted {
		c.logger.Infow("evicting dead session", "identity", id, "error", err)
		if err := s.Dispose(); err != nil {
			c.logger.Debugw("disposing dead session", "identity", id, "error", err)
		}
	}
}

func (c *controller) dispose(entry *entity.SessionEntry) error {
	if entry == nil || entry.Session == nil {
		return nil
	}
	if err := entry.Session.Dispose(); err != nil {
		return fmt.Errorf("disposing session %q: %w", entry.Identity, err)
	}
	return nil
}

// initLineFor picks the supplied init line, then the remembered one, then the no-project line.
func (c *controller) initLineFor(id entity.Identity, supplied string) string {
	if supplied != "" {
		return supplied
	}
	c.initLinesMu.Lock()
	defer c.initLinesMu.Unlock()
	if line, ok := c.initLines[id]; ok && line != "" {
		return line
	}
	return mapper.ProjectToInitLine("")
}

func (c *controller) logHandler(clientCtx context.Context, id entity.Identity, echo *outputEcho) fsixdaemon.LogHandler {
	return func(n entity.LogNotification) {
		echo.add(n)
		fmt.Fprintf(c.output, "[%s] %s: %s\n", n.Level, id, n.Message)
		if err := c.ideGateway.LogMessage(clientCtx, &protocol.LogMessageParams{
			Type:    mapper.LogLevelToMessageType(n.Level),
			Message: n.Message,
		}); err != nil {
			c.logger.Debugw("forwarding daemon log", "identity", id, "error", err)
		}
	}
}

// outputEcho collects the daemon logs received while an init cell runs.
type outputEcho struct {
	mu     sync.Mutex
	closed bool
	lines  []entity.OutputLine
}

func (e *outputEcho) add(n entity.LogNotification) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	stream := entity.OutputStdout
	if n.Level == entity.LogLevelError {
		stream = entity.OutputStderr
	}
	e.lines = append(e.lines, entity.OutputLine{Stream: stream, Text: n.Message})
}

func (e *outputEcho) close() []entity.OutputLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return append([]entity.OutputLine{}, e.lines...)
}
