// Package diagnostics recomputes and publishes whole-document diagnostics as cells are edited.
package diagnostics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	ideclient "github.com/fsixnotebook/fsix-host/src/fsixhost/gateway/ide-client"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/repository/session"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=diagnosticsmock/diagnostics_mock.go -package=diagnosticsmock . Controller

const (
	_nameKey         = "diagnostics"
	_debounceMsKey   = "diagnostics.debounceMs"
	_defaultDebounce = 300 * time.Millisecond
)

// Controller defines the interface for the diagnostics controller.
type Controller interface {
	// Schedule (re)starts the debounce timer for a document. Only the latest text for a document is ever published.
	Schedule(ctx context.Context, docURI uri.URI, text string) error
	// Clear drops any pending run for a document and publishes an empty diagnostic set.
	Clear(ctx context.Context, docURI uri.URI) error
	// EndClient drops every pending run of a disconnected client.
	EndClient(ctx context.Context, client uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Sessions   session.Registry
	IdeGateway ideclient.Gateway
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Config     config.Provider
	Lifecycle  fx.Lifecycle
}

type documentKey struct {
	client uuid.UUID
	doc    uri.URI
}

type pendingRun struct {
	timer      *time.Timer
	cancel     context.CancelFunc
	generation uint64
}

type controller struct {
	sessions   session.Registry
	ideGateway ideclient.Gateway
	logger     *zap.SugaredLogger
	stats      tally.Scope
	debounce   time.Duration

	mu          sync.Mutex
	pending     map[documentKey]*pendingRun
	generations map[documentKey]uint64
	stopped     bool
	wg          sync.WaitGroup

	// publishMu orders the generation check with the publish call.
	publishMu sync.Mutex
}

// New creates a new controller for diagnostics.
func New(p Params) (Controller, error) {
	debounce := _defaultDebounce
	if v := p.Config.Get(_debounceMsKey); v.HasValue() {
		var ms int64
		if err := v.Populate(&ms); err != nil {
			return nil, fmt.Errorf("getting config field %q: %w", _debounceMsKey, err)
		}
		if ms >= 0 {
			debounce = time.Duration(ms) * time.Millisecond
		}
	}

	c := &controller{
		sessions:    p.Sessions,
		ideGateway:  p.IdeGateway,
		logger:      p.Logger.With("plugin", _nameKey),
		stats:       p.Stats.SubScope(_nameKey),
		debounce:    debounce,
		pending:     make(map[documentKey]*pendingRun),
		generations: make(map[documentKey]uint64),
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.stop()
			return nil
		},
	})
	return c, nil
}

func (c *controller) Schedule(ctx context.Context, docURI uri.URI, text string) error {
	client, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return err
	}
	key := documentKey{client: client, doc: docURI}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil
	}

	c.cancelLocked(key)
	c.generations[key]++
	generation := c.generations[key]

	runCtx, cancel := context.WithCancel(context.WithValue(context.Background(), entity.ClientContextKey, client))
	run := &pendingRun{cancel: cancel, generation: generation}
	c.wg.Add(1)
	run.timer = time.AfterFunc(c.debounce, func() {
		defer c.wg.Done()
		defer cancel()
		c.run(runCtx, key, generation, text)
	})
	c.pending[key] = run
	return nil
}

func (c *controller) Clear(ctx context.Context, docURI uri.URI) error {
	client, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return err
	}
	key := documentKey{client: client, doc: docURI}

	c.mu.Lock()
	c.cancelLocked(key)
	delete(c.generations, key)
	c.mu.Unlock()

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	return c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (c *controller) EndClient(ctx context.Context, client uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.generations {
		if key.client != client {
			continue
		}
		c.cancelLocked(key)
		delete(c.generations, key)
	}
	return nil
}

// cancelLocked stops a pending run for key. The caller must hold mu.
func (c *controller) cancelLocked(key documentKey) {
	run, ok := c.pending[key]
	if !ok {
		return
	}
	delete(c.pending, key)
	if run.timer.Stop() {
		run.cancel()
		c.wg.Done()
		return
	}
	// Already firing: the run exits early on the cancelled context or the generation check.
	run.cancel()
}

func (c *controller) current(key documentKey, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped && c.generations[key] == generation
}

func (c *controller) run(ctx context.Context, key documentKey, generation uint64, text string) {
	defer func() {
		c.mu.Lock()
		if run, ok := c.pending[key]; ok && run.generation == generation {
			delete(c.pending, key)
		}
		c.mu.Unlock()
	}()

	if !c.current(key, generation) {
		c.stats.Counter("stale").Inc(1)
		return
	}

	id, err := mapper.DocumentURIToIdentity(key.doc)
	if err != nil {
		c.logger.Debugw("skipping diagnostics", "uri", key.doc, "error", err)
		return
	}
	entry, err := c.sessions.Lookup(ctx, id)
	if err != nil || !entry.IsRunning() {
		return
	}

	c.stats.Counter("runs").Inc(1)
	result, err := entry.Session.Diagnostics(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warnw("computing diagnostics", "uri", key.doc, "error", err)
		}
		return
	}

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if !c.current(key, generation) {
		c.stats.Counter("stale").Inc(1)
		return
	}

	c.logger.Debugf("publishing %d diagnostics for %s", len(result), key.doc)
	if err := c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         key.doc,
		Diagnostics: mapper.DiagnosticsToProtocol(result),
	}); err != nil {
		c.logger.Errorf("publishing diagnostics for %s: %s", key.doc, err)
		return
	}
	c.stats.Counter("reported").Inc(int64(len(result)))
}

func (c *controller) stop() {
	c.mu.Lock()
	c.stopped = true
	for key := range c.pending {
		c.cancelLocked(key)
	}
	c.mu.Unlock()

	c.wg.Wait()
}
