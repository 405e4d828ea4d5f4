// Package rpcchannel correlates JSON-RPC requests and responses over a single daemon transport.
package rpcchannel

import (
	"context"
	"encoding/json"
	stderr "errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// _maxCancelled bounds how many abandoned request ids are remembered. A response to an older one is a protocol violation.
const _maxCancelled = 1024

// NotificationHandler receives the params of an inbound notification.
// Handlers run on the read loop and must not block or close the channel.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger used for dropped and unhandled messages.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithStats sets the scope that channel metrics are reported to.
func WithStats(stats tally.Scope) Option {
	return func(c *Channel) {
		c.stats = stats
	}
}

// Channel multiplexes concurrent requests over one Content-Length framed stream.
type Channel struct {
	stream jsonrpc2.Stream
	logger *zap.SugaredLogger
	stats  tally.Scope

	writeMu sync.Mutex
	seq     atomic.Int32

	mu          sync.Mutex
	pending     map[jsonrpc2.ID]chan *jsonrpc2.Response
	cancelled   map[jsonrpc2.ID]struct{}
	cancelOrder []jsonrpc2.ID
	handlers    map[string]NotificationHandler
	err         error

	done       chan struct{}
	listenOnce sync.Once
	failOnce   sync.Once
	wg         sync.WaitGroup
}

// New wraps a duplex transport. Call Listen to start reading.
func New(conn io.ReadWriteCloser, opts ...Option) *Channel {
	c := &Channel{
		stream:    jsonrpc2.NewStream(conn),
		logger:    zap.NewNop().Sugar(),
		stats:     tally.NoopScope,
		pending:   make(map[jsonrpc2.ID]chan *jsonrpc2.Response),
		cancelled: make(map[jsonrpc2.ID]struct{}),
		handlers:  make(map[string]NotificationHandler),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnNotification registers the handler for an inbound notification method, replacing any previous one.
func (c *Channel) OnNotification(method string, handler NotificationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = handler
}

// Listen starts the read loop. Subsequent calls are no-ops.
func (c *Channel) Listen(ctx context.Context) {
	c.listenOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.err != nil {
			return
		}
		c.wg.Add(1)
		go c.readLoop(ctx)
	})
}

// Done is closed once the channel has failed or been closed.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the channel stopped, or nil while it is usable.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// PendingCount returns the number of requests awaiting a response.
func (c *Channel) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close stops the channel, fails pending requests with ErrChannelClosed and waits for its goroutines.
func (c *Channel) Close() error {
	return c.Abort(errors.ErrChannelClosed)
}

// Abort stops the channel like Close, but pending and later requests fail with err.
// It has no effect on the reported error if the channel already stopped.
func (c *Channel) Abort(err error) error {
	c.fail(err)
	c.wg.Wait()
	return nil
}

// Call sends a request and waits for its response, decoding the result into result when it is non-nil.
// If ctx is done first, a cancellation notice is sent to the peer and ctx.Err() is returned without waiting.
func (c *Channel) Call(ctx context.Context, method string, params, result interface{}) error {
	id := jsonrpc2.NewNumberID(c.seq.Add(1))
	call, err := jsonrpc2.NewCall(id, method, params)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	rchan := make(chan *jsonrpc2.Response, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return c.err
	}
	c.pending[id] = rchan
	c.updatePendingLocked()
	c.mu.Unlock()
	c.stats.Counter("calls").Inc(1)

	if err := c.write(ctx, call); err != nil {
		c.forget(id)
		c.stats.Counter("call_errors").Inc(1)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		transportErr := &errors.TransportError{Op: "write", Err: err}
		c.fail(transportErr)
		return transportErr
	}

	select {
	case resp := <-rchan:
		return c.decode(method, resp, result)
	case <-ctx.Done():
		if c.abandon(id) {
			c.sendCancel(id)
			return ctx.Err()
		}
		// Either the response won the race and is buffered, or the channel failed.
		select {
		case resp := <-rchan:
			return c.decode(method, resp, result)
		case <-c.done:
			return c.Err()
		}
	case <-c.done:
		select {
		case resp := <-rchan:
			return c.decode(method, resp, result)
		default:
		}
		c.stats.Counter("call_errors").Inc(1)
		return c.Err()
	}
}

// Notify sends a notification.
func (c *Channel) Notify(ctx context.Context, method string, params interface{}) error {
	if err := c.Err(); err != nil {
		return err
	}
	n, err := jsonrpc2.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("encoding %s notification: %w", method, err)
	}
	if err := c.write(ctx, n); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		transportErr := &errors.TransportError{Op: "write", Err: err}
		c.fail(transportErr)
		return transportErr
	}
	return nil
}

func (c *Channel) write(ctx context.Context, msg jsonrpc2.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.stream.Write(ctx, msg)
	return err
}

func (c *Channel) decode(method string, resp *jsonrpc2.Response, result interface{}) error {
	if err := resp.Err(); err != nil {
		c.stats.Counter("call_errors").Inc(1)
		return err
	}
	if result == nil || len(resp.Result()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result(), result); err != nil {
		c.stats.Counter("call_errors").Inc(1)
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

func (c *Channel) forget(id jsonrpc2.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
	c.updatePendingLocked()
}

// abandon drops a pending request and remembers its id so a late response is not a protocol violation.
// It returns false if the request is no longer pending.
func (c *Channel) abandon(id jsonrpc2.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)
	c.cancelled[id] = struct{}{}
	c.cancelOrder = append(c.cancelOrder, id)
	if len(c.cancelOrder) > _maxCancelled {
		delete(c.cancelled, c.cancelOrder[0])
		c.cancelOrder = c.cancelOrder[1:]
	}
	c.updatePendingLocked()
	return true
}

func (c *Channel) sendCancel(id jsonrpc2.ID) {
	c.stats.Counter("cancellations").Inc(1)

	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if err := c.Notify(context.Background(), protocol.MethodCancelRequest, &protocol.CancelParams{ID: &id}); err != nil {
			c.logger.Debugf("sending cancellation for request %v: %s", id, err)
		}
	}()
}

func (c *Channel) readLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		msg, _, err := c.stream.Read(ctx)
		if err != nil {
			c.fail(c.readError(ctx, err))
			return
		}

		switch m := msg.(type) {
		case *jsonrpc2.Response:
			c.resolve(m)
		case *jsonrpc2.Notification:
			c.dispatch(ctx, m)
		case *jsonrpc2.Call:
			c.replyMethodNotFound(ctx, m)
		}
	}
}

func (c *Channel) readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.ErrChannelClosed
	}

	var opErr *net.OpError
	if stderr.Is(err, io.EOF) ||
		stderr.Is(err, io.ErrUnexpectedEOF) ||
		stderr.Is(err, io.ErrClosedPipe) ||
		stderr.Is(err, net.ErrClosed) ||
		stderr.Is(err, os.ErrClosed) ||
		stderr.As(err, &opErr) {
		return &errors.TransportError{Op: "read", Err: err}
	}

	c.stats.Counter("protocol_violations").Inc(1)
	return &errors.ProtocolViolationError{Reason: err.Error()}
}

func (c *Channel) resolve(resp *jsonrpc2.Response) {
	id := resp.ID()

	c.mu.Lock()
	rchan, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		c.updatePendingLocked()
		rchan <- resp
		c.mu.Unlock()
		return
	}
	if _, wasCancelled := c.cancelled[id]; wasCancelled {
		delete(c.cancelled, id)
		c.mu.Unlock()
		c.logger.Debugf("dropping response to cancelled request %v", id)
		return
	}
	c.mu.Unlock()

	c.stats.Counter("protocol_violations").Inc(1)
	c.fail(&errors.ProtocolViolationError{Reason: "response to unknown request", ID: fmt.Sprintf("%v", id)})
}

func (c *Channel) dispatch(ctx context.Context, n *jsonrpc2.Notification) {
	c.mu.Lock()
	handler, ok := c.handlers[n.Method()]
	c.mu.Unlock()

	if !ok {
		c.logger.Debugf("no handler for notification %q", n.Method())
		return
	}
	handler(ctx, n.Params())
}

func (c *Channel) replyMethodNotFound(ctx context.Context, call *jsonrpc2.Call) {
	resp, err := jsonrpc2.NewResponse(call.ID(), nil, jsonrpc2.ErrMethodNotFound)
	if err != nil {
		return
	}
	if err := c.write(ctx, resp); err != nil {
		c.logger.Debugf("replying to %q: %s", call.Method(), err)
	}
}

// fail records the first terminal error, resolves every pending request with it and closes the stream.
func (c *Channel) fail(err error) {
	c.failOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.pending = make(map[jsonrpc2.ID]chan *jsonrpc2.Response)
		c.cancelled = make(map[jsonrpc2.ID]struct{})
		c.cancelOrder = nil
		c.updatePendingLocked()
		close(c.done)
		c.mu.Unlock()

		if closeErr := c.stream.Close(); closeErr != nil {
			c.logger.Debugf("closing stream: %s", closeErr)
		}
	})
}

func (c *Channel) updatePendingLocked() {
	c.stats.Gauge("pending_calls").Update(float64(len(c.pending)))
}
