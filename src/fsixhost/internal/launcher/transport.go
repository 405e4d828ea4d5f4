package launcher

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"go.uber.org/multierr"
)

// pipeConn joins the child's stdout and stdin into one duplex stream.
type pipeConn struct {
	r *os.File
	w *os.File

	once sync.Once
	err  error
}

func (c *pipeConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *pipeConn) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c *pipeConn) Close() error {
	c.once.Do(func() {
		c.err = multierr.Append(c.w.Close(), c.r.Close())
	})
	return c.err
}

func (l *launcher) startStdio(cmd *exec.Cmd) (*Transport, error) {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("creating stdout pipe: %w", err), closeAll(stdinR, stdinW))
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW

	if err := l.executor.Start(cmd); err != nil {
		return nil, multierr.Append(fmt.Errorf("starting %s: %w", cmd.Path, err), closeAll(stdinR, stdinW, stdoutR, stdoutW))
	}
	// The child holds its own copies now.
	_ = closeAll(stdinR, stdoutW)

	return &Transport{
		Conn:    &pipeConn{r: stdoutR, w: stdinW},
		Process: watch(cmd),
	}, nil
}

const _exitGrace = 500 * time.Millisecond

type lineResult struct {
	line string
	err  error
}

func (l *launcher) startSocket(ctx context.Context, cmd *exec.Cmd, sink io.Writer) (*Transport, error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	cmd.Stdout = stdoutW

	if err := l.executor.Start(cmd); err != nil {
		return nil, multierr.Append(fmt.Errorf("starting %s: %w", cmd.Path, err), closeAll(stdoutR, stdoutW))
	}
	_ = stdoutW.Close()
	proc := watch(cmd)

	abort := func(err error) (*Transport, error) {
		_ = proc.Kill()
		<-proc.Done()
		_ = stdoutR.Close()
		return nil, err
	}

	reader := bufio.NewReaderSize(stdoutR, l.cfg.MaxHandshakeLineBytes)
	lines := make(chan lineResult, 1)
	go func() {
		line, err := readHandshakeLine(reader, l.cfg.MaxHandshakeLineBytes)
		lines <- lineResult{line, err}
	}()

	timeout := time.Duration(l.cfg.HandshakeTimeoutSeconds) * time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// exited reaps a child that closed its stdout or died before the handshake finished.
	exited := func() (*Transport, error) {
		select {
		case <-proc.Done():
		case <-time.After(_exitGrace):
			_ = proc.Kill()
			<-proc.Done()
		}
		_ = stdoutR.Close()
		return nil, &errors.ProcessExitedError{Code: proc.ExitCode()}
	}

	var res lineResult
	select {
	case res = <-lines:
	case <-proc.Done():
		select {
		case res = <-lines:
		case <-time.After(_exitGrace):
			tr, err := exited()
			<-lines
			return tr, err
		}
	case <-timer.C:
		tr, err := abort(fmt.Errorf("waiting %s for the fsix daemon address", timeout))
		<-lines
		return tr, err
	case <-ctx.Done():
		tr, err := abort(ctx.Err())
		<-lines
		return tr, err
	}

	if res.err != nil {
		if stderrors.Is(res.err, io.EOF) {
			return exited()
		}
		return abort(res.err)
	}

	prefix, addr, err := parseEndpoint(res.line)
	if err != nil {
		return abort(err)
	}

	var dialer net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return abort(ctxErr)
		}
		select {
		case <-proc.Done():
			return exited()
		default:
		}
		return abort(fmt.Errorf("dialing fsix daemon at %s: %w", addr, err))
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	if sink == nil {
		sink = io.Discard
	}
	go func() {
		_, _ = io.Copy(sink, reader)
		_ = stdoutR.Close()
	}()

	l.logger.Debugw("fsix daemon endpoint", "prefix", prefix, "address", addr)
	return &Transport{Conn: conn, Process: proc}, nil
}

// readHandshakeLine reads one line of at most max bytes, newline included.
func readHandshakeLine(r *bufio.Reader, max int) (string, error) {
	line, err := r.ReadSlice('\n')
	switch {
	case stderrors.Is(err, bufio.ErrBufferFull) || (err == nil && len(line) > max):
		return "", &errors.ProtocolViolationError{Reason: fmt.Sprintf("handshake line exceeds %d bytes", max)}
	case err != nil:
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

// parseEndpoint splits "<prefix>:<host>:<port>". The prefix ends at the first colon and the port starts after the last one,
// so IPv6 hosts keep their inner colons.
func parseEndpoint(line string) (prefix string, addr string, err error) {
	line = strings.TrimSpace(line)
	first := strings.Index(line, ":")
	last := strings.LastIndex(line, ":")
	if first <= 0 || first == last {
		return "", "", &errors.ProtocolViolationError{Reason: fmt.Sprintf("malformed handshake line %q", line)}
	}

	prefix = line[:first]
	host := strings.TrimSuffix(strings.TrimPrefix(line[first+1:last], "["), "]")
	port := line[last+1:]
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", "", &errors.ProtocolViolationError{Reason: fmt.Sprintf("invalid port in handshake line %q", line)}
	}
	if host == "" {
		return "", "", &errors.ProtocolViolationError{Reason: fmt.Sprintf("missing host in handshake line %q", line)}
	}
	return prefix, net.JoinHostPort(host, port), nil
}

func closeAll(files ...*os.File) error {
	var err error
	for _, f := range files {
		err = multierr.Append(err, f.Close())
	}
	return err
}
