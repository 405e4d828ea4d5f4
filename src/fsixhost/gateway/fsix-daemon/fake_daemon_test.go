package fsixdaemon

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/launcher"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
)

// fakeProcess stands in for a daemon process whose transport is an in-memory pipe.
type fakeProcess struct {
	pid    int
	remote net.Conn

	once sync.Once
	done chan struct{}
	mu   sync.Mutex
	code int
}

func newFakeProcess(remote net.Conn) *fakeProcess {
	return &fakeProcess{pid: 4242, remote: remote, done: make(chan struct{}), code: -1}
}

func (p *fakeProcess) exit(code int) {
	p.once.Do(func() {
		p.mu.Lock()
		p.code = code
		p.mu.Unlock()
		p.remote.Close()
		close(p.done)
	})
}

func (p *fakeProcess) Pid() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Err() error            { return nil }

func (p *fakeProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}

func (p *fakeProcess) Kill() error {
	p.exit(-1)
	return nil
}

// fakeDaemon is the daemon side of an in-memory transport.
type fakeDaemon struct {
	stream  jsonrpc2.Stream
	process *fakeProcess
	writeMu sync.Mutex
}

// fakeLauncher hands out one in-memory transport per Launch.
type fakeLauncher struct {
	launched chan *fakeDaemon
	err      error
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{launched: make(chan *fakeDaemon, 1)}
}

func (l *fakeLauncher) Launch(ctx context.Context, req launcher.Request) (*launcher.Transport, error) {
	if l.err != nil {
		return nil, l.err
	}
	local, remote := net.Pipe()
	proc := newFakeProcess(remote)
	l.launched <- &fakeDaemon{stream: jsonrpc2.NewStream(remote), process: proc}
	return &launcher.Transport{Conn: local, Process: proc}, nil
}

func (d *fakeDaemon) write(msg jsonrpc2.Message) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	_, err := d.stream.Write(context.Background(), msg)
	return err
}

func (d *fakeDaemon) notify(t *testing.T, method string, params interface{}) {
	n, err := jsonrpc2.NewNotification(method, params)
	require.NoError(t, err)
	require.NoError(t, d.write(n))
}

func (d *fakeDaemon) initialize(t *testing.T) {
	d.notify(t, entity.MethodInitialized, entity.InitializedParams{Case: entity.ResultCaseOk})
}

// readCall returns the next request, skipping notifications such as $/cancelRequest.
func (d *fakeDaemon) readCall() (*jsonrpc2.Call, error) {
	for {
		msg, _, err := d.stream.Read(context.Background())
		if err != nil {
			return nil, err
		}
		if call, ok := msg.(*jsonrpc2.Call); ok {
			return call, nil
		}
	}
}

func (d *fakeDaemon) reply(id jsonrpc2.ID, result interface{}, err error) error {
	resp, rerr := jsonrpc2.NewResponse(id, result, err)
	if rerr != nil {
		return rerr
	}
	return d.write(resp)
}

func remoteExceptionError(t *testing.T, exc entity.RemoteException) *jsonrpc2.Error {
	data, err := json.Marshal(exc)
	require.NoError(t, err)
	raw := json.RawMessage(data)
	return &jsonrpc2.Error{Code: -32000, Message: exc.Message, Data: &raw}
}
