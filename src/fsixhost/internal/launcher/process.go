package launcher

import (
	stderrors "errors"
	"os"
	"os/exec"
	"sync"
)

// Process is a started daemon process.
type Process interface {
	Pid() int
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
	// ExitCode is valid after Done is closed. It is -1 if the process was killed by a signal.
	ExitCode() int
	// Err is the error returned by waiting on the process, valid after Done is closed.
	Err() error
	// Kill terminates the process. Killing an exited process is not an error.
	Kill() error
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu       sync.Mutex
	exitCode int
	err      error
}

// watch reaps cmd, which must already be started.
func watch(cmd *exec.Cmd) *process {
	p := &process{
		cmd:      cmd,
		done:     make(chan struct{}),
		exitCode: -1,
	}
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.err = err
		if cmd.ProcessState != nil {
			p.exitCode = cmd.ProcessState.ExitCode()
		}
		p.mu.Unlock()
		close(p.done)
	}()
	return p
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Done() <-chan struct{} {
	return p.done
}

func (p *process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *process) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
