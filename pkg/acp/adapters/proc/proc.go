// Package proc spawns an agent (or client) subprocess and exposes its stdio
// pipes as the duplex byte stream an ACP connection consumes.
package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// ErrProcessDied reports that the subprocess exited while the adapter was
// still in use.
var ErrProcessDied = errors.New("proc: process died")

// Adapter owns one subprocess and implements io.ReadWriteCloser over its
// pipes: Write feeds the child's stdin, Read drains its stdout. The child's
// stderr passes through to this process unless redirected with WithStderr.
type Adapter struct {
	command string
	args    []string
	env     []string
	dir     string
	stderr  io.Writer

	mu      sync.RWMutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	ready   bool
	exitErr error
}

// AdapterOption configures the subprocess before Start.
type AdapterOption func(*Adapter)

// WithEnv appends environment entries to the child's inherited environment.
func WithEnv(env map[string]string) AdapterOption {
	return func(a *Adapter) {
		for name, value := range env {
			a.env = append(a.env, name+"="+value)
		}
	}
}

// WithDir sets the child's working directory.
func WithDir(dir string) AdapterOption {
	return func(a *Adapter) {
		a.dir = dir
	}
}

// WithStderr redirects the child's stderr.
func WithStderr(w io.Writer) AdapterOption {
	return func(a *Adapter) {
		a.stderr = w
	}
}

// New prepares an adapter for the given command. Start must be called
// before any I/O.
func New(command string, args []string, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		command: command,
		args:    args,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start launches the subprocess and wires up its pipes.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready {
		return errors.New("proc: already started")
	}

	cmd := exec.Command(a.command, a.args...)
	cmd.Env = append(os.Environ(), a.env...)
	cmd.Dir = a.dir
	cmd.Stderr = a.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("proc: stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("proc: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("proc: start %s: %w", a.command, err)
	}

	a.cmd = cmd
	a.stdin = stdin
	a.stdout = stdout
	a.ready = true

	go a.monitor()

	return nil
}

// monitor waits for the subprocess and records its exit status so later
// writes fail with a useful error instead of a broken pipe.
func (a *Adapter) monitor() {
	err := a.cmd.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.ready = false
	if err != nil {
		a.exitErr = fmt.Errorf("%w: %v", ErrProcessDied, err)
	}
}

// Read drains the child's stdout.
func (a *Adapter) Read(p []byte) (int, error) {
	a.mu.RLock()
	stdout := a.stdout
	a.mu.RUnlock()

	if stdout == nil {
		return 0, errors.New("proc: not started")
	}

	return stdout.Read(p)
}

// Write feeds the child's stdin.
func (a *Adapter) Write(p []byte) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.stdin == nil {
		return 0, errors.New("proc: not started")
	}
	if a.exitErr != nil {
		return 0, a.exitErr
	}

	return a.stdin.Write(p)
}

// IsReady reports whether the subprocess is running.
func (a *Adapter) IsReady() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.ready
}

// Close shuts the subprocess down: stdin is closed to signal EOF, then the
// process is killed if still running.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ready = false

	if a.stdin != nil {
		_ = a.stdin.Close()
	}

	if a.cmd != nil && a.cmd.Process != nil && a.exitErr == nil {
		_ = a.cmd.Process.Kill()
	}

	return nil
}
