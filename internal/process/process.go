// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具
//
// Package process wraps exec.Cmd for controlling a single SoX child process.

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

var (
	ErrNoBinary       = errors.New("no valid binary given")
	ErrAlreadyStarted = errors.New("process already started")
	ErrDisposed       = errors.New("process handle disposed")
)

// Config for a process handle
type Config struct {
	Binary string
	// Dir is the working directory of the child. Empty means the current one.
	Dir string
	// Env replaces the child environment when non-nil.
	Env []string
	// WaitDelay bounds how long output pipes may stay open after the child
	// exited (e.g. held by a grandchild). Defaults to 2s.
	WaitDelay time.Duration
	// OnLine is called for every line read from stdout or stderr. It runs on
	// the copying goroutine of the stream; the two streams call it concurrently.
	OnLine  func(Line)
	OnExit  func(exitCode int)
	Sampler Sampler
	Logger  Logger
}

// Status of a process
type Status struct {
	State    string
	Pid      int
	ExitCode int
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

// Logger interface
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type stateType string

const (
	stateCreated stateType = "created"
	stateStarted stateType = "started"
	stateRunning stateType = "running"
	stateExited  stateType = "exited"
	stateKilled  stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarted || s == stateRunning
}

// Handle owns one spawned child process. All methods are safe for
// concurrent use; Kill and Dispose may be called from an OnLine callback.
type Handle struct {
	binary    string
	dir       string
	env       []string
	waitDelay time.Duration
	args      []string

	cmd      *exec.Cmd
	pid      int
	exitCode int
	killed   bool
	disposed bool
	stdout   *lineWriter
	stderr   *lineWriter

	state struct {
		state stateType
		time  time.Time
	}
	lock sync.Mutex

	done        chan struct{}
	disposeOnce sync.Once

	onLine  func(Line)
	onExit  func(int)
	sampler Sampler
	logger  Logger
}

// New creates a handle for binary. Nothing is spawned until Start.
func New(config Config) (*Handle, error) {
	if len(config.Binary) == 0 {
		return nil, ErrNoBinary
	}

	h := &Handle{
		binary:    config.Binary,
		dir:       config.Dir,
		env:       config.Env,
		waitDelay: config.WaitDelay,
		exitCode:  -1,
		done:      make(chan struct{}),
		onLine:    config.OnLine,
		onExit:    config.OnExit,
		sampler:   config.Sampler,
		logger:    config.Logger,
	}

	if h.waitDelay <= 0 {
		h.waitDelay = 2 * time.Second
	}
	if h.onLine == nil {
		h.onLine = func(Line) {}
	}
	if h.sampler == nil {
		h.sampler = NewNullSampler()
	}
	if h.logger == nil {
		h.logger = &nopLogger{}
	}

	h.setState(stateCreated)
	return h, nil
}

func (h *Handle) setState(state stateType) {
	h.state.state = state
	h.state.time = time.Now()
}

// Start spawns the child with args. Both output streams are redirected and
// read line by line until the child exits.
func (h *Handle) Start(args []string) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.disposed {
		return ErrDisposed
	}
	if h.state.state != stateCreated {
		return ErrAlreadyStarted
	}
	h.setState(stateStarted)
	h.args = append([]string(nil), args...)

	cmd := exec.Command(h.binary, h.args...)
	cmd.Dir = h.dir
	cmd.Env = h.env
	cmd.WaitDelay = h.waitDelay
	hideWindow(cmd)

	h.stdout = newLineWriter(Stdout, h.onLine)
	h.stderr = newLineWriter(Stderr, h.onLine)
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr

	if err := cmd.Start(); err != nil {
		h.setState(stateExited)
		close(h.done)
		return fmt.Errorf("start %s: %w", h.binary, err)
	}

	h.cmd = cmd
	h.pid = cmd.Process.Pid
	if err := h.sampler.Start(h.pid); err != nil {
		h.logger.Debug("sampler for pid %d: %v", h.pid, err)
	}
	h.setState(stateRunning)

	go h.waiter()
	return nil
}

func (h *Handle) waiter() {
	err := h.cmd.Wait()
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.logger.Error("wait for %s: %v", h.binary, err)
		}
	}

	h.stdout.flush()
	h.stderr.flush()
	h.sampler.Stop()

	h.lock.Lock()
	if h.cmd.ProcessState != nil {
		h.exitCode = h.cmd.ProcessState.ExitCode()
		// the signal reached a child that had already exited on its own
		if h.killed && exitedNormally(h.cmd.ProcessState) {
			h.killed = false
		}
	}
	if h.killed {
		h.setState(stateKilled)
	} else {
		h.setState(stateExited)
	}
	code := h.exitCode
	h.lock.Unlock()

	close(h.done)

	if h.onExit != nil {
		h.onExit(code)
	}
}

// Done is closed once the child has exited and its output has been consumed.
// For a handle that was never started it is only closed by a failed Start.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// WaitForExit blocks until the child exits or timeout elapses and reports
// whether it exited. A timeout <= 0 waits indefinitely. A handle that was
// never started reports true.
func (h *Handle) WaitForExit(timeout time.Duration) bool {
	h.lock.Lock()
	created := h.state.state == stateCreated
	h.lock.Unlock()
	if created {
		return true
	}

	if timeout <= 0 {
		<-h.done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	}
}

// Kill forcibly terminates a live child. It is a no-op when no child is
// running, including after the child already exited.
func (h *Handle) Kill() error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if !h.state.state.IsRunning() || h.cmd == nil {
		return nil
	}

	if err := h.cmd.Process.Kill(); err != nil {
		// already reaped, the exit stands
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("kill pid %d: %w", h.pid, err)
	}
	h.killed = true
	h.setState(stateKilled)
	return nil
}

// Dispose kills a live child and marks the handle unusable. It is safe to
// call any number of times from any goroutine; the release runs once. The
// child is reaped asynchronously, so Dispose never blocks on output readers.
func (h *Handle) Dispose() {
	h.disposeOnce.Do(func() {
		if err := h.Kill(); err != nil {
			h.logger.Error("dispose: %v", err)
		}
		h.lock.Lock()
		h.disposed = true
		h.lock.Unlock()
	})
}

// Disposed reports whether Dispose has run.
func (h *Handle) Disposed() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.disposed
}

// ExitCode returns the exit code of the child, or -1 while it is running,
// was never started or was terminated by a signal.
func (h *Handle) ExitCode() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.exitCode
}

// Killed reports whether the child was terminated through Kill.
func (h *Handle) Killed() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.killed
}

// IsRunning reports whether the child is live.
func (h *Handle) IsRunning() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state.state.IsRunning()
}

// Args returns the arguments the child was started with.
func (h *Handle) Args() []string {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]string(nil), h.args...)
}

func (h *Handle) Status() Status {
	cpu, memory := h.sampler.Current()

	h.lock.Lock()
	defer h.lock.Unlock()

	return Status{
		State:    h.state.state.String(),
		Pid:      h.pid,
		ExitCode: h.exitCode,
		Duration: time.Since(h.state.time),
		Time:     h.state.time,
		CPU:      cpu,
		Memory:   memory,
	}
}

type nopLogger struct{}

func (l *nopLogger) Debug(format string, args ...interface{}) {}
func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Warn(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
