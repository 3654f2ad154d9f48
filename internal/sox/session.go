// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package sox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/process"
	"github.com/ZSC714725/soxmanager/internal/sox/options"
	"github.com/ZSC714725/soxmanager/internal/sox/parse"
)

// SessionConfig for a processing session
type SessionConfig struct {
	// Global replaces the global options of the Sox instance when set.
	Global  *options.Global
	Effects []options.Effect
	// CustomEffects is appended after Effects, split on whitespace.
	CustomEffects string
	// OnProgress is called for every progress line. Without it progress
	// lines are not parsed. Callbacks for stdout and stderr may run
	// concurrently.
	OnProgress func(*ProgressEvent)
	OnLog      func(LogEvent)
	Logger     logger.Logger
}

// Result of a finished run
type Result struct {
	ExitCode    int           `json:"exit_code"`
	CommandLine string        `json:"command_line"`
	Duration    time.Duration `json:"duration"`
}

type sessionState string

const (
	sessionIdle      sessionState = "idle"
	sessionBuilding  sessionState = "building"
	sessionRunning   sessionState = "running"
	sessionSucceeded sessionState = "succeeded"
	sessionFailed    sessionState = "failed"
	sessionAborted   sessionState = "aborted"
)

// Session runs SoX over a set of inputs, one run at a time.
type Session struct {
	sox        *sox
	global     options.Global
	effects    []options.Effect
	custom     []string
	onProgress func(*ProgressEvent)
	onLog      func(LogEvent)
	logger     logger.Logger

	run sync.Mutex

	lock        sync.Mutex
	state       sessionState
	handle      *process.Handle
	failure     *parse.LogLine
	protocolErr error
	aborted     bool
	commandLine string
	status      process.Status
}

func (s *sox) NewSession(config SessionConfig) *Session {
	sess := &Session{
		sox:        s,
		global:     s.global,
		effects:    config.Effects,
		custom:     strings.Fields(config.CustomEffects),
		onProgress: config.OnProgress,
		onLog:      config.OnLog,
		logger:     config.Logger,
		state:      sessionIdle,
	}
	if config.Global != nil {
		sess.global = *config.Global
	}
	if sess.logger == nil {
		sess.logger = s.logger
	}
	return sess
}

// Args builds the argument vector of a run: global options, progress flag,
// combination mode, inputs, output or the null placeholder, then effects.
func (s *Session) Args(inputs []options.InputFile, output *options.OutputFile, mode options.CombinationMode) ([]string, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	args := s.global.Args()
	args = append(args, "--show-progress")
	args = append(args, mode.Args()...)

	for _, in := range inputs {
		if in.Path != "" && !s.sox.ValidateInput(in.Path) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, in.Path)
		}
		args = append(args, in.Args()...)
	}

	if output != nil {
		if output.Path != "" && !s.sox.ValidateOutput(output.Path) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOutput, output.Path)
		}
		args = append(args, output.Args()...)
	} else {
		args = append(args, options.NullOutput()...)
	}

	for _, e := range s.effects {
		if err := s.sox.ValidateEffect(e.Name()); err != nil {
			return nil, err
		}
		effectArgs, err := options.EffectArgs(e)
		if err != nil {
			return nil, err
		}
		args = append(args, effectArgs...)
	}

	return append(args, s.custom...), nil
}

// Process runs SoX and blocks until it exits. A FAIL line reported by SoX
// makes the run fail with a *ProcessingError (or *InvalidArgumentError)
// carrying the first such line. Without a FAIL line the run succeeds
// whatever the exit code; the code is returned in the Result. Cancelling
// ctx, calling Abort or setting ProgressEvent.Abort returns ErrAborted.
func (s *Session) Process(ctx context.Context, inputs []options.InputFile, output *options.OutputFile, mode options.CombinationMode) (Result, error) {
	if !s.run.TryLock() {
		return Result{}, ErrSessionBusy
	}
	defer s.run.Unlock()

	s.lock.Lock()
	s.state = sessionBuilding
	s.failure = nil
	s.protocolErr = nil
	s.aborted = false
	s.status = process.Status{}
	s.lock.Unlock()

	args, err := s.Args(inputs, output, mode)
	if err != nil {
		s.setState(sessionFailed)
		return Result{}, err
	}

	patterns := s.sox.patterns()
	h, err := process.New(process.Config{
		Binary:  s.sox.binary,
		Dir:     s.sox.dir,
		OnLine:  func(l process.Line) { s.handleLine(patterns, l) },
		Sampler: s.sox.newSampler(),
		Logger:  s.logger,
	})
	if err != nil {
		s.setState(sessionFailed)
		return Result{}, err
	}

	res := Result{ExitCode: -1, CommandLine: options.CommandLine(s.sox.binary, args)}

	s.lock.Lock()
	s.handle = h
	s.commandLine = res.CommandLine
	s.state = sessionRunning
	s.lock.Unlock()
	defer s.release(h)

	s.logger.Debug("running %s", res.CommandLine)
	start := time.Now()

	if err := h.Start(args); err != nil {
		if errors.Is(err, process.ErrDisposed) {
			s.setState(sessionAborted)
			return res, ErrAborted
		}
		s.setState(sessionFailed)
		return res, err
	}

	select {
	case <-h.Done():
	case <-ctx.Done():
		s.Abort()
		<-h.Done()
	}

	res.ExitCode = h.ExitCode()
	res.Duration = time.Since(start)

	s.lock.Lock()
	failure, protocolErr, aborted := s.failure, s.protocolErr, s.aborted
	s.lock.Unlock()

	switch {
	case failure != nil:
		s.setState(sessionFailed)
		return res, newProcessingError(failure.Source, failure.Message)
	case protocolErr != nil:
		s.setState(sessionFailed)
		return res, protocolErr
	case aborted && h.Killed():
		s.setState(sessionAborted)
		if ctx.Err() != nil {
			return res, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		return res, ErrAborted
	}

	if res.ExitCode != 0 {
		s.logger.Warn("sox exited with code %d without reporting a failure: %s", res.ExitCode, res.CommandLine)
	}
	s.setState(sessionSucceeded)
	return res, nil
}

// Abort kills the running process, if any. It is safe to call at any time
// from any goroutine, including from the progress and log callbacks.
func (s *Session) Abort() {
	s.lock.Lock()
	h := s.handle
	if h != nil {
		s.aborted = true
	}
	s.lock.Unlock()

	if h != nil {
		h.Dispose()
	}
}

// LastCommandLine returns the command line of the most recent run.
func (s *Session) LastCommandLine() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.commandLine
}

// State returns the state of the session: idle, building, running,
// succeeded, failed or aborted.
func (s *Session) State() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return string(s.state)
}

// Status returns the process status of the running or last run.
func (s *Session) Status() process.Status {
	s.lock.Lock()
	h := s.handle
	status := s.status
	s.lock.Unlock()

	if h != nil {
		return h.Status()
	}
	return status
}

func (s *Session) setState(state sessionState) {
	s.lock.Lock()
	s.state = state
	s.lock.Unlock()
}

// release disposes h and drops it from the session.
func (s *Session) release(h *process.Handle) {
	status := h.Status()
	h.Dispose()

	s.lock.Lock()
	if s.handle == h {
		s.handle = nil
	}
	s.status = status
	s.lock.Unlock()
}

func (s *Session) handleLine(patterns *parse.PatternSet, line process.Line) {
	if s.onProgress != nil {
		prog, ok, err := patterns.ParseProgress(line.Data)
		if ok {
			if err != nil {
				s.progressError(line.Data, err)
				return
			}
			event := &ProgressEvent{
				Percent:    prog.Percent,
				Processed:  prog.Processed,
				Remaining:  prog.Remaining,
				OutputSize: prog.OutputSize,
			}
			s.onProgress(event)
			if event.Abort {
				s.Abort()
			}
			return
		}
	}

	l, ok := patterns.ParseLog(line.Data)
	if !ok {
		return
	}

	if l.Level == parse.LevelError {
		s.lock.Lock()
		if s.failure == nil {
			s.failure = &l
		}
		s.lock.Unlock()
	}

	if s.onLog != nil {
		s.onLog(LogEvent{Level: l.Level, Source: l.Source, Message: l.Message})
	}
}

// progressError drops progress lines with out of range fields, which SoX
// prints now and then (e.g. "06:31:60.00"). Any other conversion error ends
// the run.
func (s *Session) progressError(line string, err error) {
	if errors.Is(err, parse.ErrOverflow) {
		s.logger.Debug("ignoring malformed progress line %q: %v", line, err)
		return
	}

	s.lock.Lock()
	if s.protocolErr == nil {
		s.protocolErr = &ProtocolError{Line: line, Err: err}
	}
	h := s.handle
	s.lock.Unlock()

	if h != nil {
		if err := h.Kill(); err != nil {
			s.logger.Error("%v", err)
		}
	}
}
