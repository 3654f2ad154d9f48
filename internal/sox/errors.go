// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package sox

import (
	"errors"
	"fmt"

	"github.com/ZSC714725/soxmanager/internal/sox/skills"
)

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrToolNotFound       = skills.ErrToolNotFound
	ErrVersionTimeout     = skills.ErrVersionTimeout
	ErrVersionUnparseable = skills.ErrVersionUnparseable
	ErrUnsupportedVersion = skills.ErrUnsupportedVersion
	ErrResponseTimeout    = errors.New("sox did not respond in time")
	ErrAborted            = errors.New("processing aborted")
	ErrSessionBusy        = errors.New("session is already processing")
	ErrNoInput            = errors.New("no input file given")
	ErrInvalidInput       = errors.New("input not allowed")
	ErrInvalidOutput      = errors.New("output not allowed")
	ErrUnknownEffect      = errors.New("effect not supported by sox")
)

// ArgumentSource is the SoX module that reports command line errors.
const ArgumentSource = "getopt"

// ProcessingError is a FAIL line reported by SoX during a run.
type ProcessingError struct {
	Source  string
	Message string
}

func (e *ProcessingError) Error() string {
	if e.Source == "" {
		return "sox: " + e.Message
	}
	return fmt.Sprintf("sox %s: %s", e.Source, e.Message)
}

// InvalidArgumentError is a ProcessingError raised by the argument parser.
type InvalidArgumentError struct {
	ProcessingError
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.ProcessingError.Error()
}

func (e *InvalidArgumentError) Unwrap() error {
	return &e.ProcessingError
}

// UnexpectedOutputError carries output that matched no known shape.
type UnexpectedOutputError struct {
	Output string
}

func (e *UnexpectedOutputError) Error() string {
	if e.Output == "" {
		return "unexpected output from sox: no output received"
	}
	return "unexpected output from sox: " + e.Output
}

// ProtocolError is a recognised line whose fields could not be converted.
type ProtocolError struct {
	Line string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("can't parse sox output %q: %v", e.Line, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func newProcessingError(source, message string) error {
	p := ProcessingError{Source: source, Message: message}
	if source == ArgumentSource {
		return &InvalidArgumentError{ProcessingError: p}
	}
	return &p
}
