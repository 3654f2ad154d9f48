// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package process

import (
	"sync"
	"time"
	"unicode/utf8"
)

// Stream identifies the pipe a line was read from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is a timestamped line of process output
type Line struct {
	Timestamp time.Time
	Stream    Stream
	Data      string
}

// lineWriter splits everything written to it into lines and hands each line
// to emit. Lines end at '\n' or '\r' since SoX redraws its progress line
// with a bare carriage return.
type lineWriter struct {
	stream Stream
	emit   func(Line)
	buf    []byte
	closed bool
	lock   sync.Mutex
}

func newLineWriter(stream Stream, emit func(Line)) *lineWriter {
	return &lineWriter{stream: stream, emit: emit}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return len(p), nil
	}

	w.buf = append(w.buf, p...)
	for {
		advance, token, _ := scanLine(w.buf, false)
		if advance == 0 {
			break
		}
		w.buf = w.buf[advance:]
		if token != nil {
			w.emit(Line{Timestamp: time.Now(), Stream: w.stream, Data: string(token)})
		}
	}
	return len(p), nil
}

// flush emits a trailing unterminated line and drops later writes.
func (w *lineWriter) flush() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	if _, token, _ := scanLine(w.buf, true); len(token) > 0 {
		w.emit(Line{Timestamp: time.Now(), Stream: w.stream, Data: string(token)})
	}
	w.buf = nil
}

func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
