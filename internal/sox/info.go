// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package sox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/soxmanager/internal/process"
	"github.com/ZSC714725/soxmanager/internal/sox/parse"
)

// DefaultInfoTimeout bounds "sox --info" unless configured otherwise.
const DefaultInfoTimeout = 10 * time.Second

// outputBuffer collects the lines of both streams separately.
type outputBuffer struct {
	lock   sync.Mutex
	stdout []string
	stderr []string
}

func (b *outputBuffer) add(l process.Line) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if l.Stream == process.Stderr {
		b.stderr = append(b.stderr, l.Data)
	} else {
		b.stdout = append(b.stdout, l.Data)
	}
}

// text returns stdout, or stderr if nothing was written to stdout.
func (b *outputBuffer) text() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.stdout) > 0 {
		return strings.Join(b.stdout, "\n")
	}
	return strings.Join(b.stderr, "\n")
}

// Info runs "sox --info" on path and parses the reported file properties.
func (s *sox) Info(ctx context.Context, path string) (parse.AudioInfo, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return parse.AudioInfo{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return parse.AudioInfo{}, err
	}
	if !s.ValidateInput(path) {
		return parse.AudioInfo{}, fmt.Errorf("%w: %s", ErrInvalidInput, path)
	}

	out := &outputBuffer{}
	h, err := process.New(process.Config{
		Binary: s.binary,
		OnLine: out.add,
		Logger: s.logger,
	})
	if err != nil {
		return parse.AudioInfo{}, err
	}
	defer h.Dispose()

	if err := h.Start([]string{"--info", path}); err != nil {
		return parse.AudioInfo{}, err
	}

	timer := time.NewTimer(s.infoTimeout)
	defer timer.Stop()

	select {
	case <-h.Done():
	case <-timer.C:
		h.Dispose()
		<-h.Done()
		return parse.AudioInfo{}, fmt.Errorf("%w: --info %s after %s", ErrResponseTimeout, path, s.infoTimeout)
	case <-ctx.Done():
		h.Dispose()
		<-h.Done()
		return parse.AudioInfo{}, ctx.Err()
	}

	return parseInfoOutput(s.patterns(), out.text())
}

// parseInfoOutput returns the info block if one matched, even when a FAIL
// line was printed too.
func parseInfoOutput(patterns *parse.PatternSet, text string) (parse.AudioInfo, error) {
	failure, failed := patterns.FindFailure(text)

	info, ok, err := patterns.ParseInfo(text)
	if ok && err == nil {
		return info, nil
	}
	if failed {
		return parse.AudioInfo{}, newProcessingError(failure.Source, failure.Message)
	}
	if ok {
		return parse.AudioInfo{}, &ProtocolError{Line: text, Err: err}
	}
	return parse.AudioInfo{}, &UnexpectedOutputError{Output: strings.TrimSpace(text)}
}
