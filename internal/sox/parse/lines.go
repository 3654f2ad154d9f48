// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Level is the severity of a SoX log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "unknown"
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

var levelTags = map[string]Level{
	"DBUG": LevelDebug,
	"INFO": LevelInfo,
	"WARN": LevelWarning,
	"FAIL": LevelError,
}

// Progress is one parsed "In:..% hh:mm:ss.ff [hh:mm:ss.ff] Out:.." line.
type Progress struct {
	Percent    uint16
	Processed  time.Duration
	Remaining  time.Duration
	OutputSize uint64
}

// LogLine is one parsed "<TAG> <source>: <message>" line.
type LogLine struct {
	Level   Level
	Source  string
	Message string
}

// ParseProgress matches line against the progress pattern. ok is false when
// the line is not a progress line. A non-nil error means the line matched but
// a field could not be converted; errors wrapping ErrOverflow are the known
// malformed-timestamp quirk and may be ignored.
func (p *PatternSet) ParseProgress(line string) (prog Progress, ok bool, err error) {
	m := p.Progress.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false, nil
	}

	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, true, fmt.Errorf("%w: percentage %q", ErrInvalidNumber, m[1])
	}
	prog.Percent = clampPercent(pct)

	if prog.Processed, err = ParseTimeCode(m[2]); err != nil {
		return Progress{}, true, err
	}
	if prog.Remaining, err = ParseTimeCode(m[3]); err != nil {
		return Progress{}, true, err
	}
	if prog.OutputSize, err = ParseSize(m[4]); err != nil {
		return Progress{}, true, err
	}
	return prog, true, nil
}

// clampPercent rounds half away from zero and clamps to [0,100].
func clampPercent(v float64) uint16 {
	v = math.Round(v)
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return uint16(v)
}

// ParseLog matches line against the log pattern.
func (p *PatternSet) ParseLog(line string) (LogLine, bool) {
	m := p.Log.FindStringSubmatch(line)
	if m == nil {
		return LogLine{}, false
	}
	level, ok := levelTags[m[1]]
	if !ok {
		return LogLine{}, false
	}
	return LogLine{
		Level:   level,
		Source:  m[2],
		Message: strings.TrimSpace(m[3]),
	}, true
}

// FindFailure returns the first FAIL line contained in a block of text.
func (p *PatternSet) FindFailure(text string) (LogLine, bool) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		if l, ok := p.ParseLog(strings.TrimRight(scanner.Text(), "\r")); ok && l.Level == LevelError {
			return l, true
		}
	}
	return LogLine{}, false
}
