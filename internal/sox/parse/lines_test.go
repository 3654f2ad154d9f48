// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"errors"
	"testing"
	"time"
)

func mustSet(t *testing.T) *PatternSet {
	t.Helper()
	set, ok := ForVersion("14.4.2")
	if !ok {
		t.Fatal("no pattern set for 14.4.2")
	}
	return set
}

func TestForVersion(t *testing.T) {
	for _, v := range []string{"14.4.2", "14.4.0", "14.3.2"} {
		set, ok := ForVersion(v)
		if !ok {
			t.Errorf("ForVersion(%q) not found", v)
			continue
		}
		if set.Version != v {
			t.Errorf("Version = %q, want %q", set.Version, v)
		}
	}
	for _, v := range []string{"12.17.9", "15.0.0", "garbage", ""} {
		if _, ok := ForVersion(v); ok {
			t.Errorf("ForVersion(%q) should not be supported", v)
		}
	}
}

func TestParseProgress(t *testing.T) {
	set := mustSet(t)

	prog, ok, err := set.ParseProgress("In:45.5% 00:00:10.00 [00:00:12.00] Out:512k")
	if !ok || err != nil {
		t.Fatalf("ParseProgress ok=%v err=%v", ok, err)
	}
	want := Progress{
		Percent:    46,
		Processed:  10 * time.Second,
		Remaining:  12 * time.Second,
		OutputSize: 524288,
	}
	if prog != want {
		t.Errorf("ParseProgress = %+v, want %+v", prog, want)
	}
}

func TestParseProgressRounding(t *testing.T) {
	set := mustSet(t)
	tests := []struct {
		pct  string
		want uint16
	}{
		{"45.4", 45},
		{"45.5", 46},
		{"44.5", 45},
		{"0.0", 0},
		{"100", 100},
		{"100.00", 100},
		{"150.2", 100},
		{"999", 100},
	}
	for _, tt := range tests {
		line := "In:" + tt.pct + "%  00:00:01.00 [00:00:02.00] Out:1k"
		prog, ok, err := set.ParseProgress(line)
		if !ok || err != nil {
			t.Errorf("%q: ok=%v err=%v", line, ok, err)
			continue
		}
		if prog.Percent != tt.want {
			t.Errorf("%q: Percent = %d, want %d", tt.pct, prog.Percent, tt.want)
		}
	}
}

func TestParseProgressOverflow(t *testing.T) {
	set := mustSet(t)
	_, ok, err := set.ParseProgress("In:12.00% 06:31:60.00 [00:10:00.00] Out:3.1M")
	if !ok {
		t.Fatal("expected the line to match the progress pattern")
	}
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestParseProgressNoMatch(t *testing.T) {
	set := mustSet(t)
	for _, line := range []string{
		"",
		"sox WARN rate: rate clipped 1 samples",
		"Input File     : 'a.wav'",
		"In:abc% 00:00:01.00 [00:00:02.00] Out:1k",
	} {
		if _, ok, _ := set.ParseProgress(line); ok {
			t.Errorf("%q should not match", line)
		}
	}
}

func TestParseLog(t *testing.T) {
	set := mustSet(t)
	tests := []struct {
		line string
		want LogLine
	}{
		{"sox FAIL formats: can't open input file `a.wav': No such file or directory",
			LogLine{LevelError, "formats", "can't open input file `a.wav': No such file or directory"}},
		{"sox WARN rate: rate clipped 1 samples; decrease volume?",
			LogLine{LevelWarning, "rate", "rate clipped 1 samples; decrease volume?"}},
		{"INFO sox: effects chain: input 44100Hz",
			LogLine{LevelInfo, "sox", "effects chain: input 44100Hz"}},
		{"sox DBUG wav: WAV Chunk fmt",
			LogLine{LevelDebug, "wav", "WAV Chunk fmt"}},
		{"FAIL getopt: unknown option `--bogus'",
			LogLine{LevelError, "getopt", "unknown option `--bogus'"}},
	}
	for _, tt := range tests {
		got, ok := set.ParseLog(tt.line)
		if !ok {
			t.Errorf("%q did not match", tt.line)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLog(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}

	for _, line := range []string{"", "In:1% 00:00:01.00 [00:00:02.00] Out:1k", "FAILURE happened", "ERROR x: y"} {
		if _, ok := set.ParseLog(line); ok {
			t.Errorf("%q should not match", line)
		}
	}
}

func TestFindFailure(t *testing.T) {
	set := mustSet(t)
	text := "sox WARN wav: header length\r\nsox FAIL formats: first\r\nsox FAIL formats: second\r\n"
	l, ok := set.FindFailure(text)
	if !ok {
		t.Fatal("expected a failure")
	}
	if l.Message != "first" || l.Source != "formats" {
		t.Errorf("FindFailure = %+v", l)
	}
	if _, ok := set.FindFailure("sox WARN a: b\n"); ok {
		t.Error("warning is not a failure")
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarning.String() != "warning" || LevelError.String() != "error" || Level(42).String() != "unknown" {
		t.Error("unexpected level names")
	}
}
