// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package sox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZSC714725/soxmanager/internal/sox/parse"
)

const infoBlock = `
Input File     : 'song.mp3'
Channels       : 2
Sample Rate    : 44100
Precision      : 16-bit
Duration       : 00:03:00.00 = 7938000 samples ~ 13500 CDDA sectors
File Size      : 5.5M
Bit Rate       : 128k
Sample Encoding: MPEG audio (layer III)
`

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func wantSong(t *testing.T, info parse.AudioInfo) {
	t.Helper()
	want := parse.AudioInfo{
		Channels:   2,
		SampleRate: 44100,
		SampleSize: 16,
		Duration:   3 * time.Minute,
		Size:       5767168,
		BitRate:    131072,
		Format:     "MPEG audio (layer III)",
	}
	if info != want {
		t.Fatalf("info\n got %+v\nwant %+v", info, want)
	}
}

func TestInfo(t *testing.T) {
	s := newFakeSox(t, `if [ "$1" = "--info" ]; then
cat <<'INFO'
`+infoBlock+`INFO
exit 0
fi
exit 1`, Config{})

	info, err := s.Info(context.Background(), touch(t, "my song.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	wantSong(t, info)
}

func TestInfoFromStderr(t *testing.T) {
	s := newFakeSox(t, `cat >&2 <<'INFO'
`+infoBlock+`INFO
exit 0`, Config{})

	info, err := s.Info(context.Background(), touch(t, "song.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	wantSong(t, info)
}

func TestInfoFileNotFound(t *testing.T) {
	s := newFakeSox(t, "exit 0", Config{})
	_, err := s.Info(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestInfoTimeout(t *testing.T) {
	s := newFakeSox(t, "exec sleep 30", Config{InfoTimeout: 200 * time.Millisecond})

	start := time.Now()
	_, err := s.Info(context.Background(), touch(t, "song.wav"))
	if !errors.Is(err, ErrResponseTimeout) {
		t.Fatalf("expected ErrResponseTimeout, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("timed out process was not killed")
	}
}

func TestInfoFailure(t *testing.T) {
	s := newFakeSox(t, `echo "sox FAIL formats: can't open input file 'x.wav': WAVE: RIFF header not found"
exit 2`, Config{})

	_, err := s.Info(context.Background(), touch(t, "x.wav"))
	var procErr *ProcessingError
	if !errors.As(err, &procErr) || procErr.Source != "formats" {
		t.Fatalf("expected ProcessingError from formats, got %v", err)
	}
}

func TestParseInfoOutput(t *testing.T) {
	patterns, ok := parse.ForVersion("14.4.2")
	if !ok {
		t.Fatal("no patterns for 14.4.2")
	}

	info, err := parseInfoOutput(patterns, "sox FAIL formats: no handler for detected file type\n"+infoBlock)
	if err != nil {
		t.Fatalf("info block should win over FAIL line: %v", err)
	}
	wantSong(t, info)

	_, err = parseInfoOutput(patterns, "")
	var unexpected *UnexpectedOutputError
	if !errors.As(err, &unexpected) || unexpected.Error() != "unexpected output from sox: no output received" {
		t.Fatalf("expected no output error, got %v", err)
	}

	_, err = parseInfoOutput(patterns, "  garbage\n")
	if !errors.As(err, &unexpected) || unexpected.Output != "garbage" {
		t.Fatalf("expected unexpected output error, got %v", err)
	}
}
