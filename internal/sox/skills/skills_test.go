// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package skills

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const helpText = `sox:      SoX v14.4.2

Usage summary: [gopts] [[fopts] infile]... [fopts] outfile [effect [effopt]]...

AUDIO FILE FORMATS: 8svx aif aifc aiff al au flac mp3 wav
PLAYLIST FORMATS: m3u pls
AUDIO DEVICE DRIVERS: alsa pulseaudio

EFFECTS: allpass band bandpass bass mixer* reverse trim vol

EFFECT OPTIONS (effopts): effect dependent; see --help-effect
`

func fakeSox(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "sox")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sox:      SoX v14.4.2\n", "14.4.2"},
		{"SoX v14.3.1\n", "14.3.1"},
		{"sox: SoX v14.4.2-rc1\n", "14.4.2"},
		{"sox version 14\n", ""},
		{"", ""},
		{"\nsox:      SoX v14.4.2\n", ""},
	}
	for _, tt := range tests {
		if got := parseVersion([]byte(tt.in)); got != tt.want {
			t.Errorf("parseVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHelpSection(t *testing.T) {
	effects := helpSection([]byte(helpText), "EFFECTS:")
	want := []string{"allpass", "band", "bandpass", "bass", "mixer", "reverse", "trim", "vol"}
	if len(effects) != len(want) {
		t.Fatalf("effects = %q", effects)
	}
	for i := range want {
		if effects[i] != want[i] {
			t.Fatalf("effect %d = %q, want %q", i, effects[i], want[i])
		}
	}

	if formats := helpSection([]byte(helpText), "AUDIO FILE FORMATS:"); len(formats) != 9 {
		t.Fatalf("formats = %q", formats)
	}
	if none := helpSection([]byte("nothing here"), "EFFECTS:"); none != nil {
		t.Fatalf("expected nil, got %q", none)
	}
}

func TestNew(t *testing.T) {
	script := fakeSox(t, `if [ "$1" = "--version" ]; then echo "sox:      SoX v14.4.2"; exit 0; fi
cat <<'HELP'
`+helpText+`HELP`)

	s, err := New(script)
	if err != nil {
		t.Fatal(err)
	}
	if s.Sox.Version != "14.4.2" || s.Patterns == nil || s.Patterns.Version != "14.4.2" {
		t.Fatalf("unexpected version info: %+v", s.Sox)
	}
	if !s.HasEffect("vol") || s.HasEffect("echoz") {
		t.Fatal("effect lookup mismatch")
	}
	if !s.HasFormat("flac") || s.HasFormat("ogg") {
		t.Fatal("format lookup mismatch")
	}
	if len(s.Playlist) != 2 || len(s.Drivers) != 2 {
		t.Fatalf("playlist %q drivers %q", s.Playlist, s.Drivers)
	}
}

func TestEmptyListsAcceptAnything(t *testing.T) {
	var s Skills
	if !s.HasEffect("anything") || !s.HasFormat("anything") {
		t.Fatal("empty skills should accept any name")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   error
	}{
		{"unparseable", `echo "hello"`, ErrVersionUnparseable},
		{"too old", `echo "sox: SoX v14.2.0"`, ErrUnsupportedVersion},
		{"unknown series", `echo "sox: SoX v15.0.0"`, ErrUnsupportedVersion},
		{"timeout", `exec sleep 5`, ErrVersionTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := fakeSox(t, tt.script)
			start := time.Now()
			_, err := Resolve(script)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if elapsed := time.Since(start); elapsed > 4*time.Second {
				t.Fatalf("probe took %s", elapsed)
			}
		})
	}
}

func TestResolveMissingBinary(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing-sox"))
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}
