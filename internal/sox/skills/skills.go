// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package skills

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/ZSC714725/soxmanager/internal/sox/parse"
)

var (
	ErrToolNotFound       = errors.New("sox binary not found")
	ErrVersionTimeout     = errors.New("sox did not report its version in time")
	ErrVersionUnparseable = errors.New("can't parse sox version")
	ErrUnsupportedVersion = errors.New("unsupported sox version")
)

// MinVersion is the oldest SoX release whose output can be parsed.
const MinVersion = "14.3.0"

// ProbeTimeout bounds the version query.
const ProbeTimeout = time.Second

var reVersion = regexp.MustCompile(`(?:^|\s)SoX v(\d{1,2}\.\d{1,2}\.\d{1,2})`)

type soxInfo struct {
	Version string `json:"version"`
	Binary  string `json:"binary"`
}

// Skills are the detected capabilities of SoX
type Skills struct {
	Sox      soxInfo  `json:"sox"`
	Formats  []string `json:"formats"`
	Playlist []string `json:"playlist_formats"`
	Drivers  []string `json:"drivers"`
	Effects  []string `json:"effects"`

	Patterns *parse.PatternSet `json:"-"`
}

// HasEffect reports whether name is in the effect list. An empty list, as
// reported by builds that omit the help text, accepts any name.
func (s Skills) HasEffect(name string) bool {
	if len(s.Effects) == 0 {
		return true
	}
	for _, e := range s.Effects {
		if e == name {
			return true
		}
	}
	return false
}

// HasFormat reports whether name is a known file type. An empty list accepts
// any name.
func (s Skills) HasFormat(name string) bool {
	if len(s.Formats) == 0 {
		return true
	}
	for _, f := range s.Formats {
		if f == name {
			return true
		}
	}
	return false
}

// New returns all skills that SoX provides
func New(binary string) (Skills, error) {
	patterns, err := Resolve(binary)
	if err != nil {
		return Skills{}, err
	}

	s := Skills{
		Sox:      soxInfo{Version: patterns.Version, Binary: binary},
		Patterns: patterns,
	}

	help := getHelp(binary)
	s.Formats = helpSection(help, "AUDIO FILE FORMATS:")
	s.Playlist = helpSection(help, "PLAYLIST FORMATS:")
	s.Drivers = helpSection(help, "AUDIO DEVICE DRIVERS:")
	s.Effects = helpSection(help, "EFFECTS:")

	return s, nil
}

// Resolve probes the version of binary and returns the matching pattern set.
func Resolve(binary string) (*parse.PatternSet, error) {
	version, err := Probe(binary, ProbeTimeout)
	if err != nil {
		return nil, err
	}
	if semver.Compare("v"+version, "v"+MinVersion) < 0 {
		return nil, fmt.Errorf("%w: %s is older than %s", ErrUnsupportedVersion, version, MinVersion)
	}
	patterns, ok := parse.ForVersion(version)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	return patterns, nil
}

// Probe runs "sox --version" and returns the reported MAJOR.MINOR.PATCH.
func Probe(binary string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "--version")
	cmd.WaitDelay = timeout
	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w after %s", ErrVersionTimeout, timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, binary, err)
		}
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, binary, err)
		}
	}

	version := parseVersion(out)
	if version == "" {
		return "", fmt.Errorf("%w: %q", ErrVersionUnparseable, firstLine(out))
	}
	return version, nil
}

func parseVersion(data []byte) string {
	if m := reVersion.FindSubmatch([]byte(firstLine(data))); m != nil {
		return string(m[1])
	}
	return ""
}

func firstLine(data []byte) string {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return strings.TrimSpace(string(line))
}

func getHelp(binary string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-h")
	cmd.WaitDelay = time.Second
	// sox exits non-zero after printing the usage text on some builds
	stdout, _ := cmd.Output()
	return stdout
}

// helpSection returns the space separated names following label in the
// usage text. Deprecated entries are marked with a trailing '*' which is
// stripped.
func helpSection(data []byte, label string) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, label) {
			continue
		}
		for _, f := range strings.Fields(strings.TrimPrefix(line, label)) {
			names = append(names, strings.TrimSuffix(f, "*"))
		}
		break
	}
	return names
}
