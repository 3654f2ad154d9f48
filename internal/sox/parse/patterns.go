// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"regexp"

	"golang.org/x/mod/semver"
)

// PatternSet holds the compiled expressions used to classify the output of
// one SoX version. A set is immutable and safe for concurrent use.
type PatternSet struct {
	Version  string
	Info     *regexp.Regexp
	Progress *regexp.Regexp
	Log      *regexp.Regexp
}

var sox14 = struct {
	info     *regexp.Regexp
	progress *regexp.Regexp
	log      *regexp.Regexp
}{
	info: regexp.MustCompile(`(?m)Channels\s*:\s*(\d+)\s*\r?\n` +
		`Sample Rate\s*:\s*(\d+)\s*\r?\n` +
		`Precision\s*:\s*(.+?)\s*\r?\n` +
		`Duration\s*:\s*(\d{2}:\d{2}:\d{2}(?:\.\d{1,2})?)[^\r\n]*\r?\n` +
		`(?:.*\r?\n)*?` +
		`File Size\s*:\s*(\d+(?:\.\d{1,2})?[kMG]?)\s*\r?\n` +
		`Bit Rate\s*:\s*(\d+(?:\.\d{1,2})?[kMG]?)\s*\r?\n` +
		`Sample Encoding\s*:\s*(.+?)\s*$`),
	progress: regexp.MustCompile(`In:(\d{1,3}(?:\.\d{0,2})?)%\s+` +
		`(\d{2}:\d{2}:\d{2}(?:\.\d{0,2})?)\s+` +
		`\[(\d{2}:\d{2}:\d{2}(?:\.\d{0,2})?)\]\s+` +
		`Out:(\d+(?:\.\d{0,2})?[kMG]?)`),
	log: regexp.MustCompile(`(?:^|\s)(DBUG|INFO|WARN|FAIL)\s+([^\s:]+):\s?(.*)$`),
}

// series maps a major.minor release line to its output shapes. 14.3 and 14.4
// print the same progress, log and --info layouts.
var series = map[string]func(version string) *PatternSet{
	"v14.3": newSox14,
	"v14.4": newSox14,
}

func newSox14(version string) *PatternSet {
	return &PatternSet{
		Version:  version,
		Info:     sox14.info,
		Progress: sox14.progress,
		Log:      sox14.log,
	}
}

// ForVersion returns the pattern set for a "MAJOR.MINOR.PATCH" version string,
// or false if the release line is unknown.
func ForVersion(version string) (*PatternSet, bool) {
	v := "v" + version
	if !semver.IsValid(v) {
		return nil, false
	}
	newSet, ok := series[semver.MajorMinor(v)]
	if !ok {
		return nil, false
	}
	return newSet(version), true
}
