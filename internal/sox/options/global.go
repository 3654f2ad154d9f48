// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package options

import (
	"fmt"
	"strconv"
	"strings"
)

// CombinationMode selects how multiple inputs are combined.
type CombinationMode string

const (
	CombineDefault     CombinationMode = ""
	CombineConcatenate CombinationMode = "concatenate"
	CombineMerge       CombinationMode = "merge"
	CombineMix         CombinationMode = "mix"
	CombineMixPower    CombinationMode = "mix-power"
	CombineMultiply    CombinationMode = "multiply"
	CombineSequence    CombinationMode = "sequence"
)

// ParseCombinationMode accepts the --combine names and "default".
func ParseCombinationMode(s string) (CombinationMode, error) {
	switch m := CombinationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case CombineDefault, CombineConcatenate, CombineMerge, CombineMix,
		CombineMixPower, CombineMultiply, CombineSequence:
		return m, nil
	case "default":
		return CombineDefault, nil
	}
	return CombineDefault, fmt.Errorf("unknown combination mode '%s'", s)
}

func (m CombinationMode) Args() []string {
	if m == CombineDefault {
		return nil
	}
	return []string{"--combine", string(m)}
}

func (m CombinationMode) String() string {
	if m == CombineDefault {
		return "default"
	}
	return string(m)
}

// Global are the options that precede all file options.
type Global struct {
	// Buffer is the processing buffer size in bytes, 0 keeps the SoX default.
	Buffer uint32 `json:"buffer,omitempty" yaml:"buffer"`
	// Multithreaded selects --multi-threaded or --single-threaded when set.
	Multithreaded *bool `json:"multithreaded,omitempty" yaml:"multithreaded"`
	// Custom is appended after the known flags, split on whitespace.
	Custom string `json:"custom,omitempty" yaml:"custom"`
}

func (g Global) Args() []string {
	var args []string
	if g.Buffer > 0 {
		args = append(args, "--buffer", strconv.FormatUint(uint64(g.Buffer), 10))
	}
	if g.Multithreaded != nil {
		if *g.Multithreaded {
			args = append(args, "--multi-threaded")
		} else {
			args = append(args, "--single-threaded")
		}
	}
	return append(args, strings.Fields(g.Custom)...)
}
