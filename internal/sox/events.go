// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package sox

import (
	"time"

	"github.com/ZSC714725/soxmanager/internal/sox/parse"
)

// ProgressEvent is passed to the progress callback for every progress line.
// Setting Abort kills the running process.
type ProgressEvent struct {
	Percent    uint16        `json:"percent"`
	Processed  time.Duration `json:"processed"`
	Remaining  time.Duration `json:"remaining"`
	OutputSize uint64        `json:"output_size"`

	Abort bool `json:"-"`
}

// LogEvent is passed to the log callback for every log line.
type LogEvent struct {
	Level   parse.Level `json:"level"`
	Source  string      `json:"source"`
	Message string      `json:"message"`
}

func (e LogEvent) String() string {
	return e.Level.String() + " " + e.Source + ": " + e.Message
}
