// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

//go:build !windows

package process

import (
	"os"
	"os/exec"
)

func hideWindow(cmd *exec.Cmd) {}

// exitedNormally reports whether the child called exit rather than being
// terminated by a signal.
func exitedNormally(ps *os.ProcessState) bool {
	return ps.Exited()
}
