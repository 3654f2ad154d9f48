// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package task

import "errors"

var (
	ErrNotFound             = errors.New("task not found")
	ErrTaskExists           = errors.New("task already exists")
	ErrInvalidConfig        = errors.New("invalid config")
	ErrNoInput              = errors.New("invalid config: need at least one input")
	ErrInvalidInputAddress  = errors.New("invalid input address")
	ErrInvalidOutputAddress = errors.New("invalid output address")
	ErrInvalidEffect        = errors.New("invalid effect")
	ErrTaskRunning          = errors.New("task is running")
	ErrUploadUnavailable    = errors.New("upload requested but object storage is not configured")
)
