// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import "errors"

var (
	// ErrOverflow is returned when a value does not fit its target type or a
	// time component is out of range (e.g. "06:31:60.00").
	ErrOverflow        = errors.New("value out of range")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrInvalidTimeCode = errors.New("invalid time code")
)
