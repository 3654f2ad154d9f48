// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package main

func main() {
	Execute()
}
