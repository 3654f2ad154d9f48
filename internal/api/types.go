// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package api

import (
	"github.com/ZSC714725/soxmanager/internal/sox"
	"github.com/ZSC714725/soxmanager/internal/sox/options"
)

// JobConfigRequest for Add
type JobConfigRequest struct {
	ID        string              `json:"id"`
	Reference string              `json:"reference"`
	Input     []options.InputFile `json:"input" binding:"required"`
	Output    *options.OutputFile `json:"output"`
	Combine   string              `json:"combine"`
	Global    *options.Global     `json:"global"`
	Effects   []string            `json:"effects"`
	Autostart bool                `json:"autostart"`
	Upload    bool                `json:"upload"`
}

// Job represents a task in API response
type Job struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Reference string     `json:"reference"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
	Config    *JobConfig `json:"config,omitempty"`
	State     *JobState  `json:"state,omitempty"`
	Report    *JobReport `json:"report,omitempty"`
}

// JobConfig in API format
type JobConfig struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	Reference string              `json:"reference"`
	Input     []options.InputFile `json:"input"`
	Output    *options.OutputFile `json:"output,omitempty"`
	Combine   string              `json:"combine,omitempty"`
	Global    *options.Global     `json:"global,omitempty"`
	Effects   []string            `json:"effects"`
	Autostart bool                `json:"autostart"`
	Upload    bool                `json:"upload"`
}

// JobState for API
type JobState struct {
	State    string             `json:"exec"`
	Session  string             `json:"session"`
	Runtime  int64              `json:"runtime_seconds"`
	ExitCode int                `json:"exit_code"`
	Error    string             `json:"error,omitempty"`
	Object   string             `json:"object,omitempty"`
	LastLog  string             `json:"last_logline"`
	Progress *sox.ProgressEvent `json:"progress"`
	Memory   uint64             `json:"memory_bytes"`
	CPU      float64            `json:"cpu_usage"`
	Command  string             `json:"command"`
}

// JobReport for logs
type JobReport struct {
	CreatedAt int64       `json:"created_at"`
	Log       [][2]string `json:"log"`
}

// CommandRequest for start/abort
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
