// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package task

import (
	"context"
	"time"

	"github.com/ZSC714725/soxmanager/internal/sox"
)

// Snapshot is the externally visible state of a task.
type Snapshot struct {
	ID        string             `json:"id"`
	Reference string             `json:"reference"`
	State     string             `json:"state"`
	Progress  *sox.ProgressEvent `json:"progress,omitempty"`
	Error     string             `json:"error,omitempty"`
	ExitCode  int                `json:"exit_code"`
	Object    string             `json:"object,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Publisher receives task snapshots on state changes and, throttled, on
// progress.
type Publisher interface {
	Publish(ctx context.Context, snapshot Snapshot) error
	Remove(ctx context.Context, id string) error
}

// Uploader stores the output file of a successful run.
type Uploader interface {
	Upload(ctx context.Context, path, object string) (string, error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Snapshot) error { return nil }
func (nopPublisher) Remove(context.Context, string) error    { return nil }

// Event is pushed to subscribers of a task.
type Event struct {
	Type     string             `json:"type"`
	Time     time.Time          `json:"time"`
	State    string             `json:"state,omitempty"`
	Progress *sox.ProgressEvent `json:"progress,omitempty"`
	Log      *sox.LogEvent      `json:"log,omitempty"`
	Error    string             `json:"error,omitempty"`
}

const (
	EventState    = "state"
	EventProgress = "progress"
	EventLog      = "log"
)
