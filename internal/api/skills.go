// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package api

import (
	"time"

	"github.com/ZSC714725/soxmanager/internal/sox/parse"
	"github.com/ZSC714725/soxmanager/internal/sox/skills"
)

// SkillsResponse for API
type SkillsResponse struct {
	Sox struct {
		Version string `json:"version"`
		Binary  string `json:"binary"`
	} `json:"sox"`

	Formats struct {
		Audio    []string `json:"audio"`
		Playlist []string `json:"playlist"`
	} `json:"formats"`

	Drivers []string `json:"drivers"`
	Effects []string `json:"effects"`
}

// InfoResponse for API
type InfoResponse struct {
	Path            string  `json:"path"`
	Channels        uint16  `json:"channels"`
	SampleRate      uint32  `json:"sample_rate"`
	SampleSize      uint16  `json:"sample_size_bits"`
	DurationSeconds float64 `json:"duration_seconds"`
	Duration        string  `json:"duration"`
	Size            uint64  `json:"size_bytes"`
	BitRate         uint32  `json:"bit_rate"`
	Format          string  `json:"format"`
}

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.Sox.Version = s.Sox.Version
	resp.Sox.Binary = s.Sox.Binary
	resp.Formats.Audio = nonNil(s.Formats)
	resp.Formats.Playlist = nonNil(s.Playlist)
	resp.Drivers = nonNil(s.Drivers)
	resp.Effects = nonNil(s.Effects)

	return resp
}

func infoToAPI(path string, info parse.AudioInfo) InfoResponse {
	return InfoResponse{
		Path:            path,
		Channels:        info.Channels,
		SampleRate:      info.SampleRate,
		SampleSize:      info.SampleSize,
		DurationSeconds: info.Duration.Round(time.Millisecond).Seconds(),
		Duration:        parse.FormatTimeCode(info.Duration),
		Size:            info.Size,
		BitRate:         info.BitRate,
		Format:          info.Format,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
