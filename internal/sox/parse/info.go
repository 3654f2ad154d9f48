// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AudioInfo describes an audio file as reported by `sox --info`.
type AudioInfo struct {
	Channels   uint16        `json:"channels"`
	SampleRate uint32        `json:"sample_rate"`
	SampleSize uint16        `json:"sample_size_bits"`
	Duration   time.Duration `json:"duration"`
	Size       uint64        `json:"size_bytes"`
	BitRate    uint32        `json:"bit_rate"`
	Format     string        `json:"format"`
}

func (a AudioInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Channels: %d\n", a.Channels)
	fmt.Fprintf(&b, "Sample Rate: %d\n", a.SampleRate)
	fmt.Fprintf(&b, "Sample Size: %d\n", a.SampleSize)
	fmt.Fprintf(&b, "Duration: %s\n", FormatTimeCode(a.Duration))
	fmt.Fprintf(&b, "Size: %d\n", a.Size)
	fmt.Fprintf(&b, "BitRate: %d\n", a.BitRate)
	fmt.Fprintf(&b, "Format: %s\n", a.Format)
	return b.String()
}

var rePrecision = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// ParseInfo matches an info block. ok is false when text holds no block; err
// is set when a block matched but a field could not be converted.
func (p *PatternSet) ParseInfo(text string) (info AudioInfo, ok bool, err error) {
	m := p.Info.FindStringSubmatch(text)
	if m == nil {
		return AudioInfo{}, false, nil
	}

	channels, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return AudioInfo{}, true, fmt.Errorf("%w: channels %q", ErrInvalidNumber, m[1])
	}
	rate, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return AudioInfo{}, true, fmt.Errorf("%w: sample rate %q", ErrInvalidNumber, m[2])
	}
	bits, err := parsePrecision(m[3])
	if err != nil {
		return AudioInfo{}, true, err
	}
	duration, err := ParseTimeCode(m[4])
	if err != nil {
		return AudioInfo{}, true, err
	}
	size, err := ParseSize(m[5])
	if err != nil {
		return AudioInfo{}, true, err
	}
	bitRate, err := ParseSize32(m[6])
	if err != nil {
		return AudioInfo{}, true, err
	}

	return AudioInfo{
		Channels:   uint16(channels),
		SampleRate: uint32(rate),
		SampleSize: bits,
		Duration:   duration,
		Size:       size,
		BitRate:    bitRate,
		Format:     m[7],
	}, true, nil
}

// parsePrecision turns "16-bit" or "25.3-bit" into a whole bit count.
func parsePrecision(s string) (uint16, error) {
	num := rePrecision.FindString(s)
	if num == "" {
		return 0, fmt.Errorf("%w: precision %q", ErrInvalidNumber, s)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: precision %q", ErrOverflow, s)
	}
	return uint16(math.Round(v)), nil
}
