// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"errors"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"12", 12},
		{"2k", 2048},
		{"1M", 1048576},
		{"1G", 1073741824},
		{"5.5M", 5767168},
		{"512k", 524288},
		{"1.5k", 1536},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if err != nil {
			t.Errorf("ParseSize(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseSize32(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"12", 12},
		{"2k", 2048},
		{"1M", 1048576},
		{"1G", 1073741824},
		{"128k", 131072},
	}
	for _, tt := range tests {
		got, err := ParseSize32(tt.in)
		if err != nil {
			t.Errorf("ParseSize32(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize32(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSize32("8G"); !errors.Is(err, ErrOverflow) {
		t.Errorf("ParseSize32(8G) error = %v, want ErrOverflow", err)
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, in := range []string{"", "k", "abc", "-1", "1e3", "NaN", "1T"} {
		if _, err := ParseSize(in); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("ParseSize(%q) error = %v, want ErrInvalidNumber", in, err)
		}
	}
}

func TestParseTimeCode(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"01:02:03.50", time.Hour + 2*time.Minute + 3500*time.Millisecond},
		{"00:00:10", 10 * time.Second},
		{"00:03:00.00", 3 * time.Minute},
		{"02:30", 2*time.Minute + 30*time.Second},
		{"7.25", 7250 * time.Millisecond},
		{"90", 90 * time.Second},
		{"::5", 5 * time.Second},
	}
	for _, tt := range tests {
		got, err := ParseTimeCode(tt.in)
		if err != nil {
			t.Errorf("ParseTimeCode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeCodeOverflow(t *testing.T) {
	for _, in := range []string{"06:31:60.00", "00:60:00", "01:75"} {
		if _, err := ParseTimeCode(in); !errors.Is(err, ErrOverflow) {
			t.Errorf("ParseTimeCode(%q) error = %v, want ErrOverflow", in, err)
		}
	}
}

func TestParseTimeCodeInvalid(t *testing.T) {
	for _, in := range []string{"", "1:2:3:4", "aa:bb", "01.5:00"} {
		if _, err := ParseTimeCode(in); !errors.Is(err, ErrInvalidTimeCode) {
			t.Errorf("ParseTimeCode(%q) error = %v, want ErrInvalidTimeCode", in, err)
		}
	}
}

func TestFormatTimeCode(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3500*time.Millisecond
	if got := FormatTimeCode(d); got != "01:02:03.50" {
		t.Errorf("FormatTimeCode = %q", got)
	}
	if got := FormatTimeCode(0); got != "00:00:00.00" {
		t.Errorf("FormatTimeCode(0) = %q", got)
	}
}
