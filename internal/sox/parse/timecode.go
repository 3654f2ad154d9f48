// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseTimeCode parses "hh:mm:ss.ff", "mm:ss.ff" or "ss.ff" into a duration.
// Empty components count as zero. Minutes and seconds following a larger
// unit must be below 60, otherwise ErrOverflow is returned.
func ParseTimeCode(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimeCode)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeCode, s)
	}

	var total time.Duration
	for i, part := range parts {
		last := i == len(parts)-1
		unit := time.Second
		switch len(parts) - 1 - i {
		case 2:
			unit = time.Hour
		case 1:
			unit = time.Minute
		}

		if part == "" {
			continue
		}
		if !reNumber.MatchString(part) || (!last && strings.Contains(part, ".")) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeCode, s)
		}

		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, fmt.Errorf("%w: time code %q", ErrOverflow, s)
			}
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeCode, s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%w: time code %q", ErrOverflow, s)
		}

		ns := math.Round(v * float64(unit))
		if ns > float64(math.MaxInt64-total) {
			return 0, fmt.Errorf("%w: time code %q", ErrOverflow, s)
		}
		total += time.Duration(ns)
	}
	return total, nil
}

// FormatTimeCode renders d as "hh:mm:ss.ff", the layout SoX prints.
func FormatTimeCode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(d.Round(10*time.Millisecond) / (10 * time.Millisecond))
	h := cs / 360000
	m := cs / 6000 % 60
	sec := cs / 100 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, sec, cs%100)
}
