// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package parse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var reNumber = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)

// ParseSize converts a SoX size or rate string ("12", "2k", "5.5M", "1G") to
// an integer. Suffixes are binary multiples; the scaled value is rounded.
func ParseSize(s string) (uint64, error) {
	v, err := parseScaled(s)
	if err != nil {
		return 0, err
	}
	if v >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: size %q", ErrOverflow, s)
	}
	return uint64(v), nil
}

// ParseSize32 is ParseSize for 32 bit targets such as bit rates.
func ParseSize32(s string) (uint32, error) {
	v, err := parseScaled(s)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: size %q", ErrOverflow, s)
	}
	return uint32(v), nil
}

func parseScaled(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty size", ErrInvalidNumber)
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'k':
		mult = 1 << 10
	case 'M':
		mult = 1 << 20
	case 'G':
		mult = 1 << 30
	}
	num := s
	if mult != 1 {
		num = s[:len(s)-1]
	}

	if !reNumber.MatchString(num) {
		return 0, fmt.Errorf("%w: size %q", ErrInvalidNumber, s)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: size %q", ErrOverflow, s)
		}
		return 0, fmt.Errorf("%w: size %q", ErrInvalidNumber, s)
	}
	return math.Round(v * mult), nil
}
