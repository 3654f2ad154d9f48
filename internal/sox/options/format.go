// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具
//
// Package options renders SoX global, file and effect options into argv
// fragments.

package options

import (
	"runtime"
	"strconv"
	"strings"
)

// Encoding is a sample encoding accepted by --encoding.
type Encoding string

const (
	EncodingSignedInteger   Encoding = "signed-integer"
	EncodingUnsignedInteger Encoding = "unsigned-integer"
	EncodingFloatingPoint   Encoding = "floating-point"
	EncodingALaw            Encoding = "a-law"
	EncodingMuLaw           Encoding = "mu-law"
	EncodingImaAdpcm        Encoding = "ima-adpcm"
	EncodingMsAdpcm         Encoding = "ms-adpcm"
	EncodingGsmFullRate     Encoding = "gsm-full-rate"
)

// ByteOrder is an argument of --endian.
type ByteOrder string

const (
	ByteOrderLittle ByteOrder = "little"
	ByteOrderBig    ByteOrder = "big"
	ByteOrderSwap   ByteOrder = "swap"
)

// FormatOptions are the file format flags shared by inputs and the output.
// Zero values are not rendered.
type FormatOptions struct {
	Type           string    `json:"type,omitempty" yaml:"type"`
	Encoding       Encoding  `json:"encoding,omitempty" yaml:"encoding"`
	Bits           uint16    `json:"bits,omitempty" yaml:"bits"`
	ReverseNibbles bool      `json:"reverse_nibbles,omitempty" yaml:"reverse_nibbles"`
	ReverseBits    bool      `json:"reverse_bits,omitempty" yaml:"reverse_bits"`
	Endian         ByteOrder `json:"endian,omitempty" yaml:"endian"`
	Channels       uint16    `json:"channels,omitempty" yaml:"channels"`
	Rate           uint32    `json:"rate,omitempty" yaml:"rate"`
	NoGlob         bool      `json:"no_glob,omitempty" yaml:"no_glob"`
	// Custom is appended after the known flags, split on whitespace.
	Custom string `json:"custom,omitempty" yaml:"custom"`
}

// Args renders the options in SoX flag order.
func (f FormatOptions) Args() []string {
	var args []string

	if f.Type != "" {
		args = append(args, "--type", strings.ToLower(f.Type))
	}
	if f.Encoding != "" {
		args = append(args, "--encoding", string(f.Encoding))
	}
	if f.Bits > 0 {
		args = append(args, "--bits", strconv.FormatUint(uint64(f.Bits), 10))
	}
	if f.ReverseNibbles {
		args = append(args, "--reverse-nibbles")
	}
	if f.ReverseBits {
		args = append(args, "--reverse-bits")
	}
	if f.Endian != "" {
		args = append(args, "--endian", string(f.Endian))
	}
	if f.Channels > 0 {
		args = append(args, "--channels", strconv.FormatUint(uint64(f.Channels), 10))
	}
	if f.Rate > 0 {
		args = append(args, "--rate", strconv.FormatUint(uint64(f.Rate), 10))
	}
	if f.NoGlob {
		args = append(args, "--no-glob")
	}
	args = append(args, strings.Fields(f.Custom)...)

	return args
}

// InputFile is one input of a processing run. An empty Path reads from the
// null file handler.
type InputFile struct {
	FormatOptions `yaml:",inline"`

	Path         string   `json:"path" yaml:"path"`
	Volume       *float64 `json:"volume,omitempty" yaml:"volume"`
	IgnoreLength bool     `json:"ignore_length,omitempty" yaml:"ignore_length"`
}

func (i InputFile) Args() []string {
	args := i.FormatOptions.Args()

	if i.Volume != nil {
		args = append(args, "--volume", formatFloat(*i.Volume))
	}
	if i.IgnoreLength {
		args = append(args, "--ignore-length")
	}
	if i.Path == "" {
		return append(args, "--null")
	}
	return append(args, i.Path)
}

// OutputFile is the destination of a processing run.
type OutputFile struct {
	FormatOptions `yaml:",inline"`

	Path        string   `json:"path" yaml:"path"`
	Compression *float64 `json:"compression,omitempty" yaml:"compression"`
	// Comment replaces the comments of the input, AddComment appends one.
	Comment    string `json:"comment,omitempty" yaml:"comment"`
	AddComment string `json:"add_comment,omitempty" yaml:"add_comment"`
	Normalize  bool   `json:"normalize,omitempty" yaml:"normalize"`
}

func (o OutputFile) Args() []string {
	args := o.FormatOptions.Args()

	if o.Compression != nil {
		args = append(args, "--compression", formatFloat(*o.Compression))
	}
	if o.AddComment != "" {
		args = append(args, "--add-comment", o.AddComment)
	}
	if o.Comment != "" {
		args = append(args, "--comment", o.Comment)
	}
	if o.Normalize {
		args = append(args, "--norm")
	}
	if o.Path == "" {
		return append(args, "--null")
	}
	return append(args, o.Path)
}

// NullOutput renders the placeholder used when a run has no output file.
func NullOutput() []string {
	return []string{"--null"}
}

// Quote wraps s in the platform quote character when it contains
// whitespace.
func Quote(s string) string {
	if !strings.ContainsAny(s, " \t") {
		return s
	}
	if runtime.GOOS == "windows" {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

// CommandLine renders binary and args as a single line for logging.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Quote(binary))
	for _, a := range args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
