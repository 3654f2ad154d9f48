// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package options

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZSC714725/soxmanager/internal/sox/parse"
)

// Effect is one entry of the effects chain.
type Effect interface {
	Name() string
	// Args returns the effect parameters, excluding the name.
	Args() []string
}

// Validator is implemented by effects with parameters that depend on each
// other.
type Validator interface {
	Validate() error
}

// EffectError reports an invalid effect configuration.
type EffectError struct {
	Effect  string
	Message string
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("effect %s: %s", e.Effect, e.Message)
}

// EffectArgs renders an effect with its name. Effects implementing
// Validator are checked first.
func EffectArgs(e Effect) ([]string, error) {
	if v, ok := e.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return append([]string{e.Name()}, e.Args()...), nil
}

// Unit is the suffix of a frequency or width value.
type Unit string

const (
	UnitNone    Unit = ""
	UnitHz      Unit = "h"
	UnitKHz     Unit = "k"
	UnitOctaves Unit = "o"
	UnitQ       Unit = "q"
)

// Frequency is a value in Hz unless a unit is given.
type Frequency struct {
	Value float64
	Unit  Unit
}

func (f Frequency) String() string {
	return formatFloat(f.Value) + string(f.Unit)
}

// Width is a filter band width, in Hz unless a unit is given.
type Width struct {
	Value float64
	Unit  Unit
}

func (w Width) String() string {
	return formatFloat(w.Value) + string(w.Unit)
}

// Hz is a convenience constructor for a plain frequency.
func Hz(v float64) Frequency { return Frequency{Value: v} }

// Q is a convenience constructor for a width given as Q factor.
func Q(v float64) Width { return Width{Value: v, Unit: UnitQ} }

// GainType is the unit of a vol gain.
type GainType string

const (
	GainAmplitude GainType = "amplitude"
	GainPower     GainType = "power"
	GainDB        GainType = "dB"
)

// Vol changes the volume.
type Vol struct {
	Gain    float64
	Type    GainType
	Limiter *float64
}

func (Vol) Name() string { return "vol" }

func (e Vol) Args() []string {
	args := []string{formatFloat(e.Gain)}
	if e.Type != "" {
		args = append(args, string(e.Type))
	}
	if e.Limiter != nil {
		args = append(args, formatFloat(*e.Limiter))
	}
	return args
}

// PositionFrom anchors a trim position.
type PositionFrom string

const (
	FromDefault PositionFrom = ""
	FromStart   PositionFrom = "="
	FromEnd     PositionFrom = "-"
	FromLast    PositionFrom = "+"
)

// Position is a point in the audio, given either as time or as a number of
// samples.
type Position struct {
	From    PositionFrom
	Time    time.Duration
	Samples uint64
	// InSamples selects Samples over Time.
	InSamples bool
}

func (p Position) String() string {
	if p.InSamples {
		return string(p.From) + strconv.FormatUint(p.Samples, 10) + "s"
	}
	return string(p.From) + parse.FormatTimeCode(p.Time)
}

// Trim cuts portions out of the audio.
type Trim struct {
	Positions []Position
}

func (Trim) Name() string { return "trim" }

func (e Trim) Args() []string {
	args := make([]string, 0, len(e.Positions))
	for _, p := range e.Positions {
		args = append(args, p.String())
	}
	return args
}

func (e Trim) Validate() error {
	if len(e.Positions) == 0 {
		return &EffectError{Effect: e.Name(), Message: "at least one position is required"}
	}
	return nil
}

// Speed changes pitch and tempo together.
type Speed struct {
	Factor float64
	// Cents interprets Factor as a shift in cents.
	Cents bool
}

func (Speed) Name() string { return "speed" }

func (e Speed) Args() []string {
	v := formatFloat(e.Factor)
	if e.Cents {
		v += "c"
	}
	return []string{v}
}

// TempoMode optimizes tempo for a type of material.
type TempoMode string

const (
	TempoDefault TempoMode = ""
	TempoMusic   TempoMode = "-m"
	TempoSpeech  TempoMode = "-s"
	TempoLinear  TempoMode = "-l"
)

// Tempo changes tempo without changing pitch.
type Tempo struct {
	Factor  float64
	Quick   bool
	Mode    TempoMode
	Segment *float64
	Search  *float64
	Overlap *float64
}

func (Tempo) Name() string { return "tempo" }

func (e Tempo) Args() []string {
	var args []string
	if e.Quick {
		args = append(args, "-q")
	}
	if e.Mode != TempoDefault {
		args = append(args, string(e.Mode))
	}
	args = append(args, formatFloat(e.Factor))
	for _, v := range []*float64{e.Segment, e.Search, e.Overlap} {
		if v != nil {
			args = append(args, formatFloat(*v))
		}
	}
	return args
}

func (e Tempo) Validate() error {
	if e.Search != nil && e.Segment == nil {
		return &EffectError{Effect: e.Name(), Message: "search set without segment"}
	}
	if e.Overlap != nil && (e.Search == nil || e.Segment == nil) {
		return &EffectError{Effect: e.Name(), Message: "overlap set without segment and search"}
	}
	return nil
}

// Shelf is the shared shape of bass and treble.
type Shelf struct {
	Gain      float64
	Frequency *Frequency
	Width     *Width
}

func (s Shelf) args() []string {
	args := []string{formatFloat(s.Gain)}
	if s.Frequency != nil {
		args = append(args, s.Frequency.String())
		if s.Width != nil {
			args = append(args, s.Width.String())
		}
	}
	return args
}

// Bass boosts or cuts the low frequencies.
type Bass Shelf

func (Bass) Name() string     { return "bass" }
func (e Bass) Args() []string { return Shelf(e).args() }

// Treble boosts or cuts the high frequencies.
type Treble Shelf

func (Treble) Name() string     { return "treble" }
func (e Treble) Args() []string { return Shelf(e).args() }

// Reverse plays the audio backwards.
type Reverse struct{}

func (Reverse) Name() string   { return "reverse" }
func (Reverse) Args() []string { return nil }

// Poles selects a single or double pole pass filter.
type Poles string

const (
	PolesDefault Poles = ""
	PolesSingle  Poles = "-1"
	PolesDouble  Poles = "-2"
)

// PassFilter is the shared shape of lowpass and highpass.
type PassFilter struct {
	Poles     Poles
	Frequency Frequency
	Width     *Width
}

func (f PassFilter) args() []string {
	var args []string
	if f.Poles != PolesDefault {
		args = append(args, string(f.Poles))
	}
	args = append(args, f.Frequency.String())
	if f.Width != nil {
		args = append(args, f.Width.String())
	}
	return args
}

type Lowpass PassFilter

func (Lowpass) Name() string     { return "lowpass" }
func (e Lowpass) Args() []string { return PassFilter(e).args() }

type Highpass PassFilter

func (Highpass) Name() string     { return "highpass" }
func (e Highpass) Args() []string { return PassFilter(e).args() }

// Bandpass applies a two-pole band-pass filter.
type Bandpass struct {
	// SkirtGain selects constant skirt gain (-c).
	SkirtGain bool
	Frequency Frequency
	Width     Width
}

func (Bandpass) Name() string { return "bandpass" }

func (e Bandpass) Args() []string {
	var args []string
	if e.SkirtGain {
		args = append(args, "-c")
	}
	return append(args, e.Frequency.String(), e.Width.String())
}

// Bandreject applies a two-pole band-reject filter.
type Bandreject struct {
	Frequency Frequency
	Width     Width
}

func (Bandreject) Name() string { return "bandreject" }

func (e Bandreject) Args() []string {
	return []string{e.Frequency.String(), e.Width.String()}
}

// Allpass applies a two-pole all-pass filter.
type Allpass struct {
	Frequency Frequency
	Width     Width
}

func (Allpass) Name() string { return "allpass" }

func (e Allpass) Args() []string {
	return []string{e.Frequency.String(), e.Width.String()}
}

// Contrast enhances the loudness of the audio.
type Contrast struct {
	Enhancement float64
}

func (Contrast) Name() string { return "contrast" }

func (e Contrast) Args() []string {
	return []string{formatFloat(e.Enhancement)}
}

// Loudness applies loudness-controlled equalisation.
type Loudness struct {
	Gain      *float64
	Reference *float64
}

func (Loudness) Name() string { return "loudness" }

func (e Loudness) Args() []string {
	var args []string
	if e.Gain != nil {
		args = append(args, formatFloat(*e.Gain))
	}
	if e.Reference != nil {
		args = append(args, formatFloat(*e.Reference))
	}
	return args
}

func (e Loudness) Validate() error {
	if e.Reference != nil && e.Gain == nil {
		return &EffectError{Effect: e.Name(), Message: "reference set without gain"}
	}
	return nil
}

// Tremolo applies a tremolo (low frequency amplitude modulation).
type Tremolo struct {
	Speed float64
	Depth *uint16
}

func (Tremolo) Name() string { return "tremolo" }

func (e Tremolo) Args() []string {
	args := []string{formatFloat(e.Speed)}
	if e.Depth != nil {
		args = append(args, strconv.FormatUint(uint64(*e.Depth), 10))
	}
	return args
}

// NoiseProfile writes a noise profile for later use by NoiseReduction.
type NoiseProfile struct {
	File string
}

func (NoiseProfile) Name() string { return "noiseprof" }

func (e NoiseProfile) Args() []string {
	if e.File == "" {
		return nil
	}
	return []string{e.File}
}

// NoiseReduction reduces noise using a profile written by NoiseProfile.
type NoiseReduction struct {
	Profile string
	Amount  *float64
}

func (NoiseReduction) Name() string { return "noisered" }

func (e NoiseReduction) Args() []string {
	args := []string{e.Profile}
	if e.Amount != nil {
		args = append(args, formatFloat(*e.Amount))
	}
	return args
}

func (e NoiseReduction) Validate() error {
	if e.Profile == "" {
		return &EffectError{Effect: e.Name(), Message: "profile file is required"}
	}
	return nil
}

// RawEffect passes a name and parameters through unchanged.
type RawEffect struct {
	Effect     string   `json:"name"`
	Parameters []string `json:"args,omitempty"`
}

func (e RawEffect) Name() string   { return e.Effect }
func (e RawEffect) Args() []string { return e.Parameters }

func (e RawEffect) Validate() error {
	if e.Effect == "" || strings.HasPrefix(e.Effect, "-") {
		return &EffectError{Effect: e.Effect, Message: "invalid effect name"}
	}
	return nil
}

// ParseEffect splits "vol 3 dB" into a RawEffect.
func ParseEffect(s string) (RawEffect, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return RawEffect{}, &EffectError{Message: "empty effect"}
	}
	e := RawEffect{Effect: fields[0], Parameters: fields[1:]}
	if err := e.Validate(); err != nil {
		return RawEffect{}, err
	}
	return e, nil
}
