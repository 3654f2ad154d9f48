// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package task

import (
	"fmt"

	"github.com/ZSC714725/soxmanager/internal/sox/options"
)

// Config for a processing task
type Config struct {
	ID        string              `json:"id"`
	Reference string              `json:"reference"`
	Input     []options.InputFile `json:"input"`
	// Output may be nil to run the effects chain without writing a file,
	// e.g. for the stat or noiseprof effects.
	Output  *options.OutputFile `json:"output,omitempty"`
	Combine string              `json:"combine,omitempty"`
	Global  *options.Global     `json:"global,omitempty"`
	// Effects in chain order, each written as on the command line, e.g. "vol 3 dB".
	Effects   []string `json:"effects,omitempty"`
	Autostart bool     `json:"autostart"`
	// Upload stores the output in object storage after a successful run.
	Upload bool `json:"upload"`
}

// CreateEffects parses the effect chain.
func (c *Config) CreateEffects() ([]options.Effect, error) {
	effects := make([]options.Effect, 0, len(c.Effects))
	for _, s := range c.Effects {
		e, err := options.ParseEffect(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEffect, err)
		}
		effects = append(effects, e)
	}
	return effects, nil
}

// CombinationMode returns the parsed combination mode.
func (c *Config) CombinationMode() (options.CombinationMode, error) {
	m, err := options.ParseCombinationMode(c.Combine)
	if err != nil {
		return options.CombineDefault, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return m, nil
}
